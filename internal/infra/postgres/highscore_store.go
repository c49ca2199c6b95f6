package postgres

import (
	"context"
	"time"

	"knotquiz/internal/domain"

	"github.com/uptrace/bun"
)

type highScoreRow struct {
	bun.BaseModel `bun:"table:high_scores"`

	ID             string    `bun:"id,pk"`
	QuizID         string    `bun:"quiz_id,notnull"`
	PlayerName     string    `bun:"player_name,notnull"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	ElapsedMs      int64     `bun:"elapsed_ms,notnull"`
	Accuracy       int       `bun:"accuracy,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func rowFromEntry(e domain.HighScoreEntry) *highScoreRow {
	return &highScoreRow{
		ID:             e.ID,
		QuizID:         e.QuizID,
		PlayerName:     e.PlayerName,
		Score:          e.Score,
		TotalQuestions: e.TotalQuestions,
		ElapsedMs:      e.ElapsedMs,
		Accuracy:       e.Accuracy,
		CreatedAt:      e.CreatedAt,
	}
}

func (r highScoreRow) entry() domain.HighScoreEntry {
	return domain.HighScoreEntry{
		ID:             r.ID,
		QuizID:         r.QuizID,
		PlayerName:     r.PlayerName,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		ElapsedMs:      r.ElapsedMs,
		Accuracy:       r.Accuracy,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

// HighScoreStore persists high scores in the high_scores table.
type HighScoreStore struct {
	db *bun.DB
}

func NewHighScoreStore(db *bun.DB) *HighScoreStore {
	return &HighScoreStore{db: db}
}

func (s *HighScoreStore) Create(ctx context.Context, entry domain.HighScoreEntry) error {
	if _, err := s.db.NewInsert().Model(rowFromEntry(entry)).Exec(ctx); err != nil {
		return &domain.PersistenceError{Op: "create high score", Err: err}
	}
	return nil
}

// ListByQuiz returns the fastest entries first; accuracy, score and recency break ties.
func (s *HighScoreStore) ListByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	return s.selectOrdered(ctx, quizID, limit, "elapsed_ms ASC, accuracy DESC, score DESC, created_at DESC")
}

// TopByQuiz returns the best runs first: higher score, then faster, then newest.
func (s *HighScoreStore) TopByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	return s.selectOrdered(ctx, quizID, limit, "score DESC, elapsed_ms ASC, created_at DESC")
}

func (s *HighScoreStore) selectOrdered(ctx context.Context, quizID string, limit int, order string) ([]domain.HighScoreEntry, error) {
	var rows []highScoreRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		OrderExpr(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, &domain.PersistenceError{Op: "list high scores", Err: err}
	}
	out := make([]domain.HighScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}
