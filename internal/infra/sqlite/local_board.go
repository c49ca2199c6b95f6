package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// LocalBoard is the per-player leaderboard kept on the player's machine.
// At most capacity runs are retained per quiz.
type LocalBoard struct {
	db       *sql.DB
	capacity int
}

// Open opens (or creates) the board at path and prepares its table.
func Open(path string, capacity int) (*LocalBoard, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local board: %w", err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local board: %w", err)
	}
	if capacity <= 0 {
		capacity = app.DefaultLocalCapacity
	}
	board := &LocalBoard{db: db, capacity: capacity}
	if err := board.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return board, nil
}

func (b *LocalBoard) Close() error {
	return b.db.Close()
}

func (b *LocalBoard) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS local_scores (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_local_scores_quiz ON local_scores(quiz_id)`,
	}
	for _, q := range queries {
		if _, err := b.db.Exec(q); err != nil {
			return fmt.Errorf("create local board tables: %w", err)
		}
	}
	return nil
}

// Record ranks entry against the stored runs of its quiz and keeps it when it
// earns a place. Runs pushed past capacity are dropped.
func (b *LocalBoard) Record(ctx context.Context, entry domain.HighScoreEntry) (app.RankResult, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return app.RankResult{}, &domain.PersistenceError{Op: "record local score", Err: err}
	}
	defer tx.Rollback()

	existing, err := listTx(ctx, tx, entry.QuizID)
	if err != nil {
		return app.RankResult{}, err
	}
	rank := app.RankEntries(entry.Run(), existing, b.capacity)
	if !rank.Eligible {
		return rank, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO local_scores
		(id, quiz_id, player_name, score, total_questions, elapsed_ms, accuracy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.QuizID, entry.PlayerName, entry.Score, entry.TotalQuestions,
		entry.ElapsedMs, entry.Accuracy, entry.CreatedAt.UnixNano())
	if err != nil {
		return app.RankResult{}, &domain.PersistenceError{Op: "record local score", Err: err}
	}

	all := append(existing, entry)
	app.SortEntries(all)
	for _, dropped := range all[min(len(all), b.capacity):] {
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_scores WHERE id = ?`, dropped.ID); err != nil {
			return app.RankResult{}, &domain.PersistenceError{Op: "trim local scores", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return app.RankResult{}, &domain.PersistenceError{Op: "record local score", Err: err}
	}
	return rank, nil
}

// List returns the ranked local standings of quizID.
func (b *LocalBoard) List(ctx context.Context, quizID string) ([]app.RankedEntry, error) {
	entries, err := listTx(ctx, b.db, quizID)
	if err != nil {
		return nil, err
	}
	return app.Standings(entries, b.capacity), nil
}

// Reset clears the local standings of quizID.
func (b *LocalBoard) Reset(ctx context.Context, quizID string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM local_scores WHERE quiz_id = ?`, quizID); err != nil {
		return &domain.PersistenceError{Op: "reset local scores", Err: err}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listTx(ctx context.Context, q queryer, quizID string) ([]domain.HighScoreEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, quiz_id, player_name, score, total_questions, elapsed_ms, accuracy, created_at
		FROM local_scores WHERE quiz_id = ?`, quizID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list local scores", Err: err}
	}
	defer rows.Close()

	var out []domain.HighScoreEntry
	for rows.Next() {
		var e domain.HighScoreEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.QuizID, &e.PlayerName, &e.Score, &e.TotalQuestions, &e.ElapsedMs, &e.Accuracy, &created); err != nil {
			return nil, &domain.PersistenceError{Op: "scan local score", Err: err}
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list local scores", Err: err}
	}
	return out, nil
}
