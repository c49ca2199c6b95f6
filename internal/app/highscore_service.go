package app

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"knotquiz/internal/domain"
	"knotquiz/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxPlayerNameLength is the longest accepted player name, in characters.
const MaxPlayerNameLength = 50

// HighScoreStore persists high scores. Create is create-only and atomic.
// ListByQuiz returns at most limit entries for the quiz ordered by time
// ascending, then accuracy and score descending, then newest first.
// TopByQuiz returns at most limit entries in leaderboard order: score
// descending, then time ascending.
type HighScoreStore interface {
	Create(ctx context.Context, entry domain.HighScoreEntry) error
	ListByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error)
	TopByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error)
}

// EventPublisher announces persisted high scores.
type EventPublisher interface {
	PublishHighScore(ctx context.Context, entry domain.HighScoreEntry) error
}

// HighScoreService validates, persists and ranks high scores.
type HighScoreService struct {
	store     HighScoreStore
	publisher EventPublisher
	capacity  int
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
	newID     func() string
}

func NewHighScoreService(store HighScoreStore, capacity int, logger *zap.Logger) *HighScoreService {
	if capacity <= 0 {
		capacity = DefaultGlobalCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HighScoreService{
		store:    store,
		capacity: capacity,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithPublisher attaches an event publisher; nil disables publishing.
func (s *HighScoreService) WithPublisher(p EventPublisher) *HighScoreService {
	s.publisher = p
	return s
}

// WithClock overrides the creation timestamp source.
func (s *HighScoreService) WithClock(now func() time.Time) *HighScoreService {
	s.now = now
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Capacity is the size of the global leaderboard.
func (s *HighScoreService) Capacity() int {
	return s.capacity
}

// NewEntry builds a validated entry for a finished run. The name is trimmed
// and the accuracy is derived from score and total.
func (s *HighScoreService) NewEntry(quizID, playerName string, run domain.Run, total int) (domain.HighScoreEntry, error) {
	entry := domain.HighScoreEntry{
		ID:             s.newID(),
		QuizID:         quizID,
		PlayerName:     strings.TrimSpace(playerName),
		Score:          run.Score,
		TotalQuestions: total,
		ElapsedMs:      run.TimeMs,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.Validate(&entry); err != nil {
		return domain.HighScoreEntry{}, err
	}
	return entry, nil
}

// Validate checks a candidate entry, normalizing its name and accuracy.
func (s *HighScoreService) Validate(entry *domain.HighScoreEntry) error {
	entry.PlayerName = strings.TrimSpace(entry.PlayerName)
	if err := s.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toValidationError(verrs[0])
		}
		return &domain.ValidationError{Message: err.Error()}
	}
	entry.Accuracy = Accuracy(entry.Score, entry.TotalQuestions)
	return nil
}

// Accuracy is the rounded percentage of correct answers.
func Accuracy(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func toValidationError(fe validator.FieldError) *domain.ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &domain.ValidationError{Field: field, Message: "is required"}
	case "max":
		return &domain.ValidationError{Field: field, Message: "must be at most " + fe.Param() + " characters"}
	case "ltefield":
		return &domain.ValidationError{Field: field, Message: "must not exceed " + fe.Param()}
	case "gt":
		return &domain.ValidationError{Field: field, Message: "must be greater than " + fe.Param()}
	case "gte":
		return &domain.ValidationError{Field: field, Message: "must be at least " + fe.Param()}
	default:
		return &domain.ValidationError{Field: field, Message: "failed " + fe.Tag()}
	}
}

// Submit validates and persists entry, returning its id. Nothing is retried;
// a failed write leaves nothing behind and may be submitted again.
func (s *HighScoreService) Submit(ctx context.Context, entry domain.HighScoreEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = s.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.Validate(&entry); err != nil {
		metrics.HighScoreSubmissions.WithLabelValues("invalid").Inc()
		s.logger.Info("high score rejected", zap.String("quiz_id", entry.QuizID), zap.Error(err))
		return "", err
	}

	if err := s.store.Create(ctx, entry); err != nil {
		metrics.HighScoreSubmissions.WithLabelValues("failed").Inc()
		s.logger.Error("high score write failed", zap.String("quiz_id", entry.QuizID), zap.Error(err))
		if domain.IsPersistence(err) {
			return "", err
		}
		return "", &domain.PersistenceError{Op: "create high score", Err: err}
	}
	metrics.HighScoreSubmissions.WithLabelValues("stored").Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishHighScore(ctx, entry); err != nil {
			s.logger.Warn("high score event not published", zap.String("id", entry.ID), zap.Error(err))
		}
	}
	return entry.ID, nil
}

// Leaderboard returns the ranked global standings of a quiz.
func (s *HighScoreService) Leaderboard(ctx context.Context, quizID string) ([]RankedEntry, error) {
	entries, err := s.list(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return Standings(entries, s.capacity), nil
}

// Fastest returns the quiz's entries in store query order, fastest first.
func (s *HighScoreService) Fastest(ctx context.Context, quizID string) ([]domain.HighScoreEntry, error) {
	return s.query(ctx, quizID, s.store.ListByQuiz)
}

// GlobalRank places run on the quiz's global leaderboard. Only the best
// capacity entries can outrank an eligible run, so no more are read.
func (s *HighScoreService) GlobalRank(ctx context.Context, quizID string, run domain.Run) (RankResult, error) {
	entries, err := s.list(ctx, quizID)
	if err != nil {
		return RankResult{}, err
	}
	return RankEntries(run, entries, s.capacity), nil
}

func (s *HighScoreService) list(ctx context.Context, quizID string) ([]domain.HighScoreEntry, error) {
	return s.query(ctx, quizID, s.store.TopByQuiz)
}

type fetchFunc func(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error)

func (s *HighScoreService) query(ctx context.Context, quizID string, fetch fetchFunc) ([]domain.HighScoreEntry, error) {
	entries, err := fetch(ctx, quizID, s.capacity)
	if err != nil {
		s.logger.Error("high score query failed", zap.String("quiz_id", quizID), zap.Error(err))
		if domain.IsPersistence(err) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "list high scores", Err: err}
	}
	return entries, nil
}
