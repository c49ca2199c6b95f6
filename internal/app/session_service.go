package app

import (
	"context"
	"errors"
	"time"

	"knotquiz/internal/domain"
	"knotquiz/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts how live quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// SessionService drives server-hosted quiz sessions.
type SessionService struct {
	sessions           SessionRepository
	quizzes            *QuizService
	highScores         *HighScoreService
	notifier           *Notifier
	shuffler           *Shuffler
	optionsPerQuestion int
	logger             *zap.Logger
	now                func() time.Time
	rankTimeout        time.Duration
}

func NewSessionService(
	sessions SessionRepository,
	quizzes *QuizService,
	highScores *HighScoreService,
	notifier *Notifier,
	shuffler *Shuffler,
	optionsPerQuestion int,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &SessionService{
		sessions:           sessions,
		quizzes:            quizzes,
		highScores:         highScores,
		notifier:           notifier,
		shuffler:           shuffler,
		optionsPerQuestion: optionsPerQuestion,
		logger:             logger,
		now:                time.Now,
		rankTimeout:        5 * time.Second,
	}
}

// WithClock is test-only for deterministic timing.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Notifier returns the hub session updates are published on.
func (s *SessionService) Notifier() *Notifier {
	return s.notifier
}

// Start opens a new session on quizID.
func (s *SessionService) Start(ctx context.Context, quizID string) (SessionView, error) {
	quiz, err := s.quizzes.Load(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	session := NewSessionWithClock(uuid.NewString(), s.shuffler, s.optionsPerQuestion, s.now)
	session.Start(quiz)
	s.sessions.Put(session)
	metrics.SessionsStarted.Inc()
	s.logger.Debug("session started", zap.String("session_id", session.ID()), zap.String("quiz_id", quizID))
	return s.publish(session), nil
}

// Get returns the current view of a session.
func (s *SessionService) Get(_ context.Context, sessionID string) (SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Snapshot(), nil
}

// Session exposes the live session for read-only consumers such as tickers.
func (s *SessionService) Session(sessionID string) (*Session, error) {
	return s.lookup(sessionID)
}

// Select records the answer for the current question.
func (s *SessionService) Select(_ context.Context, sessionID string, answer []string) (SessionView, error) {
	return s.mutate(sessionID, func(session *Session) error {
		return session.Select(answer)
	})
}

// Advance scores the selected answer and moves on.
func (s *SessionService) Advance(_ context.Context, sessionID string) (SessionView, domain.Answer, error) {
	var answer domain.Answer
	view, err := s.mutate(sessionID, func(session *Session) error {
		var err error
		answer, err = session.Advance()
		if err == nil && session.State() == StateCompleted {
			metrics.SessionsCompleted.Inc()
		}
		return err
	})
	return view, answer, err
}

// Pause suspends the session timer.
func (s *SessionService) Pause(_ context.Context, sessionID string) (SessionView, error) {
	return s.mutate(sessionID, (*Session).Pause)
}

// Resume continues the session timer.
func (s *SessionService) Resume(_ context.Context, sessionID string) (SessionView, error) {
	return s.mutate(sessionID, (*Session).Resume)
}

// Retake restarts the session with the same quiz. Pending rank lookups for
// the previous attempt are discarded when they complete.
func (s *SessionService) Retake(_ context.Context, sessionID string) (SessionView, error) {
	view, err := s.mutate(sessionID, (*Session).Retake)
	if err == nil {
		metrics.SessionsStarted.Inc()
	}
	return view, err
}

// Discard drops a session and closes its subscriptions.
func (s *SessionService) Discard(_ context.Context, sessionID string) error {
	if _, err := s.lookup(sessionID); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	s.notifier.Close(sessionID)
	return nil
}

// SubmitResult is the outcome of persisting a session's high score.
type SubmitResult struct {
	ID string `json:"id"`
}

// SubmitHighScore persists the completed session's result under playerName
// and starts a global rank lookup in the background. A failed write leaves
// the session and its results untouched.
func (s *SessionService) SubmitHighScore(ctx context.Context, sessionID, playerName string) (SubmitResult, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	version := session.Version()
	run, quizID, total, err := session.Result()
	if err != nil {
		return SubmitResult{}, err
	}
	if id := session.Submitted(); id != "" {
		return SubmitResult{ID: id}, nil
	}
	entry, err := s.highScores.NewEntry(quizID, playerName, run, total)
	if err != nil {
		return SubmitResult{}, err
	}
	id, err := s.highScores.Submit(ctx, entry)
	if err != nil {
		return SubmitResult{}, err
	}

	session.MarkSubmitted(version, id)
	s.publish(session)

	go func() {
		rankCtx, cancel := context.WithTimeout(context.Background(), s.rankTimeout)
		defer cancel()
		if _, _, err := s.RefreshGlobalRank(rankCtx, sessionID, version); err != nil {
			s.logger.Warn("global rank lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
	return SubmitResult{ID: id}, nil
}

// RefreshGlobalRank looks up the global rank of the session's result as of
// version. The result is applied only if the session has not been retaken
// meanwhile; applied reports whether it was.
func (s *SessionService) RefreshGlobalRank(ctx context.Context, sessionID string, version int) (RankResult, bool, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return RankResult{}, false, err
	}
	run, quizID, _, err := session.Result()
	if err != nil {
		return RankResult{}, false, err
	}
	rank, err := s.highScores.GlobalRank(ctx, quizID, run)
	if err != nil {
		return RankResult{}, false, err
	}
	if !session.ApplyRank(version, rank) {
		s.logger.Debug("stale global rank dropped", zap.String("session_id", sessionID), zap.Int("version", version))
		return rank, false, nil
	}
	s.publish(session)
	return rank, true, nil
}

func (s *SessionService) mutate(sessionID string, fn func(*Session) error) (SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := fn(session); err != nil {
		return session.Snapshot(), err
	}
	s.sessions.Put(session)
	return s.publish(session), nil
}

func (s *SessionService) lookup(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) publish(session *Session) SessionView {
	view := session.Snapshot()
	s.notifier.Publish(view)
	return view
}

// IsStateError reports whether err is a misuse of the session state machine.
func IsStateError(err error) bool {
	return errors.Is(err, domain.ErrSessionNotInProgress) ||
		errors.Is(err, domain.ErrSessionNotCompleted) ||
		errors.Is(err, domain.ErrNoAnswerSelected) ||
		errors.Is(err, domain.ErrAnswerAlreadySelected) ||
		errors.Is(err, domain.ErrInvalidTimerTransition)
}
