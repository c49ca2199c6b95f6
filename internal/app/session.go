package app

import (
	"fmt"
	"sync"
	"time"

	"knotquiz/internal/domain"
)

// SessionState is the lifecycle position of a quiz attempt.
type SessionState string

const (
	StateNotStarted SessionState = "notStarted"
	StateInProgress SessionState = "inProgress"
	StateCompleted  SessionState = "completed"
)

// Session is one attempt at a quiz. Questions and their option sets are
// fixed when the attempt starts; a retake replaces them along with the timer.
type Session struct {
	id                 string
	now                func() time.Time
	shuffler           *Shuffler
	optionsPerQuestion int

	mu         sync.RWMutex
	version    int
	state      SessionState
	quiz       domain.Quiz
	questions  []domain.Question
	options    [][]string
	current    int
	score      int
	answers    []domain.Answer
	pending    []string
	timer      *Timer
	globalRank *RankResult
	submitted  string
}

// NewSession returns a not-started session.
func NewSession(id string, shuffler *Shuffler, optionsPerQuestion int) *Session {
	return NewSessionWithClock(id, shuffler, optionsPerQuestion, time.Now)
}

// NewSessionWithClock allows deterministic timing in tests.
func NewSessionWithClock(id string, shuffler *Shuffler, optionsPerQuestion int, now func() time.Time) *Session {
	if optionsPerQuestion <= 0 {
		optionsPerQuestion = DefaultOptionsPerQuestion
	}
	return &Session{
		id:                 id,
		now:                now,
		shuffler:           shuffler,
		optionsPerQuestion: optionsPerQuestion,
		state:              StateNotStarted,
		timer:              NewTimer(now),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Version increases on every start or retake.
func (s *Session) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// State returns the lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start begins an attempt at quiz, discarding any previous attempt.
func (s *Session) Start(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(quiz)
}

// Retake restarts the attempt with the same quiz.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateNotStarted {
		return domain.ErrSessionNotInProgress
	}
	s.startLocked(s.quiz)
	return nil
}

func (s *Session) startLocked(quiz domain.Quiz) {
	pool := AnswerPool(quiz)
	questions := Shuffle(s.shuffler, quiz.Questions)
	options := make([][]string, len(questions))
	for i, q := range questions {
		options[i] = OptionsFor(s.shuffler, q, pool, s.optionsPerQuestion)
	}

	s.version++
	s.quiz = quiz
	s.questions = questions
	s.options = options
	s.current = 0
	s.score = 0
	s.answers = make([]domain.Answer, 0, len(questions))
	s.pending = nil
	s.globalRank = nil
	s.submitted = ""
	s.timer = NewTimer(s.now)
	_ = s.timer.Start()
	s.state = StateInProgress
	if len(questions) == 0 {
		_ = s.timer.Stop()
		s.state = StateCompleted
	}
}

// Select records the answer to the current question and pauses the timer
// while feedback is shown. Only one selection is accepted per question.
func (s *Session) Select(selected []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return domain.ErrSessionNotInProgress
	}
	if s.pending != nil {
		return domain.ErrAnswerAlreadySelected
	}
	if len(selected) == 0 {
		return &domain.ValidationError{Field: "answer", Message: "must not be empty"}
	}
	if err := s.timer.Pause(); err != nil {
		return err
	}
	s.pending = append([]string{}, selected...)
	return nil
}

// Advance scores the selected answer and moves to the next question. The
// timer resumes, or stops when the last question has been answered.
func (s *Session) Advance() (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return domain.Answer{}, domain.ErrSessionNotInProgress
	}
	if s.pending == nil {
		return domain.Answer{}, domain.ErrNoAnswerSelected
	}

	q := s.questions[s.current]
	answer := domain.Answer{
		QuestionID: q.ID,
		Selected:   s.pending,
		Correct:    IsCorrect(q, s.pending),
	}
	if answer.Correct {
		s.score++
	}
	s.answers = append(s.answers, answer)
	s.current++
	s.pending = nil

	if s.current == len(s.questions) {
		if err := s.timer.Stop(); err != nil {
			return answer, fmt.Errorf("stop timer: %w", err)
		}
		s.state = StateCompleted
		return answer, nil
	}
	if err := s.timer.Resume(); err != nil {
		return answer, fmt.Errorf("resume timer: %w", err)
	}
	return answer, nil
}

// Pause suspends timing at the player's request. It is rejected while an
// answer is awaiting Advance since the timer is already paused for feedback.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return domain.ErrSessionNotInProgress
	}
	if s.pending != nil {
		return fmt.Errorf("%w: answer awaiting advance", domain.ErrInvalidTimerTransition)
	}
	return s.timer.Pause()
}

// Resume continues timing after Pause.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return domain.ErrSessionNotInProgress
	}
	if s.pending != nil {
		return fmt.Errorf("%w: answer awaiting advance", domain.ErrInvalidTimerTransition)
	}
	return s.timer.Resume()
}

// ElapsedMs samples the timer without changing it.
func (s *Session) ElapsedMs() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer.ElapsedMs()
}

// Result returns the final score/time pair of a completed attempt along with
// the quiz id and question count.
func (s *Session) Result() (domain.Run, string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateCompleted {
		return domain.Run{}, "", 0, domain.ErrSessionNotCompleted
	}
	return domain.Run{Score: s.score, TimeMs: s.timer.ElapsedMs()}, s.quiz.ID, len(s.questions), nil
}

// ApplyRank stores a global rank computed for version. Results for an older
// version are dropped and false is returned.
func (s *Session) ApplyRank(version int, rank RankResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version || s.state != StateCompleted {
		return false
	}
	rank.Version = version
	s.globalRank = &rank
	return true
}

// MarkSubmitted records the high-score id persisted for version.
func (s *Session) MarkSubmitted(version int, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return false
	}
	s.submitted = id
	return true
}

// Submitted returns the high-score id of the current attempt, if any.
func (s *Session) Submitted() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted
}

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := SessionView{
		ID:           s.id,
		Version:      s.version,
		QuizID:       s.quiz.ID,
		QuizName:     s.quiz.Name,
		State:        s.state,
		CurrentIndex: s.current,
		Total:        len(s.questions),
		Score:        s.score,
		Answers:      append([]domain.Answer{}, s.answers...),
		ElapsedMs:    s.timer.ElapsedMs(),
		Paused:       s.timer.State() == TimerPaused && s.pending == nil,
		Completed:    s.state == StateCompleted,
		GlobalRank:   s.globalRank,
		HighScoreID:  s.submitted,
	}
	if s.pending != nil {
		view.Selected = append([]string{}, s.pending...)
	}
	if s.state == StateInProgress && s.current < len(s.questions) {
		q := s.questions[s.current]
		qv := QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Image:   q.Image,
			Kind:    q.Kind,
			Options: append([]string{}, s.options[s.current]...),
		}
		for _, p := range q.Pairs {
			qv.Lefts = append(qv.Lefts, p.Left)
		}
		view.Current = &qv
	}
	return view
}

// SessionView is the externally visible state of a session.
type SessionView struct {
	ID           string          `json:"id"`
	Version      int             `json:"version"`
	QuizID       string          `json:"quizId"`
	QuizName     string          `json:"quizName"`
	State        SessionState    `json:"state"`
	CurrentIndex int             `json:"currentIndex"`
	Total        int             `json:"totalQuestions"`
	Score        int             `json:"score"`
	Answers      []domain.Answer `json:"answers"`
	Current      *QuestionView   `json:"current,omitempty"`
	Selected     []string        `json:"selected,omitempty"`
	ElapsedMs    int64           `json:"elapsedMs"`
	Paused       bool            `json:"paused"`
	Completed    bool            `json:"completed"`
	GlobalRank   *RankResult     `json:"globalRank,omitempty"`
	HighScoreID  string          `json:"highScoreId,omitempty"`
}

// QuestionView is a question as presented to a player.
type QuestionView struct {
	ID      string              `json:"id,omitempty"`
	Prompt  string              `json:"prompt"`
	Image   string              `json:"image,omitempty"`
	Kind    domain.QuestionKind `json:"kind"`
	Options []string            `json:"options"`
	Lefts   []string            `json:"lefts,omitempty"`
}

// IsCorrect compares a selection with the question's correct answer using
// exact string equality.
func IsCorrect(q domain.Question, selected []string) bool {
	correct := q.CorrectValues()
	switch q.Kind {
	case domain.KindMulti:
		if len(selected) != len(correct) {
			return false
		}
		want := toSet(correct)
		got := toSet(selected)
		if len(got) != len(selected) || len(got) != len(want) {
			return false
		}
		for v := range got {
			if _, ok := want[v]; !ok {
				return false
			}
		}
		return true
	default:
		if len(selected) != len(correct) {
			return false
		}
		for i := range correct {
			if selected[i] != correct[i] {
				return false
			}
		}
		return true
	}
}
