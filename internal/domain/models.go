package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// QuestionKind tags the shape of a question's correct answer.
type QuestionKind string

const (
	KindSingle   QuestionKind = "single"
	KindMulti    QuestionKind = "multi"
	KindMatching QuestionKind = "matching"
)

// MatchPair is one left/right association of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is a quiz prompt with its correct answer. Kind is fixed when the
// question is loaded and never inferred later.
type Question struct {
	ID     string
	Prompt string
	Image  string
	Kind   QuestionKind
	// Answer holds the single correct value (KindSingle) or the set of
	// correct values (KindMulti).
	Answer []string
	// Pairs holds the associations of a KindMatching question.
	Pairs []MatchPair
	// Pool, when set, replaces the quiz-wide answer pool for distractors.
	Pool []string
}

// CorrectValues returns the values a player has to pick for the question,
// in declared order.
func (q Question) CorrectValues() []string {
	if q.Kind == KindMatching {
		out := make([]string, len(q.Pairs))
		for i, p := range q.Pairs {
			out[i] = p.Right
		}
		return out
	}
	return append([]string(nil), q.Answer...)
}

type questionJSON struct {
	ID     string          `json:"id,omitempty"`
	Prompt string          `json:"prompt"`
	Image  string          `json:"image,omitempty"`
	Kind   QuestionKind    `json:"kind,omitempty"`
	Answer json.RawMessage `json:"answer"`
	Pool   []string        `json:"pool,omitempty"`
}

// UnmarshalJSON decodes a question and resolves its kind. An explicit "kind"
// wins; otherwise the shape of "answer" decides: a string is single, a list
// of strings is multi and a list of [left, right] pairs is matching.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question{ID: raw.ID, Prompt: raw.Prompt, Image: raw.Image, Pool: raw.Pool}
	if trimmed := bytes.TrimSpace(raw.Answer); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("question %q: missing answer", raw.Prompt)
	}

	var single string
	var multi []string
	var pairs [][]string
	var objPairs []MatchPair
	switch {
	case json.Unmarshal(raw.Answer, &single) == nil:
		q.Kind = KindSingle
		q.Answer = []string{single}
	case json.Unmarshal(raw.Answer, &multi) == nil:
		q.Kind = KindMulti
		q.Answer = multi
	case json.Unmarshal(raw.Answer, &pairs) == nil:
		q.Kind = KindMatching
		for _, p := range pairs {
			if len(p) != 2 {
				return fmt.Errorf("question %q: matching pair must have 2 entries, got %d", raw.Prompt, len(p))
			}
			q.Pairs = append(q.Pairs, MatchPair{Left: p[0], Right: p[1]})
		}
	case json.Unmarshal(raw.Answer, &objPairs) == nil:
		q.Kind = KindMatching
		q.Pairs = objPairs
	default:
		return fmt.Errorf("question %q: unsupported answer shape", raw.Prompt)
	}

	if raw.Kind != "" {
		if raw.Kind == KindMulti && q.Kind == KindSingle {
			// a one-element multi-select may be written as a bare string
			q.Kind = KindMulti
		}
		if raw.Kind != q.Kind {
			return fmt.Errorf("question %q: kind %q does not match answer shape %q", raw.Prompt, raw.Kind, q.Kind)
		}
	}
	return nil
}

// MarshalJSON writes the question in the same shape UnmarshalJSON reads.
func (q Question) MarshalJSON() ([]byte, error) {
	var answer any
	switch q.Kind {
	case KindMatching:
		pairs := make([][2]string, len(q.Pairs))
		for i, p := range q.Pairs {
			pairs[i] = [2]string{p.Left, p.Right}
		}
		answer = pairs
	case KindMulti:
		answer = q.Answer
	default:
		if len(q.Answer) > 0 {
			answer = q.Answer[0]
		} else {
			answer = ""
		}
	}
	encoded, err := json.Marshal(answer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionJSON{
		ID:     q.ID,
		Prompt: q.Prompt,
		Image:  q.Image,
		Kind:   q.Kind,
		Answer: encoded,
		Pool:   q.Pool,
	})
}

// Quiz is an immutable collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizSummary is the catalog view of a quiz.
type QuizSummary struct {
	QuizID        string `json:"quizID"`
	QuizName      string `json:"quizName"`
	QuestionCount int    `json:"questionCount"`
}

// Answer is a submitted answer for one question of a session.
type Answer struct {
	QuestionID string   `json:"questionId"`
	Selected   []string `json:"selected"`
	Correct    bool     `json:"correct"`
}

// Run is the score/time pair a leaderboard ranks.
type Run struct {
	Score  int   `json:"score"`
	TimeMs int64 `json:"time"`
}

// HighScoreEntry is a persisted result of a completed session.
type HighScoreEntry struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId" validate:"required"`
	PlayerName     string    `json:"playerName" validate:"required,max=50"`
	Score          int       `json:"score" validate:"gte=0,ltefield=TotalQuestions"`
	TotalQuestions int       `json:"totalQuestions" validate:"gt=0"`
	ElapsedMs      int64     `json:"elapsedMs" validate:"gte=0"`
	Accuracy       int       `json:"accuracy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Run projects the entry onto the ranked pair.
func (e HighScoreEntry) Run() Run {
	return Run{Score: e.Score, TimeMs: e.ElapsedMs}
}
