package app

import (
	"strings"

	"knotquiz/internal/domain"
)

// DefaultOptionsPerQuestion is the size of a generated multiple-choice set.
const DefaultOptionsPerQuestion = 4

// GenerateOptions builds up to k unique options holding correct exactly once.
// Distractors come from all with every occurrence of correct removed. When
// fewer than k-1 distinct distractors exist, all of them are used.
func GenerateOptions(s *Shuffler, correct string, all []string, k int) []string {
	if k <= 0 {
		k = DefaultOptionsPerQuestion
	}
	pool := Shuffle(s, distinctExcluding(all, map[string]struct{}{correct: {}}))
	if len(pool) > k-1 {
		pool = pool[:k-1]
	}
	return Shuffle(s, append(pool, correct))
}

// CustomPoolOptions returns the question's own pool shuffled, with correct
// added when no entry matches it case-insensitively.
func CustomPoolOptions(s *Shuffler, correct string, pool []string) []string {
	options := distinctExcluding(pool, nil)
	if !containsFold(options, correct) {
		options = append(options, correct)
	}
	return Shuffle(s, options)
}

// OptionsFor computes the option set of one question. allAnswers is the
// quiz-wide answer pool used when the question declares no pool of its own.
func OptionsFor(s *Shuffler, q domain.Question, allAnswers []string, k int) []string {
	if k <= 0 {
		k = DefaultOptionsPerQuestion
	}
	switch q.Kind {
	case domain.KindMatching:
		rights := q.CorrectValues()
		exclude := toSet(rights)
		extra := distinctExcluding(q.Pool, exclude)
		return Shuffle(s, append(rights, extra...))
	case domain.KindMulti:
		if len(q.Pool) > 0 {
			options := distinctExcluding(q.Pool, nil)
			for _, a := range q.Answer {
				if !containsFold(options, a) {
					options = append(options, a)
				}
			}
			return Shuffle(s, options)
		}
		want := k
		if len(q.Answer) > want {
			want = len(q.Answer)
		}
		pool := Shuffle(s, distinctExcluding(allAnswers, toSet(q.Answer)))
		if n := want - len(q.Answer); len(pool) > n {
			pool = pool[:n]
		}
		return Shuffle(s, append(append([]string(nil), q.Answer...), pool...))
	default:
		correct := ""
		if len(q.Answer) > 0 {
			correct = q.Answer[0]
		}
		if len(q.Pool) > 0 {
			return CustomPoolOptions(s, correct, q.Pool)
		}
		return GenerateOptions(s, correct, allAnswers, k)
	}
}

// AnswerPool collects every answer value of single and multi questions.
func AnswerPool(quiz domain.Quiz) []string {
	var pool []string
	for _, q := range quiz.Questions {
		if q.Kind == domain.KindMatching {
			continue
		}
		pool = append(pool, q.Answer...)
	}
	return pool
}

func distinctExcluding(values []string, exclude map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, skip := exclude[v]; skip {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
