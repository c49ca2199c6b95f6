package app_test

import (
	"sync"
	"time"

	"knotquiz/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func knotQuiz() domain.Quiz {
	return domain.Quiz{
		ID:   "knots-1",
		Name: "Basic knots",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Which knot forms a fixed loop?", Kind: domain.KindSingle, Answer: []string{"Bowline"}},
			{ID: "q2", Prompt: "Which knot joins two ropes?", Kind: domain.KindSingle, Answer: []string{"Sheet bend"}},
			{ID: "q3", Prompt: "Which hitch binds to a post?", Kind: domain.KindSingle, Answer: []string{"Clove hitch"}},
			{ID: "q4", Prompt: "Which knot is a stopper?", Kind: domain.KindSingle, Answer: []string{"Figure eight"}},
			{ID: "q5", Prompt: "Which knot tensions a line?", Kind: domain.KindSingle, Answer: []string{"Trucker's hitch"}},
		},
	}
}
