package redis

import (
	"context"
	"testing"
	"time"

	"knotquiz/internal/domain"
	"knotquiz/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"knots-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "knots-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:knots-1") {
		t.Fatalf("expected quiz document cached")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "knots-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Name != quiz.Name || len(cached.Questions) != len(quiz.Questions) {
		t.Fatalf("cached quiz differs: %+v", cached)
	}
	if cached.Questions[1].Kind != domain.KindMatching || len(cached.Questions[1].Pairs) != 2 {
		t.Fatalf("expected matching question to survive the cache, got %+v", cached.Questions[1])
	}

	if err := repo.Invalidate(context.Background(), "knots-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(context.Background(), "knots-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:   "knots-1",
		Name: "Basic knots",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Which knot forms a fixed loop?", Kind: domain.KindSingle, Answer: []string{"Bowline"}},
			{
				ID:     "q2",
				Prompt: "Match each knot to its use",
				Kind:   domain.KindMatching,
				Pairs: []domain.MatchPair{
					{Left: "Clove hitch", Right: "Binding to a post"},
					{Left: "Sheet bend", Right: "Joining two ropes"},
				},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
