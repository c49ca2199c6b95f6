package redis

import (
	"context"
	"testing"
	"time"

	"knotquiz/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestHighScoreStoreListsInQueryOrder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewHighScoreStore(newClient(mr))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, e := range []domain.HighScoreEntry{
		{ID: "a", QuizID: "k", PlayerName: "A", Score: 3, TotalQuestions: 5, ElapsedMs: 7000, Accuracy: 60, CreatedAt: base},
		{ID: "b", QuizID: "k", PlayerName: "B", Score: 5, TotalQuestions: 5, ElapsedMs: 4000, Accuracy: 100, CreatedAt: base},
		{ID: "c", QuizID: "k", PlayerName: "C", Score: 4, TotalQuestions: 5, ElapsedMs: 4000, Accuracy: 80, CreatedAt: base},
	} {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.ID, err)
		}
	}

	got, err := store.ListByQuiz(ctx, "k", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].PlayerName != "B" || got[0].ElapsedMs != 4000 {
		t.Fatalf("document not round-tripped: %+v", got[0])
	}
}

func TestHighScoreStoreTopByQuizRanksScoreFirst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewHighScoreStore(newClient(mr))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []domain.HighScoreEntry{
		{ID: "fast-low", QuizID: "k", Score: 1, TotalQuestions: 5, ElapsedMs: 100, Accuracy: 20, CreatedAt: base},
		{ID: "slow-high", QuizID: "k", Score: 5, TotalQuestions: 5, ElapsedMs: 90000, Accuracy: 100, CreatedAt: base},
		{ID: "mid", QuizID: "k", Score: 5, TotalQuestions: 5, ElapsedMs: 40000, Accuracy: 100, CreatedAt: base},
	} {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.ID, err)
		}
	}
	got, err := store.TopByQuiz(ctx, "k", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(got) != 2 || got[0].ID != "mid" || got[1].ID != "slow-high" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestHighScoreStoreRejectsDuplicateID(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewHighScoreStore(newClient(mr))
	entry := domain.HighScoreEntry{ID: "a", QuizID: "k", Score: 1, TotalQuestions: 1, ElapsedMs: 10, Accuracy: 100}
	if err := store.Create(context.Background(), entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = store.Create(context.Background(), entry)
	if !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	members, _ := mr.ZMembers("highscores:k")
	if len(members) != 1 {
		t.Fatalf("expected one order member, got %v", members)
	}
	if ranked, _ := mr.ZMembers("highscores:k:rank"); len(ranked) != 1 {
		t.Fatalf("expected one rank member, got %v", ranked)
	}
}

func TestHighScoreStoreUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewHighScoreStore(client)
	err = store.Create(context.Background(), domain.HighScoreEntry{ID: "a", QuizID: "k"})
	if !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
