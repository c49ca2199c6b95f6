package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
	"knotquiz/internal/infra/memory"
)

type recordingPublisher struct {
	entries []domain.HighScoreEntry
	err     error
}

func (p *recordingPublisher) PublishHighScore(_ context.Context, entry domain.HighScoreEntry) error {
	p.entries = append(p.entries, entry)
	return p.err
}

func TestNewEntryValidation(t *testing.T) {
	svc := app.NewHighScoreService(memory.NewHighScoreStore(), 0, nil)
	run := domain.Run{Score: 3, TimeMs: 4200}

	entry, err := svc.NewEntry("knots-1", "  Ana ", run, 5)
	if err != nil {
		t.Fatalf("new entry: %v", err)
	}
	if entry.PlayerName != "Ana" || entry.Accuracy != 60 || entry.ID == "" || entry.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, err := svc.NewEntry("knots-1", strings.Repeat("x", app.MaxPlayerNameLength), run, 5); err != nil {
		t.Fatalf("expected 50 characters accepted, got %v", err)
	}
	for name, tc := range map[string]struct {
		quiz, player string
		run          domain.Run
		total        int
	}{
		"empty name":    {"knots-1", "  ", run, 5},
		"long name":     {"knots-1", strings.Repeat("x", app.MaxPlayerNameLength+1), run, 5},
		"missing quiz":  {"", "Ana", run, 5},
		"no questions":  {"knots-1", "Ana", domain.Run{}, 0},
		"score > total": {"knots-1", "Ana", domain.Run{Score: 6}, 5},
		"negative time": {"knots-1", "Ana", domain.Run{Score: 1, TimeMs: -1}, 5},
	} {
		if _, err := svc.NewEntry(tc.quiz, tc.player, tc.run, tc.total); !domain.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestAccuracyRounds(t *testing.T) {
	if got := app.Accuracy(2, 3); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := app.Accuracy(0, 0); got != 0 {
		t.Fatalf("expected 0 for no questions, got %d", got)
	}
}

func TestSubmitPersistsAndPublishes(t *testing.T) {
	store := memory.NewHighScoreStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := app.NewHighScoreService(store, 0, nil).WithPublisher(pub)

	entry, _ := svc.NewEntry("knots-1", "Ana", domain.Run{Score: 4, TimeMs: 1000}, 5)
	id, err := svc.Submit(context.Background(), entry)
	if err != nil {
		t.Fatalf("publish failures must not fail submission: %v", err)
	}
	if id != entry.ID || len(pub.entries) != 1 {
		t.Fatalf("expected entry published once, got id=%s published=%d", id, len(pub.entries))
	}
	board, err := svc.Leaderboard(context.Background(), "knots-1")
	if err != nil || len(board) != 1 || board[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v err=%v", board, err)
	}
}

func TestSubmitOutageIsPersistenceError(t *testing.T) {
	store := memory.NewHighScoreStore()
	store.SetOffline(true)
	svc := app.NewHighScoreService(store, 0, nil)

	entry, _ := svc.NewEntry("knots-1", "Ana", domain.Run{Score: 4, TimeMs: 1000}, 5)
	if _, err := svc.Submit(context.Background(), entry); !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := svc.GlobalRank(context.Background(), "knots-1", entry.Run()); !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error on query, got %v", err)
	}

	store.SetOffline(false)
	if _, err := svc.Submit(context.Background(), entry); err != nil {
		t.Fatalf("manual retry should succeed: %v", err)
	}
}

func TestGlobalRankUsesComparator(t *testing.T) {
	store := memory.NewHighScoreStore()
	svc := app.NewHighScoreService(store, 0, nil)
	ctx := context.Background()
	for _, run := range []domain.Run{{Score: 8, TimeMs: 5000}, {Score: 7, TimeMs: 3000}} {
		e, _ := svc.NewEntry("knots-1", "p", run, 10)
		if _, err := svc.Submit(ctx, e); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	rank, err := svc.GlobalRank(ctx, "knots-1", domain.Run{Score: 8, TimeMs: 4000})
	if err != nil || rank.Rank != 1 {
		t.Fatalf("expected rank 1, got %+v err=%v", rank, err)
	}
	rank, _ = svc.GlobalRank(ctx, "knots-1", domain.Run{Score: 6, TimeMs: 1000})
	if rank.Rank != 3 {
		t.Fatalf("expected rank 3, got %+v", rank)
	}
}

func TestGlobalRankSeesSlowHighScoresBeyondCapacity(t *testing.T) {
	store := memory.NewHighScoreStore()
	svc := app.NewHighScoreService(store, 0, nil)
	ctx := context.Background()
	submit := func(run domain.Run) {
		t.Helper()
		e, err := svc.NewEntry("knots-1", "p", run, 10)
		if err != nil {
			t.Fatalf("new entry: %v", err)
		}
		if _, err := svc.Submit(ctx, e); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	for i := 1; i <= app.DefaultGlobalCapacity; i++ {
		submit(domain.Run{Score: 1, TimeMs: int64(i)})
	}
	submit(domain.Run{Score: 10, TimeMs: 99999})

	rank, err := svc.GlobalRank(ctx, "knots-1", domain.Run{Score: 5, TimeMs: 5000})
	if err != nil {
		t.Fatalf("global rank: %v", err)
	}
	if rank.Rank != 2 || !rank.Eligible {
		t.Fatalf("expected rank 2, got %+v", rank)
	}

	board, err := svc.Leaderboard(ctx, "knots-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != app.DefaultGlobalCapacity || board[0].Score != 10 {
		t.Fatalf("expected the top score first on a full board, got %d entries led by %+v", len(board), board[0])
	}
}

func TestGlobalRankIneligibleWhenCapacityOutranks(t *testing.T) {
	svc := app.NewHighScoreService(memory.NewHighScoreStore(), 3, nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		e, _ := svc.NewEntry("knots-1", "p", domain.Run{Score: 9, TimeMs: 100000}, 10)
		if _, err := svc.Submit(ctx, e); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	rank, err := svc.GlobalRank(ctx, "knots-1", domain.Run{Score: 2, TimeMs: 10})
	if err != nil {
		t.Fatalf("global rank: %v", err)
	}
	if rank.Eligible {
		t.Fatalf("expected no rank behind a full board, got %+v", rank)
	}
}
