package app_test

import (
	"math/rand"
	"testing"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
)

func countOf(values []string, target string) int {
	n := 0
	for _, v := range values {
		if v == target {
			n++
		}
	}
	return n
}

func assertUnique(t *testing.T, values []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, v := range values {
		if seen[v] {
			t.Fatalf("duplicate option %q in %v", v, values)
		}
		seen[v] = true
	}
}

func TestGenerateOptionsFourUniqueWithCorrectOnce(t *testing.T) {
	s := app.NewShuffler(true, rand.New(rand.NewSource(42)))
	all := []string{"Bowline", "Sheet bend", "Clove hitch", "Figure eight", "Bowline", "Reef knot", "Sheet bend"}
	for i := 0; i < 50; i++ {
		opts := app.GenerateOptions(s, "Bowline", all, 4)
		if len(opts) != 4 {
			t.Fatalf("expected 4 options, got %v", opts)
		}
		assertUnique(t, opts)
		if countOf(opts, "Bowline") != 1 {
			t.Fatalf("expected correct once, got %v", opts)
		}
	}
}

func TestGenerateOptionsFewDistractors(t *testing.T) {
	s := app.NewShuffler(true, rand.New(rand.NewSource(3)))
	opts := app.GenerateOptions(s, "Bowline", []string{"Bowline", "Reef knot", "Reef knot"}, 4)
	if len(opts) != 2 || countOf(opts, "Bowline") != 1 || countOf(opts, "Reef knot") != 1 {
		t.Fatalf("expected both available values, got %v", opts)
	}
}

func TestCustomPoolOptionsCaseInsensitive(t *testing.T) {
	s := app.NewShuffler(false, nil)
	opts := app.CustomPoolOptions(s, "bowline", []string{"Bowline", "Reef knot"})
	if len(opts) != 2 {
		t.Fatalf("expected pool unchanged when correct matches case-insensitively, got %v", opts)
	}
	opts = app.CustomPoolOptions(s, "Half hitch", []string{"Bowline", "Reef knot"})
	if len(opts) != 3 || countOf(opts, "Half hitch") != 1 {
		t.Fatalf("expected correct appended, got %v", opts)
	}
}

func TestPoolOptionsDropDuplicateEntries(t *testing.T) {
	s := app.NewShuffler(false, nil)
	opts := app.CustomPoolOptions(s, "Bowline", []string{"Bowline", "Reef knot", "Reef knot", "Bowline"})
	assertUnique(t, opts)
	if len(opts) != 2 {
		t.Fatalf("expected two distinct options, got %v", opts)
	}

	q := domain.Question{ID: "m", Kind: domain.KindMulti, Answer: []string{"Bowline"}, Pool: []string{"Clove hitch", "Clove hitch", "Bowline"}}
	opts = app.OptionsFor(s, q, nil, 4)
	assertUnique(t, opts)
	if len(opts) != 2 || countOf(opts, "Bowline") != 1 {
		t.Fatalf("expected the multi pool deduplicated, got %v", opts)
	}
}

func TestOptionsForMulti(t *testing.T) {
	s := app.NewShuffler(true, rand.New(rand.NewSource(9)))
	q := domain.Question{ID: "m", Kind: domain.KindMulti, Answer: []string{"Bowline", "Figure eight"}}
	all := []string{"Bowline", "Figure eight", "Clove hitch", "Sheet bend", "Reef knot"}
	opts := app.OptionsFor(s, q, all, 4)
	if len(opts) != 4 {
		t.Fatalf("expected 4 options, got %v", opts)
	}
	assertUnique(t, opts)
	for _, a := range q.Answer {
		if countOf(opts, a) != 1 {
			t.Fatalf("expected %q once in %v", a, opts)
		}
	}
}

func TestOptionsForMatching(t *testing.T) {
	s := app.NewShuffler(true, rand.New(rand.NewSource(5)))
	q := domain.Question{
		ID:   "match",
		Kind: domain.KindMatching,
		Pairs: []domain.MatchPair{
			{Left: "Clove hitch", Right: "Post"},
			{Left: "Sheet bend", Right: "Two ropes"},
		},
		Pool: []string{"Post", "Stopper"},
	}
	opts := app.OptionsFor(s, q, nil, 4)
	if len(opts) != 3 {
		t.Fatalf("expected rights plus one extra, got %v", opts)
	}
	for _, want := range []string{"Post", "Two ropes", "Stopper"} {
		if countOf(opts, want) != 1 {
			t.Fatalf("expected %q once in %v", want, opts)
		}
	}
}

func TestAnswerPoolSkipsMatching(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{
		{Kind: domain.KindSingle, Answer: []string{"Bowline"}},
		{Kind: domain.KindMulti, Answer: []string{"A", "B"}},
		{Kind: domain.KindMatching, Pairs: []domain.MatchPair{{Left: "L", Right: "R"}}},
	}}
	pool := app.AnswerPool(quiz)
	if len(pool) != 3 || countOf(pool, "R") != 0 {
		t.Fatalf("unexpected pool %v", pool)
	}
}
