package app

import (
	"sort"

	"knotquiz/internal/domain"
)

const (
	// DefaultLocalCapacity bounds the per-player leaderboard.
	DefaultLocalCapacity = 5
	// DefaultGlobalCapacity bounds the shared leaderboard.
	DefaultGlobalCapacity = 100
)

// RankResult is the position a run earns on a leaderboard. Version is the
// session version the lookup was made for.
type RankResult struct {
	Rank     int  `json:"rank"`
	Eligible bool `json:"eligible"`
	Version  int  `json:"version,omitempty"`
}

// Outranks reports whether a ranks strictly better than b: higher score
// first, then lower time.
func Outranks(a, b domain.Run) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TimeMs < b.TimeMs
}

// Rank returns the 1-based insertion rank of candidate among existing. The
// rank is the number of entries strictly outranking the candidate plus one;
// it is eligible only when it fits within capacity.
func Rank(candidate domain.Run, existing []domain.Run, capacity int) RankResult {
	better := 0
	for _, run := range existing {
		if Outranks(run, candidate) {
			better++
		}
	}
	rank := better + 1
	if capacity > 0 && rank > capacity {
		return RankResult{}
	}
	return RankResult{Rank: rank, Eligible: true}
}

// RankEntries is Rank over stored high scores.
func RankEntries(candidate domain.Run, entries []domain.HighScoreEntry, capacity int) RankResult {
	runs := make([]domain.Run, len(entries))
	for i, e := range entries {
		runs[i] = e.Run()
	}
	return Rank(candidate, runs, capacity)
}

// RankedEntry is a high score with its display position.
type RankedEntry struct {
	Rank int `json:"rank"`
	domain.HighScoreEntry
}

// SortEntries orders entries best first. Entries with identical runs keep
// the newest first, matching where Rank places a new tie.
func SortEntries(entries []domain.HighScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Run(), entries[j].Run()
		if Outranks(a, b) {
			return true
		}
		if Outranks(b, a) {
			return false
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Standings sorts entries and numbers them, keeping at most capacity.
func Standings(entries []domain.HighScoreEntry, capacity int) []RankedEntry {
	sorted := append([]domain.HighScoreEntry(nil), entries...)
	SortEntries(sorted)
	if capacity > 0 && len(sorted) > capacity {
		sorted = sorted[:capacity]
	}
	out := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		out[i] = RankedEntry{Rank: i + 1, HighScoreEntry: e}
	}
	return out
}
