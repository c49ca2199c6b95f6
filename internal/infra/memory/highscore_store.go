package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
)

// ErrStoreUnavailable is returned by a HighScoreStore switched offline.
var ErrStoreUnavailable = errors.New("high score store unavailable")

// HighScoreStore keeps high scores in process memory.
type HighScoreStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.HighScoreEntry
	ids     map[string]struct{}
	offline bool
}

func NewHighScoreStore() *HighScoreStore {
	return &HighScoreStore{
		entries: make(map[string][]domain.HighScoreEntry),
		ids:     make(map[string]struct{}),
	}
}

// SetOffline makes every call fail, simulating an unreachable store.
func (s *HighScoreStore) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *HighScoreStore) Create(_ context.Context, entry domain.HighScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrStoreUnavailable
	}
	if _, dup := s.ids[entry.ID]; dup {
		return errors.New("high score " + entry.ID + " already exists")
	}
	s.ids[entry.ID] = struct{}{}
	s.entries[entry.QuizID] = append(s.entries[entry.QuizID], entry)
	return nil
}

func (s *HighScoreStore) ListByQuiz(_ context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ErrStoreUnavailable
	}
	out := append([]domain.HighScoreEntry(nil), s.entries[quizID]...)
	SortForQuery(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *HighScoreStore) TopByQuiz(_ context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, ErrStoreUnavailable
	}
	out := append([]domain.HighScoreEntry(nil), s.entries[quizID]...)
	app.SortEntries(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SortForQuery applies the store query order: time ascending, then accuracy
// and score descending, then newest first.
func SortForQuery(entries []domain.HighScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ElapsedMs != b.ElapsedMs {
			return a.ElapsedMs < b.ElapsedMs
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
