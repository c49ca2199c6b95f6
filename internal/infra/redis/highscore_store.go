package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
	"knotquiz/internal/infra/memory"

	"github.com/redis/go-redis/v9"
)

// HighScoreStore keeps high scores in Redis.
// Entries are stored as:  HSET highscores:{quizID}:entries {id} {json}
// Order is kept in:       ZADD highscores:{quizID} {elapsedMs*101 + (100-accuracy)} {id}
// Rank is kept in:        ZADD highscores:{quizID}:rank {-score*1e13 + elapsedMs} {id}
type HighScoreStore struct {
	client *redis.Client
}

func NewHighScoreStore(client *redis.Client) *HighScoreStore {
	return &HighScoreStore{client: client}
}

// createScript inserts the document and its order member together, refusing
// an id that already exists.
var createScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return 0
end
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[1])
return 1
`)

// Create writes every key in one script so a failed write leaves nothing behind.
func (s *HighScoreStore) Create(ctx context.Context, entry domain.HighScoreEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal high score: %w", err)
	}
	keys := []string{s.entriesKey(entry.QuizID), s.orderKey(entry.QuizID), s.rankKey(entry.QuizID)}
	order := strconv.FormatFloat(orderScore(entry), 'f', -1, 64)
	rank := strconv.FormatFloat(rankScore(entry), 'f', -1, 64)
	added, err := createScript.Run(ctx, s.client, keys, entry.ID, string(data), order, rank).Int()
	if err != nil {
		return &domain.PersistenceError{Op: "create high score", Err: err}
	}
	if added == 0 {
		return &domain.PersistenceError{Op: "create high score", Err: fmt.Errorf("id %s already exists", entry.ID)}
	}
	return nil
}

// ListByQuiz reads the first limit ids in order and resolves their documents.
func (s *HighScoreStore) ListByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	out, err := s.read(ctx, quizID, s.orderKey(quizID), limit)
	if err != nil {
		return nil, err
	}
	// members sharing an order score come back by id; settle ties by recency
	memory.SortForQuery(out)
	return out, nil
}

// TopByQuiz reads the best limit runs from the rank set.
func (s *HighScoreStore) TopByQuiz(ctx context.Context, quizID string, limit int) ([]domain.HighScoreEntry, error) {
	out, err := s.read(ctx, quizID, s.rankKey(quizID), limit)
	if err != nil {
		return nil, err
	}
	app.SortEntries(out)
	return out, nil
}

func (s *HighScoreStore) read(ctx context.Context, quizID, key string, limit int) ([]domain.HighScoreEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list high scores", Err: err}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := s.client.HMGet(ctx, s.entriesKey(quizID), ids...).Result()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list high scores", Err: err}
	}

	out := make([]domain.HighScoreEntry, 0, len(docs))
	for _, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			continue
		}
		var entry domain.HighScoreEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal high score: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func orderScore(entry domain.HighScoreEntry) float64 {
	return float64(entry.ElapsedMs)*101 + float64(100-entry.Accuracy)
}

// rankScore sorts ascending as score descending then time ascending. Exact
// while elapsed stays under 1e13 ms and score under 900.
func rankScore(entry domain.HighScoreEntry) float64 {
	return -float64(entry.Score)*1e13 + float64(entry.ElapsedMs)
}

func (s *HighScoreStore) entriesKey(quizID string) string {
	return "highscores:" + quizID + ":entries"
}

func (s *HighScoreStore) orderKey(quizID string) string {
	return "highscores:" + quizID
}

func (s *HighScoreStore) rankKey(quizID string) string {
	return "highscores:" + quizID + ":rank"
}
