package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
	"knotquiz/internal/infra/memory"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router     *gin.Engine
	sessions   *app.SessionService
	highScores *memory.HighScoreStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shuffler := app.NewShuffler(false, nil)
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	quizzes := app.NewQuizService(quizRepo, shuffler, app.DefaultOptionsPerQuestion, nil)
	store := memory.NewHighScoreStore()
	highScores := app.NewHighScoreService(store, app.DefaultGlobalCapacity, nil)
	sessions := app.NewSessionService(memory.NewSessionStore(), quizzes, highScores, app.NewNotifier(), shuffler, app.DefaultOptionsPerQuestion, nil)

	router := NewRouter(RouterConfig{
		Quizzes:    quizzes,
		HighScores: highScores,
		Sessions:   sessions,
		Tick:       5 * time.Millisecond,
	})
	return testEnv{router: router, sessions: sessions, highScores: store}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"knots-1": {
			ID:   "knots-1",
			Name: "Basic knots",
			Questions: []domain.Question{
				{ID: "q1", Prompt: "Which knot forms a fixed loop?", Kind: domain.KindSingle, Answer: []string{"Bowline"}},
				{ID: "q2", Prompt: "Which knot joins two ropes?", Kind: domain.KindSingle, Answer: []string{"Sheet bend"}},
				{ID: "q3", Prompt: "Which hitch binds to a post?", Kind: domain.KindSingle, Answer: []string{"Clove hitch"}},
				{ID: "q4", Prompt: "Which knot is a stopper?", Kind: domain.KindSingle, Answer: []string{"Figure eight"}},
			},
		},
		"splices": {
			ID:        "splices",
			Name:      "Splices",
			Questions: []domain.Question{{ID: "s1", Prompt: "Eye splice?", Kind: domain.KindSingle, Answer: []string{"Yes"}}},
		},
	}
}

