package http

import (
	"net/http"
	"strings"
	"testing"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"
)

func TestListQuizzes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/quizzes", nil)
	expectStatus(t, rec, http.StatusOK)

	got := decode[[]domain.QuizSummary](t, rec)
	if len(got) != 2 || got[0].QuizID != "knots-1" || got[0].QuestionCount != 4 {
		t.Fatalf("unexpected catalog: %+v", got)
	}
	if got[0].QuizName != "Basic knots" {
		t.Fatalf("unexpected name %q", got[0].QuizName)
	}
}

func TestGetQuizGeneratesOptions(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/quizzes/knots-1", nil)
	expectStatus(t, rec, http.StatusOK)

	quiz := decode[app.PlayableQuiz](t, rec)
	if len(quiz.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(quiz.Questions))
	}
	for _, q := range quiz.Questions {
		if len(q.Options) != 4 {
			t.Fatalf("expected 4 options for %s, got %v", q.ID, q.Options)
		}
		found := 0
		for _, o := range q.Options {
			if o == q.Answer[0] {
				found++
			}
		}
		if found != 1 {
			t.Fatalf("expected correct answer once in %v", q.Options)
		}
	}
}

func TestGetQuizNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/quizzes/nope", nil)
	expectStatus(t, rec, http.StatusNotFound)
	body := decode[errorBody](t, rec)
	if body.Error != "Not Found" || body.Message == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestSubmitHighScoreAndList(t *testing.T) {
	env := newTestEnv(t)

	for _, sub := range []map[string]any{
		{"quizId": "knots-1", "playerName": "  Ana  ", "score": 3, "totalQuestions": 4, "elapsedMs": 9000},
		{"quizId": "knots-1", "playerName": "Ben", "score": 4, "totalQuestions": 4, "elapsedMs": 12000},
	} {
		rec := env.do(t, http.MethodPost, "/api/high-scores", sub)
		expectStatus(t, rec, http.StatusCreated)
		resp := decode[submitResponse](t, rec)
		if !resp.Success || resp.ID == "" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/high-scores/knots-1", nil)
	expectStatus(t, rec, http.StatusOK)
	standings := decode[[]app.RankedEntry](t, rec)
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].PlayerName != "Ben" || standings[0].Rank != 1 {
		t.Fatalf("expected Ben first, got %+v", standings[0])
	}
	if standings[1].PlayerName != "Ana" || standings[1].Accuracy != 75 {
		t.Fatalf("expected trimmed Ana with 75%% accuracy, got %+v", standings[1])
	}

	rec = env.do(t, http.MethodGet, "/api/high-scores/knots-1?order=time", nil)
	expectStatus(t, rec, http.StatusOK)
	fastest := decode[[]domain.HighScoreEntry](t, rec)
	if len(fastest) != 2 || fastest[0].PlayerName != "Ana" {
		t.Fatalf("expected Ana first by time, got %+v", fastest)
	}

	rec = env.do(t, http.MethodGet, "/api/high-scores/knots-1/rank?score=4&timeMs=11000", nil)
	expectStatus(t, rec, http.StatusOK)
	rank := decode[app.RankResult](t, rec)
	if rank.Rank != 1 || !rank.Eligible {
		t.Fatalf("expected rank 1, got %+v", rank)
	}
}

func TestSubmitHighScoreValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []map[string]any{
		{"quizId": "knots-1", "playerName": "   ", "score": 1, "totalQuestions": 4, "elapsedMs": 10},
		{"quizId": "knots-1", "playerName": strings.Repeat("a", 51), "score": 1, "totalQuestions": 4, "elapsedMs": 10},
		{"quizId": "knots-1", "playerName": "Ana", "totalQuestions": 4, "elapsedMs": 10},
		{"quizId": "knots-1", "playerName": "Ana", "score": 5, "totalQuestions": 4, "elapsedMs": 10},
	}
	for i, sub := range cases {
		rec := env.do(t, http.MethodPost, "/api/high-scores", sub)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := env.do(t, http.MethodGet, "/api/high-scores/knots-1", nil)
	if got := decode[[]app.RankedEntry](t, rec); len(got) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(got))
	}
}

func TestSubmitHighScorePersistenceFailure(t *testing.T) {
	env := newTestEnv(t)
	env.highScores.SetOffline(true)

	rec := env.do(t, http.MethodPost, "/api/high-scores", map[string]any{
		"quizId": "knots-1", "playerName": "Ana", "score": 1, "totalQuestions": 4, "elapsedMs": 10,
	})
	expectStatus(t, rec, http.StatusInternalServerError)
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions", map[string]any{"quizId": "knots-1"})
	expectStatus(t, rec, http.StatusCreated)
	view := decode[app.SessionView](t, rec)
	if view.State != app.StateInProgress || view.Current == nil || view.Total != 4 {
		t.Fatalf("unexpected start view: %+v", view)
	}
	base := "/api/sessions/" + view.ID

	rec = env.do(t, http.MethodPost, base+"/advance", nil)
	expectStatus(t, rec, http.StatusConflict)

	answers := []string{"Bowline", "Wrong", "Clove hitch", "Figure eight"}
	for _, a := range answers {
		rec = env.do(t, http.MethodPost, base+"/answer", map[string]any{"answer": []string{a}})
		expectStatus(t, rec, http.StatusOK)
		rec = env.do(t, http.MethodPost, base+"/answer", map[string]any{"answer": []string{a}})
		expectStatus(t, rec, http.StatusConflict)
		rec = env.do(t, http.MethodPost, base+"/advance", nil)
		expectStatus(t, rec, http.StatusOK)
	}
	view = decode[advanceResponse](t, rec).Session
	if !view.Completed || view.Score != 3 || len(view.Answers) != 4 {
		t.Fatalf("unexpected final view: %+v", view)
	}

	rec = env.do(t, http.MethodPost, base+"/high-score", map[string]any{"playerName": "Ana"})
	expectStatus(t, rec, http.StatusCreated)
	first := decode[submitResponse](t, rec)

	rec = env.do(t, http.MethodPost, base+"/high-score", map[string]any{"playerName": "Ana"})
	expectStatus(t, rec, http.StatusCreated)
	if again := decode[submitResponse](t, rec); again.ID != first.ID {
		t.Fatalf("expected resubmission to return %s, got %s", first.ID, again.ID)
	}

	rec = env.do(t, http.MethodPost, base+"/retake", nil)
	expectStatus(t, rec, http.StatusOK)
	view = decode[app.SessionView](t, rec)
	if view.Score != 0 || view.Completed || view.Version != 2 || view.HighScoreID != "" {
		t.Fatalf("expected fresh attempt, got %+v", view)
	}

	rec = env.do(t, http.MethodDelete, base, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = env.do(t, http.MethodGet, base, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSessionPauseRejectedWhileFeedbackShown(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/sessions", map[string]any{"quizId": "knots-1"})
	view := decode[app.SessionView](t, rec)
	base := "/api/sessions/" + view.ID

	expectStatus(t, env.do(t, http.MethodPost, base+"/pause", nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, base+"/pause", nil), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPost, base+"/resume", nil), http.StatusOK)

	expectStatus(t, env.do(t, http.MethodPost, base+"/answer", map[string]any{"answer": []string{"Bowline"}}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, base+"/pause", nil), http.StatusConflict)
}

func TestHighScoreRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.router = NewRouter(RouterConfig{
		Quizzes:    nil,
		HighScores: app.NewHighScoreService(env.highScores, app.DefaultGlobalCapacity, nil),
		RateLimit:  2,
	})
	sub := map[string]any{"quizId": "knots-1", "playerName": "Ana", "score": 1, "totalQuestions": 4, "elapsedMs": 10}
	expectStatus(t, env.do(t, http.MethodPost, "/api/high-scores", sub), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/api/high-scores", sub), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/api/high-scores", sub), http.StatusTooManyRequests)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
