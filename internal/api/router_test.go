package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/hermes"
	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
)

type published struct {
	subject string
	data    interface{}
}

type mockHermes struct {
	mu     sync.Mutex
	events []published
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{subject: subject, data: data})
	return nil
}
func (m *mockHermes) Subscribe(_ string, _ func(string, []byte)) error { return nil }
func (m *mockHermes) Close()                                           {}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	handler http.Handler
	hermes  *mockHermes
	reg     *prometheus.Registry
	metrics *Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	r, err := roster.Default()
	require.NoError(t, err)
	e, err := scoring.NewEngine(r, config.DefaultScoring(), discardLogger())
	require.NoError(t, err)
	b, err := quiz.Default()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := &mockHermes{}
	// Rate limiting is covered in middleware_test.go.
	cfg := config.ServerConfig{RateLimitRPS: 0}
	return &testServer{
		handler: NewRouter(e, b, h, m, cfg, discardLogger()),
		hermes:  h,
		reg:     reg,
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func choicesBody(n, idx int) string {
	choices := make([]int, n)
	for i := range choices {
		choices[i] = idx
	}
	b, _ := json.Marshal(map[string][]int{"choices": choices})
	return string(b)
}

func TestListQuestionsHidesWeights(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/questions", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotContains(t, w.Body.String(), "traits")
	assert.NotContains(t, w.Body.String(), "boost")

	var resp struct {
		Questions []questionView `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Questions, 15)
	assert.Len(t, resp.Questions[0].Choices, 4)
	assert.True(t, resp.Questions[7].Spotlight)
}

func TestListProfilesHidesHidden(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Version  string        `json:"version"`
		Profiles []profileView `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Profiles, 27)
	for _, p := range resp.Profiles {
		assert.NotEqual(t, "takaba", p.ID)
	}
	assert.NotEmpty(t, resp.Version)
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t)

	t.Run("with links", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/profiles/itadori", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Profile    profileView  `json:"profile"`
			Affinity   *profileView `json:"affinity"`
			Opposition *profileView `json:"opposition"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "itadori", resp.Profile.ID)
		require.NotNil(t, resp.Affinity)
		assert.Equal(t, "todo", resp.Affinity.ID)
		require.NotNil(t, resp.Opposition)
		assert.Equal(t, "mahito", resp.Opposition.ID)
	})

	t.Run("hidden by id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/profiles/takaba", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/profiles/yuta", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMatchWithChoices(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/match", choicesBody(15, 0))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.EvaluationID)
	assert.Equal(t, "itadori", resp.Result.ProfileID)
	assert.Equal(t, 89, resp.Result.ScorePercent)
	assert.Empty(t, resp.Result.Candidates)
	assert.Equal(t, "Special Grade", resp.Tier)
	assert.Equal(t, "Special Grade Sorcerer", resp.TierTitle)
	assert.Equal(t, "Someone grounded, who's calming to be around.", resp.SpotlightAnswer)
	require.NotNil(t, resp.Affinity)
	assert.Equal(t, "todo", resp.Affinity.ID)

	require.Len(t, s.hermes.events, 1)
	assert.Equal(t, hermes.SubjectMatchCompleted(resp.EvaluationID), s.hermes.events[0].subject)
	ev := s.hermes.events[0].data.(hermes.MatchCompletedEvent)
	assert.Equal(t, "itadori", ev.ProfileID)
	assert.Equal(t, "quiz", ev.Source)

	assert.Equal(t, 1.0, counterValue(t, s.metrics.matches.WithLabelValues("itadori")))
	assert.Equal(t, 1.0, counterValue(t, s.metrics.tiers.WithLabelValues("Special Grade")))
}

func TestMatchWithRawAnswers(t *testing.T) {
	s := newTestServer(t)

	t.Run("curse title", func(t *testing.T) {
		body := `{"answers":[{"traits":{"obsession":8,"defiance":7,"isolation":6,"humor":5}}]}`
		w := s.do(t, http.MethodPost, "/api/v1/match", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp matchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		if resp.Profile.Category == roster.CategoryCurse {
			assert.True(t, strings.HasSuffix(resp.TierTitle, " Curse"))
		} else {
			assert.True(t, strings.HasSuffix(resp.TierTitle, " Sorcerer"))
		}
		assert.Empty(t, resp.SpotlightAnswer)
	})

	t.Run("zero answers", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/match", `{"answers":[]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp matchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Grade 4", resp.Tier)
		assert.GreaterOrEqual(t, resp.Result.ScorePercent, 0)
		assert.LessOrEqual(t, resp.Result.ScorePercent, 100)
	})
}

func TestMatchRejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"empty object", `{}`, "invalid_body"},
		{"not json", `nope`, "invalid_body"},
		{"both forms", `{"choices":[0],"answers":[]}`, "invalid_body"},
		{"unknown field", `{"choice":[0]}`, "invalid_body"},
		{"unknown trait", `{"answers":[{"traits":{"charisma":3}}]}`, "invalid_body"},
		{"short sheet", `{"choices":[0,1,2]}`, "incomplete_sheet"},
		{"choice out of range", strings.Replace(choicesBody(15, 0), "[0,", "[7,", 1), "invalid_choice"},
		{"value above max", `{"answers":[{"traits":{"pride":9}}]}`, "invalid_answer"},
		{"unknown boost", `{"answers":[{"traits":{"pride":2},"boost":["yuta"]}]}`, "invalid_answer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, s.metrics.rejected.WithLabelValues(tt.reason))
			w := s.do(t, http.MethodPost, "/api/v1/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Equal(t, before+1, counterValue(t, s.metrics.rejected.WithLabelValues(tt.reason)))
		})
	}
	assert.Empty(t, s.hermes.events)
}

func TestTierEndpoint(t *testing.T) {
	s := newTestServer(t)
	var answers []map[string]interface{}
	for i := 0; i < 15; i++ {
		answers = append(answers, map[string]interface{}{"traits": map[string]float64{"obsession": 8}})
	}
	body, _ := json.Marshal(map[string]interface{}{"answers": answers})

	w := s.do(t, http.MethodPost, "/api/v1/tier", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Tier      string             `json:"tier"`
		Rank      int                `json:"rank"`
		Aggregate map[string]float64 `json:"aggregate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Special Grade", resp.Tier)
	assert.Equal(t, 0, resp.Rank)
	assert.Equal(t, 120.0, resp.Aggregate["obsession"])
	assert.Empty(t, s.hermes.events)

	assert.Equal(t, 1.0, counterValue(t, s.metrics.tierRequests.WithLabelValues("Special Grade")))
	assert.Equal(t, 0.0, counterValue(t, s.metrics.tiers.WithLabelValues("Special Grade")),
		"tier-only requests are not completed evaluations")
}

func TestMatchAndTierCountedSeparately(t *testing.T) {
	s := newTestServer(t)
	body := choicesBody(15, 0)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/match", body).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tier", body).Code)

	assert.Equal(t, 1.0, counterValue(t, s.metrics.tiers.WithLabelValues("Special Grade")))
	assert.Equal(t, 1.0, counterValue(t, s.metrics.tierRequests.WithLabelValues("Special Grade")))
	assert.Equal(t, 1.0, counterValue(t, s.metrics.matches.WithLabelValues("itadori")))
}

func TestExplainEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/scoring/explain", choicesBody(15, 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Match    matchResponse              `json:"match"`
		Verdicts map[string]scoring.Verdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "naoya", resp.Match.Result.ProfileID)
	assert.Len(t, resp.Match.Result.Candidates, 28)
	assert.True(t, resp.Verdicts["naoya"].Eligible)
	assert.False(t, resp.Verdicts["takaba"].Eligible)

	for _, c := range resp.Match.Result.Candidates {
		if c.ProfileID == "takaba" {
			assert.True(t, c.Skipped)
		}
	}
}

func TestExplainIsNotACompletedMatch(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/scoring/explain", choicesBody(15, 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Empty(t, s.hermes.events)
	assert.Equal(t, 0.0, counterValue(t, s.metrics.matches.WithLabelValues("naoya")))
	assert.Equal(t, 0.0, counterValue(t, s.metrics.tiers.WithLabelValues("Special Grade")))

	w = s.do(t, http.MethodPost, "/api/v1/match", choicesBody(15, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.hermes.events, 1)
	assert.Equal(t, 1.0, counterValue(t, s.metrics.matches.WithLabelValues("naoya")))
}

func TestMetricsRouter(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/match", choicesBody(15, 0))

	router := NewMetricsRouter(s.reg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `kindred_matches_total{profile="itadori"} 1`)
	assert.Contains(t, w.Body.String(), "kindred_match_score_percent_bucket")
}

func TestOversizedBody(t *testing.T) {
	s := newTestServer(t)
	big := `{"answers":[` + strings.Repeat(`{"traits":{"pride":1}},`, 5000) + `{}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", bytes.NewBufferString(big))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
