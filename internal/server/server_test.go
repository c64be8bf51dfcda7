package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/service"
)

type fixedReadiness bool

func (f fixedReadiness) IsReady() bool { return bool(f) }

const raceBody = `{
	"race": {
		"race_id": "SAR-5",
		"horses": [
			{"program_number": 1, "horse_name": "Aurora Gold", "base_score": 250, "morning_line_odds": "2-1"},
			{"program_number": 2, "horse_name": "Brisk Tempo", "base_score": 220, "morning_line_odds": "3-1"},
			{"program_number": 3, "horse_name": "Copper Mane", "base_score": 190, "morning_line_odds": "4-1"},
			{"program_number": 4, "horse_name": "Dusty Lane", "base_score": 160, "morning_line_odds": "5-1"}
		]
	},
	"bankroll": 500
}`

func newTestServer(t *testing.T, rps float64, burst int) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	evaluator, err := service.NewRaceEvaluatorFromConfig(config.Default(), nil, log)
	require.NoError(t, err)

	return NewServer(Config{
		ServiceName:       "handicapper",
		MetricsPath:       "/metrics",
		RequestsPerSecond: rps,
		Burst:             burst,
		Logger:            log,
		Evaluator:         evaluator,
		Calibration:       fixedReadiness(false),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 0, 0)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint(t *testing.T) {
	s := newTestServer(t, 0, 0)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = do(t, h, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "uncalibrated", resp.Checks["calibration"])
}

func TestEvaluateEndpoint(t *testing.T) {
	h := newTestServer(t, 0, 0).Handler()

	rec := do(t, h, http.MethodPost, "/v1/evaluate", raceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var eval service.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, "SAR-5", eval.Race)
	assert.Len(t, eval.Overlay.Horses, 4)
	assert.Equal(t, 4, eval.Recommendations.FieldSize)
	assert.LessOrEqual(t, eval.Recommendations.TotalExposure, 100.0)
}

func TestEvaluateEndpointErrors(t *testing.T) {
	h := newTestServer(t, 0, 0).Handler()

	rec := do(t, h, http.MethodGet, "/v1/evaluate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/evaluate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/evaluate", `{"bankroll": 500, "unknown": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/evaluate", `{"bankroll": 500}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	dup := `{"race": {"horses": [
		{"program_number": 1, "horse_name": "A", "base_score": 100, "morning_line_odds": "2-1"},
		{"program_number": 1, "horse_name": "B", "base_score": 90, "morning_line_odds": "3-1"}
	]}, "bankroll": 100}`
	rec = do(t, h, http.MethodPost, "/v1/evaluate", dup)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEvaluateBatchEndpoint(t *testing.T) {
	h := newTestServer(t, 0, 0).Handler()

	body := `{"races": [` + raceBody + `, {"race": {"race_id": "empty"}, "bankroll": 100}, {"bankroll": 5}]}`

	rec := do(t, h, http.MethodPost, "/v1/evaluate/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.NotNil(t, resp.Results[0].Evaluation)
	assert.True(t, resp.Results[1].Evaluation.Recommendations.PassSuggested)
	assert.NotEmpty(t, resp.Results[2].Error)
}

func TestEvaluateRateLimited(t *testing.T) {
	h := newTestServer(t, 0.001, 1).Handler()

	rec := do(t, h, http.MethodPost, "/v1/evaluate", raceBody)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/evaluate", raceBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health checks are not rate limited")
}

func TestMetricsAndStatsEndpoints(t *testing.T) {
	h := newTestServer(t, 0, 0).Handler()
	do(t, h, http.MethodPost, "/v1/evaluate", raceBody)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "handicapper_pipeline_evaluations_total")

	rec = do(t, h, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestStartShutsDownOnContextCancel(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := NewServer(Config{
		ServiceName: "handicapper",
		Addr:        "127.0.0.1:0",
		Logger:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Evaluation server shutting down" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// Give the shutdown goroutine time to report a failure.
	time.Sleep(50 * time.Millisecond)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, e.Message)
	}
}
