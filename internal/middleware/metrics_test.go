package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- モック ---

type stubCollector struct {
	statuses  []int
	latencies []time.Duration
}

func (s *stubCollector) RecordHTTPStatus(statusCode int) { s.statuses = append(s.statuses, statusCode) }
func (s *stubCollector) RecordRequestLatency(duration time.Duration) {
	s.latencies = append(s.latencies, duration)
}
func (s *stubCollector) RecordLoginSuccess() {}
func (s *stubCollector) RecordLoginFailure() {}
func (s *stubCollector) RecordFederatedVerification(_ bool) {}
func (s *stubCollector) RecordAttemptStarted() {}
func (s *stubCollector) RecordAnswerSubmitted() {}

// --- テスト ---

// TestMetricsMiddleware はステータスコードとレイテンシが記録されることを検証する。
func TestMetricsMiddleware(t *testing.T) {
	collector := &stubCollector{}

	handler := NewMetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/quizzes/unknown", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if len(collector.statuses) != 1 || collector.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", collector.statuses)
	}
	if len(collector.latencies) != 1 || collector.latencies[0] < 0 {
		t.Errorf("latencies = %v, want one non-negative entry", collector.latencies)
	}
}
