// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordFederatedVerification(success bool)
	RecordAttemptStarted()
	RecordAnswerSubmitted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	loginSuccess     prometheus.Counter
	loginFail        prometheus.Counter
	federatedVerify  *prometheus.CounterVec
	attemptsStarted  prometheus.Counter
	answersSubmitted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testeam_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "testeam_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testeam_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testeam_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		federatedVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testeam_federated_verification_total",
			Help: "Auth0トークン検証の結果別合計数",
		}, []string{"result"}),
		attemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testeam_attempts_started_total",
			Help: "開始された受験の合計数",
		}),
		answersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testeam_answers_submitted_total",
			Help: "提出された回答の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.loginSuccess,
		c.loginFail,
		c.federatedVerify,
		c.attemptsStarted,
		c.answersSubmitted,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordFederatedVerification はAuth0トークン検証の結果を記録する。
func (c *Collector) RecordFederatedVerification(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.federatedVerify.WithLabelValues(result).Inc()
}

// RecordAttemptStarted は受験開始を記録する。
func (c *Collector) RecordAttemptStarted() {
	c.attemptsStarted.Inc()
}

// RecordAnswerSubmitted は回答提出を記録する。
func (c *Collector) RecordAnswerSubmitted() {
	c.answersSubmitted.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
