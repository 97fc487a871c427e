// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 通知パイプラインやワーカーから利用する。
type MetricsCollector interface {
	RecordDispatchSuccess()
	RecordDispatchFailure()
	RecordDispatchLatency(duration time.Duration)
	RecordMentionsResolved(count int)
	RecordSubscriptionUpserted()
	RecordNotificationsDeleted(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	dispatchSuccess      prometheus.Counter
	dispatchFail         prometheus.Counter
	dispatchLatency      prometheus.Histogram
	mentionsResolved     prometheus.Counter
	subscriptionUpserts  prometheus.Counter
	notificationsDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizman_notify_dispatch_success_total",
			Help: "通知配送成功の合計数",
		}),
		dispatchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizman_notify_dispatch_fail_total",
			Help: "通知配送失敗の合計数",
		}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizman_notify_dispatch_latency_seconds",
			Help:    "通知バッチ配送のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		mentionsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizman_mentions_resolved_total",
			Help: "解決されたメンションの合計数",
		}),
		subscriptionUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizman_thread_subscription_upserts_total",
			Help: "スレッド購読登録の合計数",
		}),
		notificationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizman_notifications_deleted_total",
			Help: "保持期限切れで削除された通知の合計数",
		}),
	}

	reg.MustRegister(
		c.dispatchSuccess,
		c.dispatchFail,
		c.dispatchLatency,
		c.mentionsResolved,
		c.subscriptionUpserts,
		c.notificationsDeleted,
	)

	return c
}

// RecordDispatchSuccess は通知配送成功を記録する。
func (c *Collector) RecordDispatchSuccess() {
	c.dispatchSuccess.Inc()
}

// RecordDispatchFailure は通知配送失敗を記録する。
func (c *Collector) RecordDispatchFailure() {
	c.dispatchFail.Inc()
}

// RecordDispatchLatency は通知バッチ配送のレイテンシを記録する。
func (c *Collector) RecordDispatchLatency(duration time.Duration) {
	c.dispatchLatency.Observe(duration.Seconds())
}

// RecordMentionsResolved は解決されたメンション数を記録する。
func (c *Collector) RecordMentionsResolved(count int) {
	c.mentionsResolved.Add(float64(count))
}

// RecordSubscriptionUpserted はスレッド購読登録を記録する。
func (c *Collector) RecordSubscriptionUpserted() {
	c.subscriptionUpserts.Inc()
}

// RecordNotificationsDeleted は削除された通知数を記録する。
func (c *Collector) RecordNotificationsDeleted(count int64) {
	c.notificationsDeleted.Add(float64(count))
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
