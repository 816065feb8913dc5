package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"fliqk/internal/db"
)

const collectTimeout = 5 * time.Second

var (
	postsDesc = prometheus.NewDesc(
		"fliqk_posts",
		"Number of stored posts by type and status",
		[]string{"post_type", "status"},
		nil,
	)
	usersDesc = prometheus.NewDesc(
		"fliqk_users",
		"Number of registered users",
		nil,
		nil,
	)

	analyzeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fliqk_analyze_requests_total",
		Help: "URL analysis requests by outcome",
	}, []string{"outcome"})

	shares = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fliqk_shares_total",
		Help: "Shared posts by platform",
	}, []string{"platform"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fliqk_uploads_total",
		Help: "Accepted media uploads by kind",
	}, []string{"kind"})
)

// Analyze outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeDomainNotFound = "domain_not_found"
)

// Source is the data the collector reads on each scrape.
type Source interface {
	CountPostsByTypeAndStatus(ctx context.Context) ([]db.PostCount, error)
	GetUserCount(ctx context.Context) (int, error)
}

// PostCollector is a custom Prometheus collector that reads post and user
// counts from the database on each scrape.
type PostCollector struct {
	src Source
}

// NewPostCollector creates a collector over src.
func NewPostCollector(src Source) *PostCollector {
	return &PostCollector{src: src}
}

// Describe sends the metric descriptors to the channel.
func (c *PostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- postsDesc
	ch <- usersDesc
}

// Collect queries the database and emits gauges.
func (c *PostCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	counts, err := c.src.CountPostsByTypeAndStatus(ctx)
	if err != nil {
		zap.L().Error("failed to collect post metrics", zap.Error(err))
	}
	for _, pc := range counts {
		ch <- prometheus.MustNewConstMetric(postsDesc, prometheus.GaugeValue, float64(pc.Count), pc.PostType, pc.Status)
	}

	users, err := c.src.GetUserCount(ctx)
	if err != nil {
		zap.L().Error("failed to collect user metrics", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(usersDesc, prometheus.GaugeValue, float64(users))
}

var initOnce sync.Once

// Init registers the collector and counters with the default registry.
// Must be called once at startup.
func Init(src Source) {
	initOnce.Do(func() {
		prometheus.MustRegister(NewPostCollector(src), analyzeRequests, shares, uploads)
	})
}

// RecordAnalyze counts an analysis request.
func RecordAnalyze(outcome string) {
	analyzeRequests.WithLabelValues(outcome).Inc()
}

// RecordShare counts a share.
func RecordShare(platform string) {
	shares.WithLabelValues(platform).Inc()
}

// RecordUpload counts an accepted upload.
func RecordUpload(kind string) {
	uploads.WithLabelValues(kind).Inc()
}
