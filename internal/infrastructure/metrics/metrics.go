package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bot uchun Prometheus kollektorlari.
// nil *Metrics bilan ham ishlaydi (metrikalar o'chirilgan).
type Metrics struct {
	lookupsTotal   *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	articlesTotal  *prometheus.CounterVec
	ingestsTotal   *prometheus.CounterVec
	catalogRows    prometheus.Gauge
	catalogUpdated prometheus.Gauge
	mailPollsTotal *prometheus.CounterVec
}

// New kollektorlarni berilgan registry da ro'yxatdan o'tkazish
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		lookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbot_lookups_total",
			Help: "Total number of chat lookups by outcome",
		}, []string{"outcome"}),
		lookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockbot_lookup_duration_seconds",
			Help:    "Lookup duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		articlesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbot_articles_total",
			Help: "Extracted articles by kind and match result",
		}, []string{"kind", "result"}),
		ingestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbot_ingests_total",
			Help: "Catalog ingests by source and result",
		}, []string{"source", "result"}),
		catalogRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockbot_catalog_rows",
			Help: "Rows in the current catalog",
		}),
		catalogUpdated: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockbot_catalog_updated_timestamp_seconds",
			Help: "Unix time of the last successful ingest",
		}),
		mailPollsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbot_mail_polls_total",
			Help: "Mailbox polls by result",
		}, []string{"result"}),
	}
}

// ObserveLookup bitta chat so'rovini yozish
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(outcome).Inc()
	m.lookupDuration.Observe(d.Seconds())
}

// ObserveArticle topilgan/topilmagan artikul
func (m *Metrics) ObserveArticle(kind string, found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "missing"
	}
	m.articlesTotal.WithLabelValues(kind, result).Inc()
}

// ObserveIngest ingest natijasi
func (m *Metrics) ObserveIngest(source string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ingestsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	m.ingestsTotal.WithLabelValues(source, "ok").Inc()
	m.catalogRows.Set(float64(rows))
	m.catalogUpdated.SetToCurrentTime()
}

// ObserveMailPoll pochta tekshiruvi natijasi: "updated", "empty" yoki "error"
func (m *Metrics) ObserveMailPoll(result string) {
	if m == nil {
		return
	}
	m.mailPollsTotal.WithLabelValues(result).Inc()
}
