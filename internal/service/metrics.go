package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

// Rating write operations used as metric labels.
const (
	opSubmit = "submit"
	opCreate = "upsert_create"
	opUpdate = "upsert_update"
	opEdit   = "update"
	opDelete = "delete"
)

// Metrics counts rating writes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ratingsWritten *prometheus.CounterVec
	sentiments     *prometheus.CounterVec
}

// NewMetrics registers the rating metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ratingsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ratings_written_total",
			Help: "Total number of committed rating writes by operation",
		}, []string{"operation"}),
		sentiments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_sentiment_total",
			Help: "Total number of rating writes by resulting sentiment",
		}, []string{"sentiment"}),
	}
}

func (m *Metrics) recordWrite(operation string, sentiment domain.Sentiment) {
	if m == nil {
		return
	}
	m.ratingsWritten.WithLabelValues(operation).Inc()
	if sentiment != "" {
		m.sentiments.WithLabelValues(string(sentiment)).Inc()
	}
}
