package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ProposalsGeneratedTotal counts proposal generation attempts by outcome.
	ProposalsGeneratedTotal *prometheus.CounterVec
	// SummaryComputationsTotal counts pricing summaries computed.
	SummaryComputationsTotal prometheus.Counter
	// WebhookResolutionsTotal counts placeholder resolution requests by outcome.
	WebhookResolutionsTotal *prometheus.CounterVec
	// ReferenceCacheTotal counts reference-data cache lookups by result (hit, miss).
	ReferenceCacheTotal *prometheus.CounterVec
	// SummaryDuration records summary computation latency in milliseconds.
	SummaryDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ProposalsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_generated_total",
			Help:      "Count of proposal generation outcomes.",
		}, []string{"result"})
		SummaryComputationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_computations_total",
			Help:      "Total number of pricing summaries computed.",
		})
		WebhookResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_resolutions_total",
			Help:      "Count of webhook placeholder resolutions by outcome.",
		}, []string{"result"})
		ReferenceCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_cache_total",
			Help:      "Reference data cache lookups by result.",
		}, []string{"result"})
		SummaryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_ms",
			Help:      "Latency for pricing summary computation in milliseconds.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
		})

		mustRegisterCollector(reg, ProposalsGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ProposalsGeneratedTotal = v
			}
		})
		mustRegisterCollector(reg, SummaryComputationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SummaryComputationsTotal = v
			}
		})
		mustRegisterCollector(reg, WebhookResolutionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WebhookResolutionsTotal = v
			}
		})
		mustRegisterCollector(reg, ReferenceCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReferenceCacheTotal = v
			}
		})
		mustRegisterCollector(reg, SummaryDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SummaryDuration = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
