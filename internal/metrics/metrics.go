package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_feed_events_total",
		Help: "Total number of feed events applied, by event type.",
	},
		[]string{"type"},
	)

	NormalizerCoercionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_normalizer_coercions_total",
		Help: "Total number of raw document fields the normalizer had to coerce.",
	},
		[]string{"field"},
	)

	NormalizerRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_normalizer_rejects_total",
		Help: "Total number of raw documents rejected by the normalizer.",
	},
		[]string{"field"},
	)

	DispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_dispatches_total",
		Help: "Total number of dispatch attempts, by action kind and outcome.",
	},
		[]string{"kind", "outcome"},
	)

	DispatchRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderdesk_dispatch_rejections_total",
		Help: "Total number of dispatch requests rejected because another dispatch was in flight.",
	})

	WorkingSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderdesk_working_set_size",
		Help: "Current number of orders in the working set.",
	})

	DispatchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderdesk_dispatch_in_flight",
		Help: "1 while a dispatch is outstanding, 0 otherwise.",
	})
)
