// Package metrics exposes sampling progress as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/featkit/twise/pkg/twise"
)

var (
	combinationsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "twise_combinations_processed_total",
			Help: "Monotonic count of literal combinations processed",
		},
	)

	combinationsCovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "twise_combinations_covered_total",
			Help: "Monotonic count of literal combinations covered by some configuration",
		},
	)

	combinationsInvalid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "twise_combinations_invalid_total",
			Help: "Monotonic count of literal combinations found unsatisfiable",
		},
	)

	sampleSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "twise_sample_size",
			Help: "Number of configurations in the sample after the last pass",
		},
	)
)

// Register registers the sampling collectors with the given registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		combinationsProcessed,
		combinationsCovered,
		combinationsInvalid,
		sampleSize,
	)
}

// Observer returns a progress observer that feeds the collectors.
func Observer() twise.Observer {
	return observer{}
}

type observer struct{}

func (observer) CombinationProcessed(status twise.Status) {
	combinationsProcessed.Inc()
	switch status {
	case twise.Covered:
		combinationsCovered.Inc()
	case twise.Invalid:
		combinationsInvalid.Inc()
	}
}

func (observer) SampleSize(n int) {
	sampleSize.Set(float64(n))
}
