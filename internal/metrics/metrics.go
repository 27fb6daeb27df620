// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "askctx"

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		var cs []prometheus.Collector
		cs = append(cs, httpCollectors()...)
		cs = append(cs, embeddingCollectors()...)
		cs = append(cs, promptCollectors()...)
		prometheus.MustRegister(cs...)
	})
}
