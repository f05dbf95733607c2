package fixed

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceReuse = "reuse"
	sourceGrow  = "grow"
)

// Metrics collects metrics of the stores. Single instance may be shared by many stores, they are distinguished
// by the table label.
type Metrics struct {
	allocated  *prometheus.CounterVec
	freed      *prometheus.CounterVec
	grownBytes *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them in the registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		allocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixedstore",
			Name:      "blocks_allocated_total",
			Help:      "Number of allocated blocks by source of the block.",
		}, []string{"table", "source"}),
		freed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixedstore",
			Name:      "blocks_freed_total",
			Help:      "Number of freed blocks.",
		}, []string{"table"}),
		grownBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixedstore",
			Name:      "data_file_grown_bytes_total",
			Help:      "Number of bytes appended to data files.",
		}, []string{"table"}),
	}

	for _, c := range []prometheus.Collector{m.allocated, m.freed, m.grownBytes} {
		if err := registerer.Register(c); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return m, nil
}

func (m *Metrics) observeAllocation(table, source string) {
	if m == nil {
		return
	}
	m.allocated.WithLabelValues(table, source).Inc()
}

func (m *Metrics) observeFree(table string) {
	if m == nil {
		return
	}
	m.freed.WithLabelValues(table).Inc()
}

func (m *Metrics) observeGrowth(table string, n uint64) {
	if m == nil {
		return
	}
	m.grownBytes.WithLabelValues(table).Add(float64(n))
}
