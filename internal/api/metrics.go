package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the HTTP and publish collectors of the API.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	publishTotal    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registerer.
// A nil registerer means prometheus.DefaultRegisterer. Collectors that are
// already registered are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensu_api",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensu_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensu_api",
			Name:      "publish_total",
			Help:      "Transport publishes, by exchange kind and result.",
		}, []string{"exchange_kind", "result"}),
	}

	var err error
	m.requestsTotal, err = register(registerer, m.requestsTotal)
	if err != nil {
		return nil, err
	}
	m.requestDuration, err = register(registerer, m.requestDuration)
	if err != nil {
		return nil, err
	}
	m.publishTotal, err = register(registerer, m.publishTotal)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observePublish(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.publishTotal.WithLabelValues(kind, result).Inc()
}
