package metrics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistry records measurements on Prometheus collectors
// registered with a prometheus.Registerer. Collector label names are fixed
// by the first identity seen for a name; a later identity with the same
// name and different tag keys is rejected.
type PrometheusRegistry struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	collectors map[string]*promCollectors
}

type promCollectors struct {
	labels     []string
	duration   *prometheus.HistogramVec
	subscribed *prometheus.CounterVec
	malformed  *prometheus.CounterVec
}

// NewPrometheusRegistry creates a registry registering its collectors with
// reg under namespace. Nil buckets uses prometheus.DefBuckets.
func NewPrometheusRegistry(reg prometheus.Registerer, namespace string, buckets []float64) *PrometheusRegistry {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return &PrometheusRegistry{
		registerer: reg,
		namespace:  sanitizeName(namespace),
		buckets:    buckets,
		collectors: make(map[string]*promCollectors),
	}
}

// Record implements Registry.
func (r *PrometheusRegistry) Record(_ context.Context, m Measurement) error {
	c, err := r.collectorsFor(m.Identity)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(m.Identity.Tags)+2)
	for _, t := range m.Identity.Tags {
		values = append(values, t.Value)
	}

	switch m.Kind {
	case KindFlow:
		values = append(values, string(m.Outcome), m.Exception)
		obs, err := c.duration.GetMetricWithLabelValues(values...)
		if err != nil {
			return err
		}
		obs.Observe(m.Duration.Seconds())
	case KindSubscribed:
		counter, err := c.subscribed.GetMetricWithLabelValues(values...)
		if err != nil {
			return err
		}
		counter.Inc()
	case KindMalformed:
		counter, err := c.malformed.GetMetricWithLabelValues(values...)
		if err != nil {
			return err
		}
		counter.Inc()
	default:
		return fmt.Errorf("unknown measurement kind %d", m.Kind)
	}
	return nil
}

func (r *PrometheusRegistry) collectorsFor(id Identity) (*promCollectors, error) {
	labels, err := labelNames(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.collectors[id.Name]; ok {
		if !slices.Equal(c.labels, labels) {
			return nil, fmt.Errorf("metric %s already uses labels %v, got %v", id.Name, c.labels, labels)
		}
		return c, nil
	}

	base := sanitizeName(id.Name)
	flowLabels := append(append([]string(nil), labels...), attrStatus, attrException)

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      base + "_flow_duration_seconds",
		Help:      "Time from subscription to outcome",
		Buckets:   r.buckets,
	}, flowLabels)
	subscribed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      base + "_subscribed_total",
		Help:      "Number of subscriptions",
	}, labels)
	malformed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      base + "_malformed_source_total",
		Help:      "Signals received after the source terminated",
	}, labels)

	c := &promCollectors{labels: labels}
	if c.duration, err = registerOrExisting(r.registerer, duration); err != nil {
		return nil, err
	}
	if c.subscribed, err = registerOrExisting(r.registerer, subscribed); err != nil {
		return nil, err
	}
	if c.malformed, err = registerOrExisting(r.registerer, malformed); err != nil {
		return nil, err
	}
	r.collectors[id.Name] = c
	return c, nil
}

// registerOrExisting registers c, reusing an identical collector that is
// already registered.
func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func labelNames(id Identity) ([]string, error) {
	labels := make([]string, 0, len(id.Tags))
	seen := make(map[string]bool, len(id.Tags)+2)
	seen[attrStatus] = true
	seen[attrException] = true
	for _, t := range id.Tags {
		label := sanitizeName(t.Key)
		if strings.HasPrefix(label, "__") {
			label = strings.TrimLeft(label, "_")
		}
		if label == "" || seen[label] {
			return nil, fmt.Errorf("tag %q maps to an empty or duplicate label %q", t.Key, label)
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels, nil
}

// sanitizeName maps s onto the Prometheus name charset [a-zA-Z0-9_].
func sanitizeName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
