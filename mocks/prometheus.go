// Package mocks holds testify mocks shared by package tests.
package mocks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockObserver records the values observed by one histogram series.
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Observe(v float64) {
	m.Called(v)
}

// MockHistogram stands in for a prometheus.ObserverVec such as the reader's
// read duration histogram. Label values are passed to the mock one argument
// per label, so an expectation reads On("WithLabelValues", "timeout").
type MockHistogram struct {
	mock.Mock
}

// WithLabelValues returns the observer configured for lvs.
func (m *MockHistogram) WithLabelValues(lvs ...string) prometheus.Observer {
	return observerAt(m.Called(labelArgs(lvs)...), 0)
}

func (m *MockHistogram) GetMetricWithLabelValues(lvs ...string) (prometheus.Observer, error) {
	args := m.Called(labelArgs(lvs)...)
	return observerAt(args, 0), args.Error(1)
}

func (m *MockHistogram) With(labels prometheus.Labels) prometheus.Observer {
	return observerAt(m.Called(labels), 0)
}

func (m *MockHistogram) GetMetricWith(labels prometheus.Labels) (prometheus.Observer, error) {
	args := m.Called(labels)
	return observerAt(args, 0), args.Error(1)
}

func (m *MockHistogram) CurryWith(labels prometheus.Labels) (prometheus.ObserverVec, error) {
	args := m.Called(labels)
	vec, _ := args.Get(0).(prometheus.ObserverVec)
	return vec, args.Error(1)
}

func (m *MockHistogram) MustCurryWith(labels prometheus.Labels) prometheus.ObserverVec {
	vec, _ := m.Called(labels).Get(0).(prometheus.ObserverVec)
	return vec
}

// Describe and Collect only satisfy prometheus.Collector. The mock is never registered.
func (m *MockHistogram) Describe(chan<- *prometheus.Desc) {}

func (m *MockHistogram) Collect(chan<- prometheus.Metric) {}

// observerAt tolerates a nil return so tests can stub lookups they do not observe.
func observerAt(args mock.Arguments, i int) prometheus.Observer {
	o, _ := args.Get(i).(prometheus.Observer)
	return o
}

func labelArgs(lvs []string) []interface{} {
	args := make([]interface{}, len(lvs))
	for i, v := range lvs {
		args[i] = v
	}
	return args
}
