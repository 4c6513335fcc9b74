// Package mocks holds testify mocks of Prometheus interfaces.
package mocks

import (
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
	"github.com/stretchr/testify/mock"               // Mocking for tests.
)

// Observer mocks prometheus.Observer.
type Observer struct {
	prometheus.Observer
	mock.Mock
}

// Observe records the call.
func (m *Observer) Observe(f float64) {
	m.Called(f)
}

// ObserverVec mocks the With method of prometheus.ObserverVec.
// Other methods panic.
type ObserverVec struct {
	prometheus.ObserverVec
	mock.Mock
}

// With returns the Observer configured with On("With", labels).
func (m *ObserverVec) With(lbls prometheus.Labels) prometheus.Observer {
	ret := m.Called(lbls)
	return ret.Get(0).(prometheus.Observer)
}
