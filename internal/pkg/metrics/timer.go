package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
)

// VecTimer is a helper type to time functions.
// It is similar to prometheus.Timer, but takes a prometheus.ObserverVec,
// and can add labels to it when the VecTimer is observed.
// Use NewVecTimer to create new instances.
type VecTimer struct {
	begin time.Time
	vec   prometheus.ObserverVec
}

// NewVecTimer creates a new VecTimer. The provided ObserverVec is used to observe a
// duration in seconds.
//
//    timer := NewVecTimer(stepDuration)
//    err := doStep()
//    timer.ObserveErr(err, prometheus.Labels{LabelStep: "flush"})
//
func NewVecTimer(v prometheus.ObserverVec) *VecTimer {
	return &VecTimer{
		begin: time.Now(),
		vec:   v,
	}
}

// ObserveWith records the duration passed since the VecTimer was created
// with the given labels. The observed duration is also returned.
func (t *VecTimer) ObserveWith(labels prometheus.Labels) time.Duration {
	d := time.Since(t.begin)
	if t.vec != nil {
		t.vec.With(labels).Observe(d.Seconds())
	}
	return d
}

// ObserveErr adds LabelStatus, based on err, to labels and records the
// duration passed since the VecTimer was created.
// labels may be nil. It's not modified.
func (t *VecTimer) ObserveErr(err error, labels prometheus.Labels) time.Duration {
	l := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		l[k] = v
	}
	l[LabelStatus] = StatusOf(err)
	return t.ObserveWith(l)
}
