package metrics

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"         // AWS SDK helpers.
	"github.com/aws/aws-sdk-go/aws/request" // AWS request handlers.
	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentAWS adds Prometheus metrics to an AWS client or session.
//
// A Gauge is observed for in-flight requests with labels
// for AWS service, operation name, and HTTP method labels.
//
// A duration histogram is observed for each AWS API request with
// labels for AWS service, operation name, HTTP method,
// and returned HTTP status code. Retries count as separate samples.
//
// Example:
//
//   sess := session.Must(session.NewSession())
//   InstrumentAWS(&sess.Handlers, prometheus.DefaultRegisterer, nil)
//
func InstrumentAWS(h *request.Handlers, reg prometheus.Registerer, constLabels map[string]string) error {
	i := &awsInstrumentation{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   Namespace,
				Subsystem:   "aws",
				Name:        "request_duration_seconds",
				Help:        "A histogram of AWS API request latencies.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{LabelRegion, LabelService, LabelOperation, LabelMethod, LabelStatusCode},
		),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "aws",
			Name:        "in_flight_requests",
			Help:        "A gauge of in-flight AWS API requests.",
			ConstLabels: constLabels,
		}, []string{LabelRegion, LabelService, LabelOperation, LabelMethod}),
	}
	if err := reg.Register(i); err != nil {
		return err
	}
	h.Send.PushFrontNamed(request.NamedHandler{
		Name: "prometheus-send-start",
		Fn:   i.handleSend,
	})
	return nil
}

type awsInstrumentation struct {
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// Describe implements prometheus.Collector interface.
func (i *awsInstrumentation) Describe(c chan<- *prometheus.Desc) {
	i.duration.Describe(c)
	i.inflight.Describe(c)
}

// Collect implements prometheus.Collector interface.
func (i *awsInstrumentation) Collect(c chan<- prometheus.Metric) {
	i.duration.Collect(c)
	i.inflight.Collect(c)
}

func requestLabels(r *request.Request) prometheus.Labels {
	return prometheus.Labels{
		LabelRegion:    aws.StringValue(r.Config.Region),
		LabelMethod:    r.Operation.HTTPMethod,
		LabelService:   r.ClientInfo.ServiceName,
		LabelOperation: r.Operation.Name,
	}
}

// handleSend runs before each attempt (including retries) is sent.
func (i *awsInstrumentation) handleSend(r *request.Request) {
	labels := requestLabels(r)
	timer := NewVecTimer(i.duration)
	i.inflight.With(labels).Inc()

	r.Handlers.Complete.PushBackNamed(request.NamedHandler{
		Name: "prometheus-complete",
		Fn: func(r *request.Request) {
			i.inflight.With(labels).Dec()
			code := "0"
			if r.HTTPResponse != nil {
				code = strconv.Itoa(r.HTTPResponse.StatusCode)
			}
			l := prometheus.Labels{LabelStatusCode: code}
			for k, v := range labels {
				l[k] = v
			}
			timer.ObserveWith(l)
		},
	})
}
