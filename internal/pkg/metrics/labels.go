package metrics

const (
	// LabelMethod is the Prometheus label name for HTTP method.
	LabelMethod = "method"

	// LabelStatusCode is the Prometheus label name for HTTP status codes.
	LabelStatusCode = "code"

	// LabelStatus is the Prometheus label name for the outcome of a process
	// such as "success" or "error".
	LabelStatus = "status"

	// LabelService is the Prometheus label name for AWS API names.
	LabelService = "service"

	// LabelOperation is the Prometheus label name for operations within
	// an AWS API.
	LabelOperation = "operation"

	// LabelRegion is the Prometheus label name for the AWS region.
	LabelRegion = "region"

	// LabelEvent is used by InstrumentHTTP() to describe the different stages of
	// an HTTP connection (DNS resolution, TLS handshake, etc).
	LabelEvent = "event"

	// LabelMode is the Prometheus label name for the maintenance mode
	// of a rolling run (restart, reboot, ...).
	LabelMode = "mode"

	// LabelRole is the Prometheus label name for the role of a cluster node.
	LabelRole = "role"

	// LabelStep is the Prometheus label name for a step of node maintenance.
	LabelStep = "step"
)

// Values of LabelStatus.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
