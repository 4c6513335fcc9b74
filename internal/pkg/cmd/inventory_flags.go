package cmd

import (
	"github.com/aws/aws-sdk-go/service/autoscaling" // AWS AutoScaling API.
	"github.com/aws/aws-sdk-go/service/ec2"         // AWS EC2 API.
	"github.com/pkg/errors"                         // Wrap errors with stacktrace.
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/inventory" // Host lists.
	"github.com/mintel/elasticsearch-rolling/internal/pkg/metrics"   // Prometheus instrumentation.
)

// InventoryFlags represents the flags that select the hosts of a run.
// Exactly one source may be given.
type InventoryFlags struct {
	Hosts []string
	File  string
	ASG   string

	AWS *AWSFlags
}

// NewInventoryFlags returns a new InventoryFlags.
// The host arguments are added per command with HostArgs.
func NewInventoryFlags(app Flagger) *InventoryFlags {
	var f InventoryFlags

	app.Flag("hosts.file", "YAML file listing hosts under the `nodes` key.").
		PlaceHolder("PATH").
		ExistingFileVar(&f.File)

	app.Flag("hosts.asg", "Process the in-service instances of this AWS AutoScaling Group, sorted by private DNS name.").
		PlaceHolder("NAME").
		StringVar(&f.ASG)

	f.AWS = NewAWSFlags(app, 3)

	return &f
}

// HostArgs adds the positional host arguments to c. It must be called
// after any other Arg of c.
func (f *InventoryFlags) HostArgs(c Flagger) {
	c.Arg("host", "Hostnames, in the order they should be processed.").
		StringsVar(&f.Hosts)
}

// Source returns the configured host source. The AWS clients of an ASG
// source are instrumented with reg.
func (f *InventoryFlags) Source(reg prometheus.Registerer) (inventory.Source, error) {
	n := 0
	for _, set := range []bool{len(f.Hosts) > 0, f.File != "", f.ASG != ""} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return nil, errors.New("no hosts given")
	case n > 1:
		return nil, errors.New("only one of the host arguments, --hosts.file or --hosts.asg may be used")
	case f.File != "":
		return inventory.File{Path: f.File}, nil
	case f.ASG != "":
		sess, err := f.AWS.NewSession()
		if err != nil {
			return nil, errors.Wrap(err, "error creating AWS session")
		}
		if err := metrics.InstrumentAWS(&sess.Handlers, reg, nil); err != nil {
			return nil, err
		}
		return inventory.AutoScalingGroup{
			Name:        f.ASG,
			AutoScaling: autoscaling.New(sess),
			EC2:         ec2.New(sess),
		}, nil
	default:
		return inventory.Static(f.Hosts), nil
	}
}
