package rollingrestart

import (
	"time"

	"github.com/mintel/elasticsearch-rolling/pkg/es" // Extensions to the Elasticsearch client.
)

// NodeReport records what happened to one node during a run.
type NodeReport struct {
	Node Node
	Mode MaintenanceMode

	// State is the last state the node reached.
	State string

	Started  time.Time
	Duration time.Duration

	// AllocationBefore is the allocation setting seen before the node
	// was touched. HasAllocationBefore is false if it was unset or
	// couldn't be read.
	AllocationBefore    es.AllocationSetting
	HasAllocationBefore bool

	// AllocationAfter is the allocation setting confirmed when it
	// was restored. Only set for data nodes.
	AllocationAfter    es.AllocationSetting
	HasAllocationAfter bool

	// Err is the error that stopped the node, if any.
	Err error
}

// Done reports whether the node completed maintenance.
func (r NodeReport) Done() bool {
	return r.State == StateDone && r.Err == nil
}

// effectiveAllocation is the mode Elasticsearch applies for a setting
// that may be unset.
func effectiveAllocation(s es.AllocationSetting, ok bool) es.AllocationMode {
	if !ok || s.Mode == "" {
		return es.AllocationAll
	}
	return s.Mode
}

// AllocationRoundTrip reports whether the allocation mode after
// maintenance matches the mode before it. It's true for nodes whose
// allocation wasn't changed.
func (r NodeReport) AllocationRoundTrip() bool {
	if !r.HasAllocationAfter {
		return true
	}
	return effectiveAllocation(r.AllocationBefore, r.HasAllocationBefore) == effectiveAllocation(r.AllocationAfter, r.HasAllocationAfter)
}
