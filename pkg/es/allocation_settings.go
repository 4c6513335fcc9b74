package es

import (
	"strings"

	"github.com/tidwall/gjson" // Dynamic JSON parsing.
)

const (
	// AllocationEnableSetting is the cluster setting that controls
	// which shards may be allocated to nodes.
	AllocationEnableSetting = "cluster.routing.allocation.enable"

	// AllocationDisableSetting is an older spelling of the same
	// control. It's reported when present but never written.
	AllocationDisableSetting = "cluster.routing.allocation.disable"
)

// AllocationMode is a value of the cluster.routing.allocation.enable setting.
type AllocationMode string

// Allocation modes.
const (
	AllocationAll  AllocationMode = "all"
	AllocationNone AllocationMode = "none"
)

// AllocationSetting is the shard allocation state found in a
// settings section (transient or persistent).
type AllocationSetting struct {
	// Mode is the value of cluster.routing.allocation.enable.
	Mode AllocationMode

	// Disable is the raw value of cluster.routing.allocation.disable,
	// if the cluster reports it.
	Disable string
}

// Enabled reports whether every kind of shard may be allocated.
func (s AllocationSetting) Enabled() bool {
	return s.Mode == AllocationAll
}

func (s AllocationSetting) String() string {
	if s.Disable != "" {
		return string(s.Mode) + " (disable=" + s.Disable + ")"
	}
	return string(s.Mode)
}

// lookupSetting finds a dotted setting name in a settings object,
// accepting both the nested form Elasticsearch returns by default and
// the flat form returned with flat_settings=true.
func lookupSetting(settings gjson.Result, name string) gjson.Result {
	if v := settings.Get(name); v.Exists() {
		return v
	}
	return settings.Get(strings.Replace(name, ".", `\.`, -1))
}

// NewAllocationSetting reads the allocation setting from a settings section.
// ok is false if the section doesn't set cluster.routing.allocation.enable.
func NewAllocationSetting(settings gjson.Result) (setting AllocationSetting, ok bool) {
	enable := lookupSetting(settings, AllocationEnableSetting)
	disable := lookupSetting(settings, AllocationDisableSetting)
	if disable.Exists() {
		setting.Disable = disable.String()
	}
	if !enable.Exists() {
		return setting, false
	}
	setting.Mode = AllocationMode(strings.ToLower(enable.String()))
	return setting, true
}
