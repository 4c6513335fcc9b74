package rollingrestart

// MaintenanceMode is the kind of disruption applied to each node.
type MaintenanceMode string

// Maintenance modes.
const (
	// ModeRestartClusterService restarts the Elasticsearch service.
	ModeRestartClusterService MaintenanceMode = "restart-cluster-service"

	// ModeRebootClusterService stops Elasticsearch and reboots the host.
	ModeRebootClusterService MaintenanceMode = "reboot-cluster-service"

	// ModeRebootGenericService reboots hosts running a service that
	// isn't part of the cluster. No cluster API calls are made.
	ModeRebootGenericService MaintenanceMode = "reboot-generic-service"
)

// TouchesCluster reports whether the mode talks to the Elasticsearch API.
func (m MaintenanceMode) TouchesCluster() bool {
	return m == ModeRestartClusterService || m == ModeRebootClusterService
}

// Reboots reports whether the mode reboots hosts.
func (m MaintenanceMode) Reboots() bool {
	return m == ModeRebootClusterService || m == ModeRebootGenericService
}

func (m MaintenanceMode) String() string {
	return string(m)
}
