package rollingrestart

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"             // Wrap errors with stacktrace.
	"github.com/stretchr/testify/mock"  // Mocking for tests.
	"github.com/stretchr/testify/suite" // Test suite.
	"go.uber.org/zap"                   // Logging.
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gock "gopkg.in/h2non/gock.v1" // HTTP request mocking.

	"github.com/mintel/elasticsearch-rolling/internal/app/rollingrestart/mocks" // Mock NodeExecutor.
	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog"                        // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"                            // Extensions to the Elasticsearch client.
)

const (
	testService      = "elasticsearch-es-01"
	testGuardService = "iptables"
)

var (
	data1   = Node{Host: "data1.foo.com", Role: RoleData}
	master1 = Node{Host: "master1.foo.com", Role: RoleMaster}
)

type NodeMaintenanceTestSuite struct {
	clusterSuite
}

func TestNodeMaintenance(t *testing.T) {
	suite.Run(t, &NodeMaintenanceTestSuite{})
}

func testConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Service:      testService,
		GuardService: testGuardService,
		Timing:       testTiming(),
	}
}

func (suite *NodeMaintenanceTestSuite) newSUT(node Node, mode MaintenanceMode, config MaintenanceConfig) *NodeMaintenance {
	var cluster ElasticsearchFacadeIface
	if mode.TouchesCluster() {
		cluster = suite.Facade
	}
	o := NewRollingOrchestrator(config, cluster, suite.Executor, nil)
	return NewNodeMaintenance(node, mode, config, o.Cluster, o.Gate, o.Allocation, o.Executor, nil)
}

// record returns a mock Run func that adds entry to the request log.
func (suite *NodeMaintenanceTestSuite) record(entry string) func(mock.Arguments) {
	return func(mock.Arguments) {
		suite.Requests.Record(entry)
	}
}

func (suite *NodeMaintenanceTestSuite) TestRestart_dataNode() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_all.json")
	mockPutSettings("put_settings_none.json")
	mockGetSettings("cluster_settings_none.json")
	mockFlush(2)
	mockCatNodes("cat_nodes_without_data1.txt")
	mockCatNodes("cat_nodes.txt")
	mockPutSettings("put_settings_all.json")
	mockHealth("health_yellow.json")
	mockHealth("health_green.json")

	suite.Executor.
		On("RestartService", mock.Anything, data1.Host, testService).
		Run(suite.record("restart-service")).
		Return(CommandResult{Succeeded: true}, nil).
		Once()

	m := suite.newSUT(data1, ModeRestartClusterService, testConfig())
	suite.NoError(m.Run(suite.Ctx))

	suite.Equal(StateDone, m.State())
	suite.True(gock.IsDone())
	suite.Executor.AssertExpectations(suite.T())
	suite.Equal([]string{
		"GET /",
		"GET /_cluster/settings",
		"PUT /_cluster/settings",
		"GET /_cluster/settings",
		"POST /_flush/synced",
		"POST /_flush/synced",
		"restart-service",
		"GET /_cat/nodes",
		"GET /_cat/nodes",
		"PUT /_cluster/settings",
		"GET /_cluster/health",
		"GET /_cluster/health",
	}, suite.Requests.Requests())

	r := m.Report()
	suite.True(r.Done())
	suite.True(r.HasAllocationBefore)
	suite.Equal(es.AllocationAll, r.AllocationBefore.Mode)
	suite.True(r.HasAllocationAfter)
	suite.Equal(es.AllocationAll, r.AllocationAfter.Mode)
	suite.True(r.AllocationRoundTrip())
}

func (suite *NodeMaintenanceTestSuite) TestRestart_allocationAlreadyRestricted() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_none.json")
	mockPutSettings("put_settings_none.json")
	mockGetSettings("cluster_settings_none.json")
	mockFlush(2)
	mockCatNodes("cat_nodes.txt")
	mockPutSettings("put_settings_all.json")
	mockHealth("health_green.json")

	suite.Executor.
		On("RestartService", mock.Anything, data1.Host, testService).
		Return(CommandResult{Succeeded: true}, nil).
		Once()

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := ctxlog.WithLogger(suite.Ctx, zap.New(core))

	m := suite.newSUT(data1, ModeRestartClusterService, testConfig())
	suite.NoError(m.Run(ctx))
	suite.True(gock.IsDone())

	r := m.Report()
	suite.True(r.Done())
	suite.False(r.AllocationBefore.Enabled())
	suite.True(r.AllocationAfter.Enabled())
	suite.False(r.AllocationRoundTrip())
	suite.Equal(1, logs.FilterMessage("shard allocation is already restricted, it will be set to all after this node").Len())
	suite.Equal(1, logs.FilterMessage("allocation setting changed during maintenance").Len())
}

func (suite *NodeMaintenanceTestSuite) TestRestart_masterNode() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_all.json")
	mockCatNodes("cat_nodes.txt")
	mockHealth("health_green.json")

	suite.Executor.
		On("RestartService", mock.Anything, master1.Host, testService).
		Run(suite.record("restart-service")).
		Return(CommandResult{Succeeded: true}, nil).
		Once()

	m := suite.newSUT(master1, ModeRestartClusterService, testConfig())
	suite.NoError(m.Run(suite.Ctx))

	suite.Equal(StateDone, m.State())
	suite.True(gock.IsDone())
	suite.Equal([]string{
		"GET /",
		"GET /_cluster/settings",
		"restart-service",
		"GET /_cat/nodes",
		"GET /_cluster/health",
	}, suite.Requests.Requests())
	suite.False(m.Report().HasAllocationAfter)
}

func (suite *NodeMaintenanceTestSuite) TestRestart_failedCommandIsNotFatal() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_empty.json")
	mockCatNodes("cat_nodes.txt")
	mockHealth("health_green.json")

	suite.Executor.
		On("RestartService", mock.Anything, master1.Host, testService).
		Return(CommandResult{Failed: true, ExitStatus: 5, Output: "Unit not found."}, nil).
		Once()

	m := suite.newSUT(master1, ModeRestartClusterService, testConfig())
	suite.NoError(m.Run(suite.Ctx))
	suite.Equal(StateDone, m.State())
}

func (suite *NodeMaintenanceTestSuite) TestReboot_dataNode() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_all.json")
	mockPutSettings("put_settings_none.json")
	mockGetSettings("cluster_settings_none.json")
	mockFlush(2)
	mockCatNodes("cat_nodes.txt")
	mockPutSettings("put_settings_all.json")
	mockHealth("health_green.json")

	suite.Executor.
		On("IsServiceRunning", mock.Anything, data1.Host, testGuardService).
		Run(suite.record("guard-check")).
		Return(true, nil).
		Once()
	suite.Executor.
		On("StopService", mock.Anything, data1.Host, testService).
		Run(suite.record("stop-service")).
		Return(CommandResult{Succeeded: true}, nil).
		Once()
	suite.Executor.
		On("Reboot", mock.Anything, data1.Host).
		Run(suite.record("reboot")).
		Return(errors.New("wait: remote command exited without exit status or exit signal")).
		Once()
	suite.Executor.
		On("Probe", mock.Anything, data1.Host).
		Return(false).
		Twice()
	suite.Executor.
		On("Probe", mock.Anything, data1.Host).
		Run(suite.record("probe")).
		Return(true).
		Once()

	m := suite.newSUT(data1, ModeRebootClusterService, testConfig())
	suite.NoError(m.Run(suite.Ctx))

	suite.Equal(StateDone, m.State())
	suite.True(gock.IsDone())
	suite.Executor.AssertExpectations(suite.T())
	suite.Equal([]string{
		"guard-check",
		"GET /",
		"GET /_cluster/settings",
		"PUT /_cluster/settings",
		"GET /_cluster/settings",
		"POST /_flush/synced",
		"POST /_flush/synced",
		"stop-service",
		"reboot",
		"probe",
		"GET /_cat/nodes",
		"PUT /_cluster/settings",
		"GET /_cluster/health",
	}, suite.Requests.Requests())
}

func (suite *NodeMaintenanceTestSuite) TestReboot_guardServiceInactive() {
	defer gock.CleanUnmatchedRequest()

	suite.Executor.
		On("IsServiceRunning", mock.Anything, data1.Host, testGuardService).
		Return(false, nil).
		Once()

	m := suite.newSUT(data1, ModeRebootClusterService, testConfig())
	err := m.Run(suite.Ctx)
	if suite.Error(err) {
		suite.Equal(ErrGuardServiceInactive, errors.Cause(err))
	}

	suite.Equal(StateIdle, m.State())
	suite.Empty(suite.Requests.Requests())
	suite.Executor.AssertNotCalled(suite.T(), "StopService", mock.Anything, mock.Anything, mock.Anything)
	suite.Executor.AssertNotCalled(suite.T(), "Reboot", mock.Anything, mock.Anything)
	suite.Equal(err, m.Report().Err)
}

func (suite *NodeMaintenanceTestSuite) TestReboot_guardDisabled() {
	defer gock.CleanUnmatchedRequest()
	mockInfo()
	mockGetSettings("cluster_settings_all.json")
	mockCatNodes("cat_nodes.txt")
	mockHealth("health_green.json")

	suite.Executor.
		On("StopService", mock.Anything, master1.Host, testService).
		Return(CommandResult{Succeeded: true}, nil).
		Once()
	suite.Executor.
		On("Reboot", mock.Anything, master1.Host).
		Return(nil).
		Once()
	suite.Executor.
		On("Probe", mock.Anything, master1.Host).
		Return(true).
		Once()

	config := testConfig()
	config.GuardService = ""
	m := suite.newSUT(master1, ModeRebootClusterService, config)
	suite.NoError(m.Run(suite.Ctx))
	suite.Executor.AssertNotCalled(suite.T(), "IsServiceRunning", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *NodeMaintenanceTestSuite) TestRebootGeneric() {
	const (
		host    = "kibana1.foo.com"
		service = "kibana"
	)
	node := Node{Host: host, Role: RoleOther}
	config := testConfig()
	config.Service = service
	config.GuardService = ""

	suite.Run("service stops", func() {
		ex := suite.Executor
		ex.On("IsServiceRunning", mock.Anything, host, service).Return(true, nil).Once()
		ex.On("StopService", mock.Anything, host, service).Return(CommandResult{Succeeded: true}, nil).Once()
		ex.On("IsServiceRunning", mock.Anything, host, service).Return(false, nil).Once()
		ex.On("Reboot", mock.Anything, host).Return(nil).Once()
		ex.On("Probe", mock.Anything, host).Return(true).Once()
		ex.On("IsServiceRunning", mock.Anything, host, service).Return(false, nil).Once()
		ex.On("IsServiceRunning", mock.Anything, host, service).Return(true, nil).Once()

		m := suite.newSUT(node, ModeRebootGenericService, config)
		suite.NoError(m.Run(suite.Ctx))
		suite.Equal(StateDone, m.State())
		ex.AssertExpectations(suite.T())
		suite.Empty(suite.Requests.Requests())
	})

	suite.Run("service keeps running", func() {
		ex := &mocks.NodeExecutor{}
		suite.Executor = ex
		ex.On("IsServiceRunning", mock.Anything, host, service).Return(true, nil)
		ex.On("StopService", mock.Anything, host, service).Return(CommandResult{Failed: true, ExitStatus: 1}, nil).Once()
		ex.On("Probe", mock.Anything, host).Return(true).Once()

		m := suite.newSUT(node, ModeRebootGenericService, config)
		suite.NoError(m.Run(suite.Ctx))
		ex.AssertNotCalled(suite.T(), "Reboot", mock.Anything, mock.Anything)
		suite.Empty(suite.Requests.Requests())
	})
}

func (suite *NodeMaintenanceTestSuite) TestRun_hostNeverComesBack() {
	const host = "kibana1.foo.com"
	ex := suite.Executor
	ex.On("IsServiceRunning", mock.Anything, host, "kibana").Return(false, nil)
	ex.On("Reboot", mock.Anything, host).Return(nil).Once()
	ex.On("Probe", mock.Anything, host).Return(false)

	config := testConfig()
	config.Service = "kibana"
	config.Timing.WaitTimeout = 20 * time.Millisecond
	m := suite.newSUT(Node{Host: host, Role: RoleOther}, ModeRebootGenericService, config)

	err := m.Run(suite.Ctx)
	if suite.Error(err) {
		suite.Equal(context.DeadlineExceeded, errors.Cause(err))
	}
	suite.Equal(StateAwaitingConnectivity, m.State())
	suite.False(m.Report().Done())
	ex.AssertNotCalled(suite.T(), "StopService", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *NodeMaintenanceTestSuite) TestStepsRejectsOutOfOrderEvents() {
	m := suite.newSUT(data1, ModeRestartClusterService, testConfig())
	err := rationalizeFSMError(m.state.Event(eventFlush, suite.Ctx))
	suite.Error(err)
	suite.Equal(StateIdle, m.State())
}
