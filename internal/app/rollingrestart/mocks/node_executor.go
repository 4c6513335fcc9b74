package mocks

import (
	"context"

	"github.com/stretchr/testify/mock" // Mocking for tests.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/remote" // SSH command execution.
)

// NodeExecutor is a mock of the rolling restart's NodeExecutor.
type NodeExecutor struct {
	mock.Mock
}

func (m *NodeExecutor) IsServiceRunning(ctx context.Context, host, service string) (bool, error) {
	ret := m.Called(ctx, host, service)
	return ret.Bool(0), ret.Error(1)
}

func (m *NodeExecutor) StopService(ctx context.Context, host, service string) (remote.Result, error) {
	ret := m.Called(ctx, host, service)
	return ret.Get(0).(remote.Result), ret.Error(1)
}

func (m *NodeExecutor) RestartService(ctx context.Context, host, service string) (remote.Result, error) {
	ret := m.Called(ctx, host, service)
	return ret.Get(0).(remote.Result), ret.Error(1)
}

func (m *NodeExecutor) Reboot(ctx context.Context, host string) error {
	ret := m.Called(ctx, host)
	return ret.Error(0)
}

func (m *NodeExecutor) Probe(ctx context.Context, host string) bool {
	ret := m.Called(ctx, host)
	return ret.Bool(0)
}
