package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, host, command string) (Result, error) {
	args := m.Called(ctx, host, command)
	return args.Get(0).(Result), args.Error(1)
}

func TestSystemd_IsServiceRunning(t *testing.T) {
	ctx := context.Background()
	r := &mockRunner{}
	r.On("Run", ctx, "es1", "systemctl is-active --quiet elasticsearch").Return(Result{Succeeded: true}, nil).Once()
	r.On("Run", ctx, "es2", "systemctl is-active --quiet elasticsearch").Return(Result{Failed: true, ExitStatus: 3}, nil).Once()
	s := NewSystemd(r)

	running, err := s.IsServiceRunning(ctx, "es1", "elasticsearch")
	assert.NoError(t, err)
	assert.True(t, running)

	running, err = s.IsServiceRunning(ctx, "es2", "elasticsearch")
	assert.NoError(t, err)
	assert.False(t, running)

	r.AssertExpectations(t)
}

func TestSystemd_invalidUnit(t *testing.T) {
	s := NewSystemd(&mockRunner{})
	_, err := s.IsServiceRunning(context.Background(), "es1", "foo; reboot")
	assert.Error(t, err)
	_, err = s.StopService(context.Background(), "es1", "")
	assert.Error(t, err)
	_, err = s.RestartService(context.Background(), "es1", "a b")
	assert.Error(t, err)
}

func TestSystemd_StopRestart(t *testing.T) {
	ctx := context.Background()
	r := &mockRunner{}
	r.On("Run", ctx, "es1", "systemctl stop elasticsearch-es-01").Return(Result{Succeeded: true}, nil).Once()
	r.On("Run", ctx, "es1", "systemctl restart elasticsearch-es-01").Return(Result{Failed: true, ExitStatus: 5}, nil).Once()
	s := NewSystemd(r)

	res, err := s.StopService(ctx, "es1", "elasticsearch-es-01")
	assert.NoError(t, err)
	assert.True(t, res.Succeeded)

	res, err = s.RestartService(ctx, "es1", "elasticsearch-es-01")
	assert.NoError(t, err)
	assert.True(t, res.Failed)

	r.AssertExpectations(t)
}

func TestSystemd_Reboot(t *testing.T) {
	ctx := context.Background()
	r := &mockRunner{}
	r.On("Run", ctx, "es1", "reboot").Return(Result{}, errors.New("connection lost")).Once()
	r.On("Run", ctx, "es2", "reboot").Return(Result{Failed: true, ExitStatus: 1}, nil).Once()
	r.On("Run", ctx, "es3", "reboot").Return(Result{Succeeded: true}, nil).Once()
	s := NewSystemd(r)

	assert.Error(t, s.Reboot(ctx, "es1"))
	assert.Error(t, s.Reboot(ctx, "es2"))
	assert.NoError(t, s.Reboot(ctx, "es3"))
	r.AssertExpectations(t)
}

func TestSystemd_Probe(t *testing.T) {
	ctx := context.Background()
	r := &mockRunner{}
	r.On("Run", ctx, "up", "ls").Return(Result{Succeeded: true}, nil)
	r.On("Run", ctx, "down", "ls").Return(Result{}, errors.New("connection refused"))
	s := NewSystemd(r)

	assert.True(t, s.Probe(ctx, "up"))
	assert.False(t, s.Probe(ctx, "down"))
}
