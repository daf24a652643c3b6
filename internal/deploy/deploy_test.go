package deploy_test

import (
	"context"
	"testing"

	"cogc/internal/deploy"
	"cogc/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToInProcessWhenDockerUnavailableAndNotEnforced(t *testing.T) {
	if deploy.IsDockerAvailable() {
		t.Skip("docker is available in this test environment; fallback path not exercised")
	}
	d, err := deploy.New(ir.Infrastructure{}, false)
	require.NoError(t, err)
	assert.Equal(t, "in_process", d.Kind())
}

func TestNewErrorsWhenDockerEnforcedButUnavailable(t *testing.T) {
	if deploy.IsDockerAvailable() {
		t.Skip("docker is available in this test environment; enforcement failure not exercised")
	}
	_, err := deploy.New(ir.Infrastructure{}, true)
	assert.Error(t, err)
}

func TestInProcessDeployerDownIsNoOpBeforeUp(t *testing.T) {
	d := deploy.NewInProcessDeployer(ir.Infrastructure{})
	assert.NoError(t, d.Down(context.Background()))
}

func TestInProcessDeployerKind(t *testing.T) {
	d := deploy.NewInProcessDeployer(ir.Infrastructure{})
	assert.Equal(t, "in_process", d.Kind())
}

func TestDockerDeployerKind(t *testing.T) {
	d := deploy.NewDockerDeployer(ir.Infrastructure{})
	assert.Equal(t, "docker", d.Kind())
}
