// Package deploy implements the smoke runner's Docker lifecycle policy:
// build/up/down the generated application's container
// between repair iterations, optionally without cache, and degrade
// gracefully to an in-process launch when Docker is unavailable — the
// policy is explicit, never silent. Grounded on the teacher's
// `internal/tactile/docker.go` DockerExecutor: exec.LookPath + a
// responsiveness probe to detect availability before ever shelling out
// for real work, and `executor_interface.go`'s Execute/Capabilities
// contract, narrowed to the deploy lifecycle this package needs
// (build/up/down) rather than the teacher's general arbitrary-command
// sandboxed executor surface.
package deploy

import (
	"context"
	"fmt"

	"cogc/internal/ir"
)

// Deployer is the service lifecycle surface SmokeRunner drives.
type Deployer interface {
	// Build (re)builds the application image. noCache forces a
	// from-scratch build, the rebuild-between-repairs policy (guarded
	// by config.ExecutionConfig.DockerRebuildBetweenRepairs).
	Build(ctx context.Context, sourceDir string, noCache bool) error
	// Up starts the application and returns its reachable base URL.
	Up(ctx context.Context) (baseURL string, err error)
	// Down stops and removes the application's running container(s).
	Down(ctx context.Context) error
	// Kind names which Deployer implementation is in effect, recorded
	// in the manifest so a degraded run is never silently mistaken for
	// a full Docker lifecycle run.
	Kind() string
}

// New returns a Docker-backed Deployer whenever Docker is available,
// else an in-process Deployer unless enforceDocker forbids falling back.
// enforceDocker=true with Docker unavailable is a hard configuration
// error, matching the enforce_docker_runtime knob's contract.
func New(infra ir.Infrastructure, enforceDocker bool) (Deployer, error) {
	if IsDockerAvailable() {
		return NewDockerDeployer(infra), nil
	}
	if enforceDocker {
		return nil, fmt.Errorf("deploy: docker required by configuration but not available on this host")
	}
	return NewInProcessDeployer(infra), nil
}
