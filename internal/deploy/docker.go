package deploy

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"cogc/internal/ir"
)

// dockerAvailability caches the detection result process-wide — the
// probe shells out, and the answer cannot change mid-process.
var (
	dockerOnce      sync.Once
	dockerAvailable bool
	dockerPath      string
)

// IsDockerAvailable reports whether a responsive docker binary was
// found on PATH — same two-step check the teacher's DockerExecutor
// runs: LookPath, then a bounded `docker version` probe.
func IsDockerAvailable() bool {
	dockerOnce.Do(func() {
		path, err := exec.LookPath("docker")
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cmd := exec.CommandContext(ctx, path, "version", "--format", "{{.Server.Version}}")
		if err := cmd.Run(); err != nil {
			return
		}
		dockerPath = path
		dockerAvailable = true
	})
	return dockerAvailable
}

// DockerDeployer runs the generated application inside a Docker
// container via `docker compose`.
type DockerDeployer struct {
	infra       ir.Infrastructure
	composeFile string
	projectName string
}

// NewDockerDeployer returns a DockerDeployer for infra. composeFile is
// "docker-compose.yml", passed to `docker compose -f` as a relative path,
// so it resolves against the process's working directory; the source
// directory passed to Build is not used to locate it.
func NewDockerDeployer(infra ir.Infrastructure) *DockerDeployer {
	return &DockerDeployer{infra: infra, composeFile: "docker-compose.yml", projectName: "cogc-smoke"}
}

func (d *DockerDeployer) Kind() string { return "docker" }

// Build runs `docker build`, adding --no-cache when forced: the
// runner may rebuild the container without cache, guarded by the
// docker_rebuild_between_repairs configuration flag.
func (d *DockerDeployer) Build(ctx context.Context, sourceDir string, noCache bool) error {
	args := []string{"build"}
	if noCache {
		args = append(args, "--no-cache")
	}
	args = append(args, "-t", d.projectName, sourceDir)
	return d.run(ctx, args...)
}

// Up starts the application via `docker compose up -d` and returns the
// primary port's base URL.
func (d *DockerDeployer) Up(ctx context.Context) (string, error) {
	if err := d.run(ctx, "compose", "-f", d.composeFile, "-p", d.projectName, "up", "-d"); err != nil {
		return "", err
	}
	port := 8000
	for _, p := range d.infra.Ports {
		if p.IsPrimaryDB {
			continue
		}
		port = p.Number
		break
	}
	return fmt.Sprintf("http://localhost:%d", port), nil
}

// Down stops and removes the compose project.
func (d *DockerDeployer) Down(ctx context.Context) error {
	return d.run(ctx, "compose", "-f", d.composeFile, "-p", d.projectName, "down", "-v")
}

func (d *DockerDeployer) run(ctx context.Context, args ...string) error {
	if !IsDockerAvailable() {
		return fmt.Errorf("deploy: docker is no longer available")
	}
	cmd := exec.CommandContext(ctx, dockerPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("deploy: docker %v failed: %w: %s", args, err, out)
	}
	return nil
}
