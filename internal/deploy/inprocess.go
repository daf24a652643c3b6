package deploy

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"cogc/internal/ir"
)

// InProcessDeployer launches the generated application as a plain
// subprocess instead of inside a container — the graceful degradation
// path taken when the orchestrator hosting the
// pipeline cannot supply Docker. It never claims to be a Docker
// lifecycle run; callers must check Kind() and record it in the
// manifest rather than silently treating the two as equivalent.
type InProcessDeployer struct {
	infra   ir.Infrastructure
	mu      sync.Mutex
	cmd     *exec.Cmd
	sourceDir string
}

// NewInProcessDeployer returns an InProcessDeployer for infra.
func NewInProcessDeployer(infra ir.Infrastructure) *InProcessDeployer {
	return &InProcessDeployer{infra: infra}
}

func (d *InProcessDeployer) Kind() string { return "in_process" }

// Build is a no-op for the in-process path beyond recording sourceDir:
// there is no image to build, the interpreter loads source directly.
// noCache is accepted for interface parity and ignored.
func (d *InProcessDeployer) Build(ctx context.Context, sourceDir string, noCache bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sourceDir = sourceDir
	return nil
}

// Up launches the application runtime as a child process. The command
// is always python's uvicorn launcher, the compiler's default target
// language; Infrastructure.Runtime is not consulted.
func (d *InProcessDeployer) Up(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	port := 8000
	for _, p := range d.infra.Ports {
		if !p.IsPrimaryDB {
			port = p.Number
			break
		}
	}

	cmd := exec.Command("uvicorn", "src.main:app", "--port", fmt.Sprintf("%d", port))
	cmd.Dir = d.sourceDir
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("deploy: in-process launch failed: %w", err)
	}
	d.cmd = cmd

	// Give the application a moment to bind its port before the caller
	// starts issuing smoke requests against it.
	time.Sleep(500 * time.Millisecond)
	return fmt.Sprintf("http://localhost:%d", port), nil
}

// Down terminates the launched subprocess, if running.
func (d *InProcessDeployer) Down(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	return d.cmd.Process.Kill()
}
