package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Runner executes an external command. Injectable so the pipeline can be
// tested without a package installer on PATH.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands via os/exec, streaming output to the process
// stdio like the renderer's external tool invocations.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s command failed: %w", name, err)
	}
	return nil
}

// Provisioner updates the base runtime environment to satisfy the manifest.
// The environment is updated in place, not recreated; later stages run inside
// it implicitly.
type Provisioner struct {
	installer string
	runner    Runner
}

// NewProvisioner creates a provisioner using the configured installer binary.
func NewProvisioner(installer string, runner Runner) *Provisioner {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Provisioner{installer: installer, runner: runner}
}

// Provision parses the manifest inside the checkout and installs it into the
// base environment. Manifest errors (unsatisfiable, malformed) fail before the
// installer is invoked.
func (p *Provisioner) Provision(ctx context.Context, checkoutDir, manifestRel string) (int, error) {
	manifestPath := filepath.Join(checkoutDir, manifestRel)
	requirements, err := ParseManifest(manifestPath)
	if err != nil {
		return 0, err
	}

	slog.Info("Updating dependency environment",
		logfields.Path(manifestPath),
		slog.Int("requirements", len(requirements)))

	if err := p.runner.Run(ctx, checkoutDir, p.installer, "install", "--upgrade", "-r", manifestRel); err != nil {
		return 0, fmt.Errorf("failed to provision environment: %w", err)
	}
	return len(requirements), nil
}
