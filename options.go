package multiscale

import (
	"log/slog"

	"github.com/reglet-dev/reglet-multiscale/artifact"
	"github.com/reglet-dev/reglet-multiscale/registry"
	"github.com/reglet-dev/reglet-multiscale/strategy"
)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used by the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithProjectRoot resolves a relative model_file parameter against dir.
func WithProjectRoot(dir string) Option {
	return func(d *Driver) {
		d.projectRoot = dir
	}
}

// WithNaming overrides the artifact names passed to the transfer routine.
func WithNaming(n artifact.Naming) Option {
	return func(d *Driver) {
		d.naming = n
	}
}

// WithRegistry builds the strategies against r instead of the default registry.
func WithRegistry(r *registry.Registry[strategy.Strategy]) Option {
	return func(d *Driver) {
		d.strategies = r
	}
}

// WithRecorder saves the run journal to path after the run ends.
func WithRecorder(repo Recorder, path string) Option {
	return func(d *Driver) {
		d.recorder = repo
		d.journalPath = path
	}
}

// WithGuard checks dir for step outputs of an earlier run before the first
// iteration.
func WithGuard(g *artifact.Guard, dir string) Option {
	return func(d *Driver) {
		d.guard = g
		d.workDir = dir
	}
}

// WithOverwriteCheck checks dir for step outputs of an earlier run before the
// first iteration, asking on the terminal before overwriting them unless
// force is set. A guard set with WithGuard takes precedence.
func WithOverwriteCheck(dir string, force bool) Option {
	return func(d *Driver) {
		d.workDir = dir
		d.force = force
		d.checkOverwrite = true
	}
}
