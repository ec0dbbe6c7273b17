// Package multiscale runs a style-transfer routine several times in a row,
// feeding each iteration's output into the next one while its parameters
// follow per-parameter strategies.
//
// A Driver is built from a config.Run. Every iteration computes one value per
// strategy, adds the image names for that iteration, hands the parameters to
// a Transfer and then advances every strategy, whether or not the transfer
// succeeded.
package multiscale

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"time"

	"github.com/reglet-dev/reglet-multiscale/artifact"
	"github.com/reglet-dev/reglet-multiscale/config"
	"github.com/reglet-dev/reglet-multiscale/record"
	"github.com/reglet-dev/reglet-multiscale/registry"
	"github.com/reglet-dev/reglet-multiscale/strategy"
)

// Parameter names set by the driver on every iteration.
const (
	ParamContentImage = "content_image"
	ParamStyleImage   = "style_image"
	ParamOutputImage  = "output_image"
	ParamInit         = "init"
	ParamInitImage    = "init_image"
	ParamModelFile    = "model_file"
)

// Params is the parameter set of one iteration.
type Params = map[string]any

// Transfer runs one iteration of the style-transfer routine.
type Transfer interface {
	Transfer(ctx context.Context, params Params) error
}

// TransferFunc adapts a function to the Transfer interface.
type TransferFunc func(ctx context.Context, params Params) error

// Transfer calls f(ctx, params).
func (f TransferFunc) Transfer(ctx context.Context, params Params) error {
	return f(ctx, params)
}

// Recorder persists run journals.
type Recorder interface {
	Save(ctx context.Context, run *record.Run, path string) error
}

// Driver runs the iterations of a multi-scale run.
type Driver struct {
	transfer    Transfer
	recorder    Recorder
	logger      *slog.Logger
	guard       *artifact.Guard
	strategies  *registry.Registry[strategy.Strategy]
	set         strategy.Set
	naming      artifact.Naming
	projectRoot string
	journalPath string
	workDir     string
	steps       int

	checkOverwrite bool
	force          bool
}

// NewDriver builds the strategy set described by cfg.
func NewDriver(cfg *config.Run, t Transfer, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if t == nil {
		return nil, fmt.Errorf("transfer is required")
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", config.ErrInvalid, cfg.Steps)
	}

	d := &Driver{
		transfer:   t,
		logger:     slog.Default(),
		naming:     artifact.DefaultNaming(),
		strategies: strategy.Default(),
		steps:      cfg.Steps,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.naming.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact naming: %w", err)
	}

	if (d.guard != nil || d.checkOverwrite) && d.workDir == "" {
		return nil, fmt.Errorf("overwrite check requires a working directory")
	}
	if d.guard == nil && d.checkOverwrite {
		d.guard = artifact.NewGuard(d.naming,
			artifact.WithConfirmer(artifact.NewTerminalConfirmer()),
			artifact.WithForce(d.force),
			artifact.WithLogger(d.logger),
		)
	}

	set, err := strategy.BuildSetWith(d.strategies, cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to build strategies: %w", err)
	}
	d.set = set

	return d, nil
}

// Steps returns the number of iterations Run performs.
func (d *Driver) Steps() int {
	return d.steps
}

// Run performs every iteration and returns the journal of the run. The
// first failing iteration aborts the run; its error is returned along with
// the journal of the iterations attempted so far.
func (d *Driver) Run(ctx context.Context) (*record.Run, error) {
	journal := record.NewRun(d.steps)
	err := d.run(ctx, journal)
	journal.Finish(err)

	if d.recorder != nil {
		if saveErr := d.recorder.Save(ctx, journal, d.journalPath); saveErr != nil {
			d.logger.ErrorContext(ctx, "failed to save run journal", "path", d.journalPath, "error", saveErr)
			if err == nil {
				err = fmt.Errorf("failed to save run journal: %w", saveErr)
			}
		}
	}

	if err != nil {
		return journal, err
	}
	d.logger.InfoContext(ctx, "multi-scale run completed", "run_id", journal.ID, "steps", d.steps)
	return journal, nil
}

func (d *Driver) run(ctx context.Context, journal *record.Run) error {
	if d.guard != nil {
		if err := d.guard.Check(ctx, d.workDir); err != nil {
			return err
		}
	}

	for i := range d.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}

		params, err := d.Params(i)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}

		d.logger.DebugContext(ctx, "running iteration", "step", i, "input", params[ParamContentImage], "output", params[ParamOutputImage])

		snapshot := maps.Clone(params)
		start := time.Now()
		err = d.transfer.Transfer(ctx, params)
		d.set.Step()

		step := record.Step{
			Index:      i,
			Params:     snapshot,
			Input:      d.naming.Input(i),
			Output:     d.naming.Output(i),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			step.Error = err.Error()
		}
		journal.Add(step)

		if err != nil {
			return fmt.Errorf("iteration %d: transfer failed: %w", i, err)
		}
	}
	return nil
}

// Params computes the parameter set of iteration i from the strategies'
// current values. It does not advance the strategies.
func (d *Driver) Params(i int) (Params, error) {
	params, err := d.set.Compute()
	if err != nil {
		return nil, err
	}

	if model, ok := params[ParamModelFile].(string); ok && d.projectRoot != "" && model != "" && !filepath.IsAbs(model) {
		params[ParamModelFile] = filepath.Join(d.projectRoot, model)
	}

	input := d.naming.Input(i)
	params[ParamContentImage] = input
	params[ParamStyleImage] = d.naming.Style
	params[ParamInit] = "image"
	params[ParamInitImage] = input
	params[ParamOutputImage] = d.naming.Output(i)
	return params, nil
}
