package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrArtifactsExist is returned when a working directory already holds step
// outputs and overwriting them was not confirmed.
var ErrArtifactsExist = errors.New("step artifacts already exist")

// Confirmer asks whether existing artifacts may be overwritten.
type Confirmer interface {
	IsInteractive() bool
	ConfirmOverwrite(existing []string) (bool, error)
}

// Existing lists the step outputs present in fsys, ordered by iteration.
func Existing(fsys fs.FS, n Naming) ([]string, error) {
	matches, err := doublestar.Glob(fsys, n.Pattern())
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var names []string
	for _, m := range matches {
		if _, ok := n.Index(m); ok {
			names = append(names, m)
		}
	}
	sort.Slice(names, func(a, b int) bool {
		ia, _ := n.Index(names[a])
		ib, _ := n.Index(names[b])
		return ia < ib
	})
	return names, nil
}

// Guard checks a working directory before a run.
type Guard struct {
	confirmer Confirmer
	logger    *slog.Logger
	naming    Naming
	force     bool
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithConfirmer sets the prompt used when the session is interactive.
func WithConfirmer(c Confirmer) GuardOption {
	return func(g *Guard) {
		g.confirmer = c
	}
}

// WithLogger sets the logger used for guard diagnostics.
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithForce allows overwriting without asking.
func WithForce(force bool) GuardOption {
	return func(g *Guard) {
		g.force = force
	}
}

// NewGuard creates a Guard for the given naming.
func NewGuard(n Naming, opts ...GuardOption) *Guard {
	g := &Guard{naming: n, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns nil when dir holds no step outputs, when overwriting is
// forced, or when an interactive confirmer agrees.
func (g *Guard) Check(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("artifact directory is required")
	}

	existing, err := Existing(os.DirFS(dir), g.naming)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	g.logger.DebugContext(ctx, "Found existing step artifacts.", "dir", dir, "count", len(existing))

	if g.force {
		return nil
	}

	if g.confirmer == nil || !g.confirmer.IsInteractive() {
		return fmt.Errorf("%w in %s: %d files", ErrArtifactsExist, dir, len(existing))
	}

	ok, err := g.confirmer.ConfirmOverwrite(existing)
	if err != nil {
		return fmt.Errorf("overwrite prompt failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w in %s: overwrite declined", ErrArtifactsExist, dir)
	}
	return nil
}
