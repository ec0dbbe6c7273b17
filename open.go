package multiscale

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reglet-dev/reglet-multiscale/config"
	"github.com/reglet-dev/reglet-multiscale/transfer/oci"
	"github.com/reglet-dev/reglet-multiscale/transfer/wasm"
)

var _ Transfer = (*wasm.Transfer)(nil)

// Puller fetches a module by OCI reference.
type Puller interface {
	Pull(ctx context.Context, ref string) ([]byte, error)
}

// OpenTransfer loads the WebAssembly module named by cfg, from disk or from
// an OCI registry, with workDir mounted as its root directory. A nil puller
// pulls with credentials from the environment.
func OpenTransfer(ctx context.Context, cfg config.Transfer, workDir string, puller Puller, logger *slog.Logger) (*wasm.Transfer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		wasmBytes []byte
		err       error
	)
	switch {
	case cfg.Module != "":
		wasmBytes, err = os.ReadFile(filepath.Clean(cfg.Module))
		if err != nil {
			return nil, fmt.Errorf("failed to read transfer module: %w", err)
		}
	case cfg.Reference != "":
		if puller == nil {
			puller = oci.NewFetcher(oci.NewEnvAuthProvider(), logger)
		}
		wasmBytes, err = puller.Pull(ctx, cfg.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to pull transfer module: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: no transfer module or reference configured", config.ErrInvalid)
	}

	t, err := wasm.New(ctx, wasmBytes,
		wasm.WithEntry(cfg.Entry),
		wasm.WithDir(workDir),
		wasm.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer module: %w", err)
	}
	return t, nil
}
