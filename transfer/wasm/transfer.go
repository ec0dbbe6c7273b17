// Package wasm hosts a style-transfer routine compiled to WebAssembly.
//
// The module must export its memory, an "allocate" function taking a length
// and returning a pointer, and an entry function (default "transfer") taking
// a packed pointer/length of the JSON parameters. The entry returns a packed
// pointer/length of a JSON result; a zero length means success. Modules may
// import env.log_message to log through the host.
package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// DefaultEntry is the exported function called when no entry is configured.
const DefaultEntry = "transfer"

// ErrTransferFailed is returned when the module reports a failed iteration.
var ErrTransferFailed = errors.New("transfer failed")

// Transfer runs one iteration of the style-transfer routine per call.
type Transfer struct {
	runtime wazero.Runtime
	module  api.Module
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
	entry   string
	dir     string
}

// result is the JSON document a module returns from its entry function.
type result struct {
	Error string `json:"error,omitempty"`
}

// New compiles and instantiates the module.
func New(ctx context.Context, wasmBytes []byte, opts ...Option) (*Transfer, error) {
	t := &Transfer{
		entry:  DefaultEntry,
		logger: slog.Default(),
		stdout: io.Discard,
		stderr: io.Discard,
	}
	for _, opt := range opts {
		opt(t)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	t.runtime = rt

	if err := t.instantiate(ctx, wasmBytes); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return t, nil
}

func (t *Transfer) instantiate(ctx context.Context, wasmBytes []byte) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, t.runtime); err != nil {
		return fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	_, err := t.runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(t.logMessage), []api.ValueType{api.ValueTypeI64}, []api.ValueType{}).
		Export("log_message").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("failed to register host functions: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName("transfer").
		WithStdout(t.stdout).
		WithStderr(t.stderr).
		WithStartFunctions("_initialize")
	if t.dir != "" {
		cfg = cfg.WithFSConfig(wazero.NewFSConfig().WithDirMount(t.dir, "/"))
	}

	mod, err := t.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		return fmt.Errorf("failed to instantiate module: %w", err)
	}

	if mod.Memory() == nil {
		return fmt.Errorf("module does not export memory")
	}
	for _, name := range []string{"allocate", t.entry} {
		if mod.ExportedFunction(name) == nil {
			return fmt.Errorf("function %q not exported", name)
		}
	}

	t.module = mod
	return nil
}

// Transfer calls the entry function with params encoded as JSON.
func (t *Transfer) Transfer(ctx context.Context, params map[string]any) error {
	input, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	packed, err := t.callRaw(ctx, t.entry, input)
	if err != nil {
		return err
	}

	var res result
	if err := t.unmarshalPacked(packed, &res); err != nil {
		return fmt.Errorf("failed to read transfer result: %w", err)
	}
	if res.Error != "" {
		return fmt.Errorf("%w: %s", ErrTransferFailed, res.Error)
	}
	return nil
}

// Close releases resources held by the runtime.
func (t *Transfer) Close(ctx context.Context) error {
	return t.runtime.Close(ctx)
}

// callRaw invokes a module function with raw bytes.
func (t *Transfer) callRaw(ctx context.Context, name string, input []byte) (uint64, error) {
	fn := t.module.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("function %q not found", name)
	}

	var ptr uint64
	var length uint64
	if len(input) > 0 {
		res, err := t.module.ExportedFunction("allocate").Call(ctx, uint64(len(input)))
		if err != nil {
			return 0, fmt.Errorf("allocate failed: %w", err)
		}
		ptr = res[0]
		length = uint64(len(input))

		//nolint:gosec // WASM pointers are 32-bit
		if !t.module.Memory().Write(uint32(ptr), input) {
			return 0, fmt.Errorf("failed to write input to memory")
		}
	}

	res, err := fn.Call(ctx, PackPtrLen(ptr, length))
	if err != nil {
		return 0, fmt.Errorf("call failed: %w", err)
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

// unmarshalPacked reads JSON from packed ptr+len and unmarshals it.
func (t *Transfer) unmarshalPacked(packed uint64, v any) error {
	ptr, length := UnpackPtrLen(packed)
	if length == 0 {
		return nil
	}

	data, ok := t.module.Memory().Read(ptr, length)
	if !ok {
		return fmt.Errorf("failed to read result from memory")
	}
	return json.Unmarshal(data, v)
}

// PackPtrLen packs a pointer and a length into one value.
func PackPtrLen(ptr, length uint64) uint64 {
	return (ptr << 32) | (length & 0xffffffff)
}

// UnpackPtrLen splits a packed value into pointer and length.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	//nolint:gosec // WASM pointers and lengths are 32-bit
	return uint32(packed >> 32), uint32(packed)
}
