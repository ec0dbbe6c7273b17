// Package oci pulls style-transfer modules published as OCI artifacts.
package oci

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
)

// WASMLayerMediaType identifies the layer holding the compiled module.
const WASMLayerMediaType = "application/vnd.multiscale.transfer.wasm.v1"

// ErrNoWASMLayer is returned when a manifest carries no module layer.
var ErrNoWASMLayer = errors.New("no WASM layer found")

// Fetcher downloads module bytes from an OCI registry.
type Fetcher struct {
	auth   AuthProvider
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil auth provider means anonymous access.
func NewFetcher(auth AuthProvider, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{auth: auth, logger: logger}
}

// Pull fetches the module referenced by ref, e.g. "ghcr.io/acme/stylize:1.0".
func (f *Fetcher) Pull(ctx context.Context, ref string) ([]byte, error) {
	parsed, err := registry.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}
	if parsed.Reference == "" {
		parsed.Reference = "latest"
	}

	repo, err := remote.NewRepository(parsed.Registry + "/" + parsed.Repository)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	client := &auth.Client{
		Client: &http.Client{Transport: &RetryTransport{Logger: f.logger}},
		Cache:  auth.NewCache(),
	}
	if f.auth != nil {
		username, password, err := f.auth.GetCredentials(ctx, parsed.Registry)
		if err == nil && username != "" {
			client.Credential = auth.StaticCredential(parsed.Registry, auth.Credential{
				Username: username,
				Password: password,
			})
		}
	}
	repo.Client = client

	f.logger.DebugContext(ctx, "pulling transfer module", "reference", parsed.String())
	return f.PullFrom(ctx, repo, parsed.Reference)
}

// PullFrom fetches the module tagged tag from src.
func (f *Fetcher) PullFrom(ctx context.Context, src oras.ReadOnlyTarget, tag string) ([]byte, error) {
	store := memory.New()
	manifestDesc, err := oras.Copy(ctx, src, tag, store, tag, oras.CopyOptions{})
	if err != nil {
		return nil, fmt.Errorf("pull artifact: %w", err)
	}

	manifestBytes, err := content.FetchAll(ctx, store, manifestDesc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}

	layer, err := findWASMLayer(&manifest)
	if err != nil {
		return nil, err
	}

	wasmBytes, err := content.FetchAll(ctx, store, layer)
	if err != nil {
		return nil, fmt.Errorf("fetch wasm: %w", err)
	}

	f.logger.DebugContext(ctx, "pulled transfer module", "digest", layer.Digest.String(), "size", layer.Size)
	return wasmBytes, nil
}

func findWASMLayer(manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	for _, layer := range manifest.Layers {
		if layer.MediaType == WASMLayerMediaType {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, ErrNoWASMLayer
}
