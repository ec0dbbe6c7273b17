package oci

import (
	"context"
	"os"
)

// AuthProvider supplies registry credentials.
type AuthProvider interface {
	GetCredentials(ctx context.Context, registry string) (username, password string, err error)
}

// EnvAuthProvider retrieves credentials from environment variables.
type EnvAuthProvider struct{}

// NewEnvAuthProvider creates a new environment-based auth provider.
func NewEnvAuthProvider() *EnvAuthProvider {
	return &EnvAuthProvider{}
}

// GetCredentials returns REGISTRY_USERNAME and REGISTRY_PASSWORD for any registry.
func (p *EnvAuthProvider) GetCredentials(_ context.Context, _ string) (username, password string, err error) {
	return os.Getenv("REGISTRY_USERNAME"), os.Getenv("REGISTRY_PASSWORD"), nil
}
