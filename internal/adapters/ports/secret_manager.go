package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., processor API key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for reading credentials from a secret store.
// Backends: environment variables, local files, AWS Secrets Manager, HashiCorp Vault.
type SecretManagerAdapter interface {
	// GetSecret retrieves the current value of a secret by its path/name.
	// Path format depends on implementation:
	//   - AWS: "transaction-gateway/processor-api-key"
	//   - Vault: "transaction-gateway/processor-api-key" under the configured KV mount
	//   - env: upper-cased with non-alphanumerics replaced by "_"
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret.
	// Backends without versioning return the current value.
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
