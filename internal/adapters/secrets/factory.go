// Package secrets reads credentials (database password, processor API key,
// cron shared secret) from the environment, local files, AWS Secrets Manager
// or HashiCorp Vault.
package secrets

import (
	"context"
	"fmt"

	"github.com/kevin07696/transaction-gateway/internal/adapters/ports"
	"github.com/kevin07696/transaction-gateway/internal/config"
	"go.uber.org/zap"
)

// New builds the secret manager selected by cfg.Provider
func New(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Provider {
	case "env", "":
		return NewEnvSecretManager(), nil
	case "file":
		return NewLocalSecretManager(cfg.FileDir, logger), nil
	case "aws":
		awsCfg := DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		return NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
	case "vault":
		vaultCfg := DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		if cfg.VaultMount != "" {
			vaultCfg.MountPath = cfg.VaultMount
		}
		return NewVaultAdapter(ctx, vaultCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets provider: %s", cfg.Provider)
	}
}

// Resolve returns current when it is already set, otherwise the secret at path.
// A failed lookup is logged and leaves current unchanged.
func Resolve(ctx context.Context, mgr ports.SecretManagerAdapter, path, current string, logger *zap.Logger) string {
	if current != "" || path == "" {
		return current
	}

	secret, err := mgr.GetSecret(ctx, path)
	if err != nil {
		logger.Warn("Secret not resolved, keeping configured value",
			zap.String("path", path),
			zap.Error(err),
		)
		return current
	}
	return secret.Value
}
