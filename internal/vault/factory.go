package vault

import (
	"fmt"

	"notty-go/internal/config"
	"notty-go/internal/notty"
)

// NewVaultFromConfig creates an ArchiveVault based on the vault config type.
func NewVaultFromConfig(cfg config.VaultConfig) (notty.ArchiveVault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(cfg.Name), nil
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_vault_root to be set")
		}
		return NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
