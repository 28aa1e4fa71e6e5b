package database

import (
	"fmt"
	"path/filepath"

	"notty-go/internal/config"
	"notty-go/internal/notty"
)

// HistoryFile is the database file name inside data_dir.
const HistoryFile = "history.db"

// NewHistoryFromConfig creates a History based on the database config type.
func NewHistoryFromConfig(cfg config.DatabaseConfig, idgen notty.IDGenerator) (notty.History, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteHistory(filepath.Join(cfg.DataDir, HistoryFile), idgen)
	case "memory":
		return NewSQLiteHistory(":memory:", idgen)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
