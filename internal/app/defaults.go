package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the paths notty uses when no config file overrides them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves default paths from the environment.
//
// The config file is NOTTY_CONFIG_PATH, else $XDG_CONFIG_HOME/notty.toml,
// else ~/.config/notty.toml. Data lives in NOTTY_HOME, else
// $XDG_DATA_HOME/notty, else ~/.local/share/notty.
func GetDefaults() (*Defaults, error) {
	configPath, err := resolvePath("NOTTY_CONFIG_PATH", "XDG_CONFIG_HOME", "notty.toml", ".config")
	if err != nil {
		return nil, err
	}
	baseDir, err := resolvePath("NOTTY_HOME", "XDG_DATA_HOME", "notty", ".local", "share")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// resolvePath returns the value of override if set, else name under the xdg
// directory, else name under the home-relative fallback.
func resolvePath(override, xdg, name string, fallback ...string) (string, error) {
	if path := os.Getenv(override); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdg); filepath.IsAbs(dir) {
		return filepath.Join(dir, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	parts := append([]string{homeDir}, fallback...)
	return filepath.Join(append(parts, name)...), nil
}
