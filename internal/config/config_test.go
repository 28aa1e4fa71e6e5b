package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/notty",
		LogDir:  "/home/user/.local/share/notty/log",
		Editor:  "nano",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: "/home/user/.local/share/notty/db",
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "usb", FSVaultRoot: "/media/usb/notty"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/notty/keys/notty.pub",
			PrivateKeyPath: "/home/user/.local/share/notty/keys/notty.key",
		},
		Filesystem: FilesystemConfig{Ignore: []string{"*.pyc", ".DS_Store"}},
	}

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Editor != "nano" {
		t.Errorf("Editor = %q, want %q", got.Editor, "nano")
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if len(got.Vaults) != 1 || got.Vaults[0] != original.Vaults[0] {
		t.Errorf("Vaults = %+v, want %+v", got.Vaults, original.Vaults)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if len(got.Filesystem.Ignore) != 2 || got.Filesystem.Ignore[1] != ".DS_Store" {
		t.Errorf("Filesystem.Ignore = %v", got.Filesystem.Ignore)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/notty")

	if cfg.LogDir != "/data/notty/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/notty/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/notty/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if len(cfg.Vaults) != 1 || cfg.Vaults[0].FSVaultRoot != "/data/notty/vault" {
		t.Errorf("Vaults = %+v", cfg.Vaults)
	}
	if cfg.Encryption.PublicKeyPath != "/data/notty/keys/notty.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Encryption.PrivateKeyPath != "/data/notty/keys/notty.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "memory database",
			mutate: func(c *Config) { c.Database = DatabaseConfig{Type: "memory"} },
		},
		{
			name:    "unknown database type",
			mutate:  func(c *Config) { c.Database.Type = "postgres" },
			wantErr: "unknown database type",
		},
		{
			name:    "sqlite without data dir",
			mutate:  func(c *Config) { c.Database.DataDir = "" },
			wantErr: "data_dir",
		},
		{
			name:    "unnamed vault",
			mutate:  func(c *Config) { c.Vaults = []VaultConfig{{Type: "memory"}} },
			wantErr: "no name",
		},
		{
			name: "duplicate vault names",
			mutate: func(c *Config) {
				c.Vaults = []VaultConfig{{Type: "memory", Name: "a"}, {Type: "memory", Name: "a"}}
			},
			wantErr: "duplicate vault name",
		},
		{
			name:    "unknown encryption type",
			mutate:  func(c *Config) { c.Encryption.Type = "rot13" },
			wantErr: "unknown encryption type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/notty")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "conf", "notty.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notty.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		dir := t.TempDir()
		cfg := NewConfig(dir)
		cfg.Database.Type = "nope"
		if err := Init(filepath.Join(dir, "notty.toml"), cfg); err == nil {
			t.Fatal("Init() expected error for invalid config")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notty.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/notty.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Load(filepath.Join(dir, "missing.toml"), dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
		}
		if cfg.Database.Type != "sqlite" {
			t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
		}
	})

	t.Run("fills omitted sections", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notty.toml")
		content := "[filesystem]\nignore = [\"*.bak\"]\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cfg, err := Load(path, dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.LogDir != filepath.Join(dir, "log") {
			t.Errorf("LogDir = %q, want %q", cfg.LogDir, filepath.Join(dir, "log"))
		}
		if cfg.Database.DataDir != filepath.Join(dir, "db") {
			t.Errorf("Database.DataDir = %q", cfg.Database.DataDir)
		}
		if len(cfg.Filesystem.Ignore) != 1 || cfg.Filesystem.Ignore[0] != "*.bak" {
			t.Errorf("Filesystem.Ignore = %v", cfg.Filesystem.Ignore)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notty.toml")
		if err := os.WriteFile(path, []byte("log_dir = [unterminated"), 0644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		if _, err := Load(path, dir); err == nil {
			t.Fatal("Load() expected error for malformed file")
		}
	})
}
