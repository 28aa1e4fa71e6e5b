package app

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notty-go/internal/config"
	"notty-go/internal/notty"
	"notty-go/internal/testutil"
	"notty-go/internal/todo"
	"notty-go/internal/vault"
)

// testConfig returns a config rooted at a temp dir with an in-memory vault
// and the test encryptor.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Vaults = []config.VaultConfig{{Type: "memory", Name: "mem"}}
	cfg.Encryption = config.EncryptionConfig{Type: "test"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, root, operation string) (*NottyApp, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	a, err := newNottyApp(cfg, root, operation, options{
		clock:   clock,
		idgen:   testutil.NewStubIDGenerator(),
		console: io.Discard,
	})
	if err != nil {
		t.Fatalf("newNottyApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, clock
}

// newInitializedApp returns an app bound to a freshly initialized repository.
func newInitializedApp(t *testing.T) *NottyApp {
	t.Helper()
	a, _ := newTestApp(t, testConfig(t), t.TempDir(), "test")
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return a
}

func TestNottyApp_Init(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t), t.TempDir(), "init")

	if a.Initialized() {
		t.Fatal("Initialized() = true before Init")
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !a.Initialized() {
		t.Fatal("Initialized() = false after Init")
	}

	again, _ := newTestApp(t, testConfig(t), a.Root(), "init")
	err := again.Init()
	if !errors.Is(err, notty.ErrRepositoryExists) {
		t.Fatalf("second Init() error = %v, want ErrRepositoryExists", err)
	}
	if again.op.Status != notty.OperationError {
		t.Errorf("operation status = %q, want %q", again.op.Status, notty.OperationError)
	}
}

func TestNottyApp_RequiresRepository(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t), t.TempDir(), "save")

	if _, err := a.Save("x"); !errors.Is(err, notty.ErrNotInitialized) {
		t.Errorf("Save() error = %v, want ErrNotInitialized", err)
	}
	if _, err := a.Notes(); !errors.Is(err, notty.ErrNotInitialized) {
		t.Errorf("Notes() error = %v, want ErrNotInitialized", err)
	}
	if _, err := a.Todo(); !errors.Is(err, notty.ErrNotInitialized) {
		t.Errorf("Todo() error = %v, want ErrNotInitialized", err)
	}
}

func TestNottyApp_Save(t *testing.T) {
	a := newInitializedApp(t)
	testutil.WriteFile(t, a.Root(), "a.txt", "a")

	save, err := a.Save("")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if save.Comment != DefaultComment {
		t.Errorf("Comment = %q, want %q", save.Comment, DefaultComment)
	}

	found, err := a.FindSave(save.Hash.Short)
	if err != nil {
		t.Fatalf("FindSave() error = %v", err)
	}
	if found.Hash != save.Hash {
		t.Errorf("FindSave() = %v, want %v", found.Hash, save.Hash)
	}

	saves, err := a.Saves()
	if err != nil {
		t.Fatalf("Saves() error = %v", err)
	}
	if len(saves) != 1 {
		t.Errorf("Saves() returned %d saves, want 1", len(saves))
	}
}

func TestNottyApp_Rollback(t *testing.T) {
	tests := []struct {
		name         string
		autoSave     bool
		merge        bool
		wantNewFile  bool
		wantAutoSave bool
	}{
		{name: "clean rollback", wantNewFile: false},
		{name: "merge rollback", merge: true, wantNewFile: true},
		{name: "auto save first", autoSave: true, wantNewFile: false, wantAutoSave: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newInitializedApp(t)
			testutil.WriteFile(t, a.Root(), "a.txt", "v1")
			target, err := a.Save("v1")
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			testutil.WriteFile(t, a.Root(), "a.txt", "v2")
			testutil.WriteFile(t, a.Root(), "new.txt", "new")

			res, err := a.Rollback(target.Hash.Short, tt.autoSave, tt.merge)
			if err != nil {
				t.Fatalf("Rollback() error = %v", err)
			}
			if res.Target.Hash != target.Hash {
				t.Errorf("Target = %v, want %v", res.Target.Hash, target.Hash)
			}
			if res.Cleared == tt.merge {
				t.Errorf("Cleared = %v with merge = %v", res.Cleared, tt.merge)
			}

			if got := testutil.ReadFile(t, a.Root(), "a.txt"); got != "v1" {
				t.Errorf("a.txt = %q, want %q", got, "v1")
			}
			if got := testutil.Exists(t, a.Root(), "new.txt"); got != tt.wantNewFile {
				t.Errorf("new.txt exists = %v, want %v", got, tt.wantNewFile)
			}

			if (res.AutoSave != nil) != tt.wantAutoSave {
				t.Fatalf("AutoSave = %v, want present = %v", res.AutoSave, tt.wantAutoSave)
			}
			if res.AutoSave != nil {
				if res.AutoSave.Comment != AutoSaveComment {
					t.Errorf("AutoSave.Comment = %q, want %q", res.AutoSave.Comment, AutoSaveComment)
				}
				if got := testutil.ReadFile(t, res.AutoSave.Path, "a.txt"); got != "v2" {
					t.Errorf("auto save a.txt = %q, want %q", got, "v2")
				}
			}
		})
	}

	t.Run("unknown hash leaves tree alone", func(t *testing.T) {
		a := newInitializedApp(t)
		testutil.WriteFile(t, a.Root(), "a.txt", "current")

		_, err := a.Rollback("fffff", true, false)
		if !errors.Is(err, notty.ErrSaveNotFound) {
			t.Fatalf("Rollback() error = %v, want ErrSaveNotFound", err)
		}
		if got := testutil.ReadFile(t, a.Root(), "a.txt"); got != "current" {
			t.Errorf("a.txt = %q, want %q", got, "current")
		}
		saves, _ := a.Saves()
		if len(saves) != 0 {
			t.Errorf("failed rollback created %d saves", len(saves))
		}
	})
}

func TestNottyApp_Forget(t *testing.T) {
	a := newInitializedApp(t)
	first, err := a.Save("one")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := a.Save("two"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	removed, err := a.Forget(first.Hash.Full)
	if err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if removed.Hash != first.Hash {
		t.Errorf("Forget() removed %v, want %v", removed.Hash, first.Hash)
	}

	n, err := a.ForgetAll()
	if err != nil {
		t.Fatalf("ForgetAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ForgetAll() = %d, want 1", n)
	}
	saves, _ := a.Saves()
	if len(saves) != 0 {
		t.Errorf("%d saves left after ForgetAll()", len(saves))
	}
}

func TestNottyApp_ExportImport(t *testing.T) {
	a := newInitializedApp(t)
	testutil.WriteFile(t, a.Root(), "main.go", "package main")
	testutil.WriteFile(t, a.Root(), "pkg/util.go", "package pkg")

	save, err := a.Save("exported")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := a.Export(save.Hash.Short); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	name, hashes, err := a.VaultArchives()
	if err != nil {
		t.Fatalf("VaultArchives() error = %v", err)
	}
	if name != "mem" || len(hashes) != 1 || hashes[0] != save.Hash.Full {
		t.Errorf("VaultArchives() = %q, %v", name, hashes)
	}

	if _, err := a.Import(save.Hash.Full, ""); !errors.Is(err, notty.ErrSaveExists) {
		t.Errorf("Import() over existing save error = %v, want ErrSaveExists", err)
	}

	if _, err := a.Forget(save.Hash.Full); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	imported, err := a.Import(save.Hash.Full, "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imported.Hash != save.Hash || imported.Comment != "exported" || imported.DateCreated != save.DateCreated {
		t.Errorf("Import() = %+v, want %+v", imported, save)
	}
	if got := testutil.ReadFile(t, imported.Path, "pkg/util.go"); got != "package pkg" {
		t.Errorf("imported pkg/util.go = %q", got)
	}
}

func TestNottyApp_ImportErrors(t *testing.T) {
	a := newInitializedApp(t)

	if _, err := a.Import("abcde", ""); !errors.Is(err, notty.ErrMalformedHash) {
		t.Errorf("Import(short) error = %v, want ErrMalformedHash", err)
	}

	missing := notty.GenerateHash("missing").Full
	if _, err := a.Import(missing, ""); !errors.Is(err, vault.ErrArchiveNotFound) {
		t.Errorf("Import(missing) error = %v, want ErrArchiveNotFound", err)
	}
}

func TestNottyApp_ExportWithoutKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.Encryption = config.NewConfig(cfg.BaseDir).Encryption
	a, _ := newTestApp(t, cfg, t.TempDir(), "export")
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	save, err := a.Save("x")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if a.KeysConfigured() {
		t.Fatal("KeysConfigured() = true without key files")
	}
	if _, err := a.Export(save.Hash.Short); !errors.Is(err, ErrKeysNotConfigured) {
		t.Errorf("Export() error = %v, want ErrKeysNotConfigured", err)
	}
}

func TestNottyApp_History(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database = config.DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}
	root := t.TempDir()

	a, clock := newTestApp(t, cfg, root, "init")
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	clock.Advance(time.Second)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reader, _ := newTestApp(t, cfg, root, "history")
	ops, err := reader.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("History() returned %d operations, want 1", len(ops))
	}
	op := ops[0]
	if op.Name != "init" || op.Status != notty.OperationSuccess {
		t.Errorf("operation = %+v", op)
	}
	if op.Repository != reader.Root() {
		t.Errorf("Repository = %q, want %q", op.Repository, reader.Root())
	}
	if got := op.FinishedAt.Sub(op.StartedAt); got != time.Second {
		t.Errorf("duration = %v, want 1s", got)
	}
	if reader.op.Persisted() {
		t.Error("reading history persisted an operation")
	}
}

func TestNottyApp_Notes(t *testing.T) {
	a := newInitializedApp(t)

	notes, err := a.Notes()
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	if notes != "" {
		t.Errorf("Notes() = %q, want empty", notes)
	}

	testutil.WriteFile(t, a.Repository().ControlPath(), notty.NotesFile, "remember the milk")
	if notes, _ = a.Notes(); notes != "remember the milk" {
		t.Errorf("Notes() = %q", notes)
	}

	if err := a.ClearNotes(); err != nil {
		t.Fatalf("ClearNotes() error = %v", err)
	}
	if notes, _ = a.Notes(); notes != "" {
		t.Errorf("Notes() after clear = %q, want empty", notes)
	}

	a.cfg.Editor = `sh -c 'printf edited > "$1"' sh`
	if err := a.EditNotes(); err != nil {
		t.Fatalf("EditNotes() error = %v", err)
	}
	if notes, _ = a.Notes(); notes != "edited" {
		t.Errorf("Notes() after edit = %q, want %q", notes, "edited")
	}
}

func TestNottyApp_editorCommand(t *testing.T) {
	tests := []struct {
		name   string
		config string
		env    string
		want   []string
	}{
		{name: "config wins", config: "code --wait", env: "nano", want: []string{"code", "--wait"}},
		{name: "environment", env: "nano", want: []string{"nano"}},
		{name: "default", want: []string{DefaultEditor}},
		{name: "quoted path", config: `"/opt/my editor/bin/ed" -q`, want: []string{"/opt/my editor/bin/ed", "-q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EDITOR", tt.env)
			a := &NottyApp{cfg: &config.Config{Editor: tt.config}}

			got, err := a.editorCommand()
			if err != nil {
				t.Fatalf("editorCommand() error = %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("editorCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNottyApp_Todo(t *testing.T) {
	a := newInitializedApp(t)

	list, err := a.Todo()
	if err != nil {
		t.Fatalf("Todo() error = %v", err)
	}
	if err := list.Add("write tests", todo.High); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reloaded, err := a.Todo()
	if err != nil {
		t.Fatalf("Todo() error = %v", err)
	}
	tasks := reloaded.Tasks()
	if len(tasks) != 1 || tasks[0].Content != "write tests" || tasks[0].Importance != todo.High {
		t.Errorf("Tasks() = %+v", tasks)
	}
}

func TestNottyApp_Logging(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg, t.TempDir(), "save")
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := a.Save("logged"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	a.Close()

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFile))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "\tINFO\t20240115T103000Z\tsave created") {
		t.Errorf("log file missing save record:\n%s", data)
	}
}
