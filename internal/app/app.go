package app

import (
	"fmt"
	"io"
	"os"

	"notty-go/internal/config"
	"notty-go/internal/database"
	"notty-go/internal/encryption"
	nottyfs "notty-go/internal/fs"
	"notty-go/internal/notty"
	"notty-go/internal/todo"
	"notty-go/internal/vault"
)

var _ notty.SnapshotStore = (*nottyfs.OSSnapshotStore)(nil)

// NottyApp is the application layer between the CLI and the repository.
// It constructs all dependencies from config, exposes high-level operations
// on the repository rooted at the working directory, and records mutating
// operations in the history on Close.
type NottyApp struct {
	cfg       *config.Config
	repo      *notty.Repository
	store     *nottyfs.OSSnapshotStore
	history   notty.History
	vault     notty.ArchiveVault
	encryptor notty.Encryptor
	logger    *slogAdapter
	clock     notty.Clock
	idgen     notty.IDGenerator
	op        *Operation
	logFile   *os.File
	closed    bool
}

// options carries the pieces that tests replace.
type options struct {
	clock   notty.Clock
	idgen   notty.IDGenerator
	console io.Writer
}

// NewNottyApp creates a fully wired NottyApp for the repository at root.
// operation identifies the CLI command being run (e.g. "save", "rollback").
// The caller must call Close when done.
func NewNottyApp(cfg *config.Config, root, operation string) (*NottyApp, error) {
	return newNottyApp(cfg, root, operation, options{
		clock:   notty.RealClock{},
		idgen:   notty.UUIDGenerator{},
		console: os.Stderr,
	})
}

func newNottyApp(cfg *config.Config, root, operation string, opts options) (*NottyApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	history, err := database.NewHistoryFromConfig(cfg.Database, opts.idgen)
	if err != nil {
		return nil, fmt.Errorf("creating history: %w", err)
	}

	opID := opts.clock.Now().UTC().Format("20060102T150405Z")
	l, logFile, err := newLogger(cfg.LogDir, opID, opts.console)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	store := nottyfs.NewOSSnapshotStore(cfg.Filesystem.Ignore)
	repo := notty.NewRepository(root, store, logger, opts.clock, opts.idgen)

	return &NottyApp{
		cfg:       cfg,
		repo:      repo,
		store:     store,
		history:   history,
		encryptor: enc,
		logger:    logger,
		clock:     opts.clock,
		idgen:     opts.idgen,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}, nil
}

// Root returns the working tree path the app is bound to.
func (a *NottyApp) Root() string { return a.repo.Root() }

// Initialized reports whether a repository exists at the working tree.
func (a *NottyApp) Initialized() bool { return a.repo.IsInitialized() }

// Repository returns the underlying repository.
func (a *NottyApp) Repository() *notty.Repository { return a.repo }

// archiveVault returns the first configured vault, creating it on first use.
func (a *NottyApp) archiveVault() (notty.ArchiveVault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	if len(a.cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(a.cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	a.vault = v
	return v, nil
}

// persistOperation records the operation in the history, giving it an ID.
// This should only be called for mutating commands.
func (a *NottyApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	id, err := a.history.StartOperation(a.repo.Root(), a.op.Name, a.op.Parameters, a.clock.Now())
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	a.op.ID = id
	return nil
}

// record persists the operation and runs fn, marking the operation failed if fn fails.
func (a *NottyApp) record(parameters string, fn func() error) error {
	if err := a.persistOperation(parameters); err != nil {
		return err
	}
	if err := fn(); err != nil {
		a.op.Fail()
		a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
		return err
	}
	return nil
}

// History returns up to limit recorded operations for this repository, newest first.
func (a *NottyApp) History(limit int) ([]*notty.Operation, error) {
	ops, err := a.history.RecentOperations(a.repo.Root(), limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return ops, nil
}

// Todo loads the repository's todo list. Mutations on the list save immediately.
func (a *NottyApp) Todo() (*todo.List, error) {
	if err := a.requireRepository("todo"); err != nil {
		return nil, err
	}
	return todo.Load(a.repo.TodoPath(), a.logger)
}

// Close finishes the operation record and releases the history and log file.
func (a *NottyApp) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var firstErr error

	if a.op.Persisted() {
		if err := a.history.FinishOperation(a.op.ID, a.op.Status, a.clock.Now()); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
