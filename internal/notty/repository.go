package notty

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	nottyfs "notty-go/internal/fs"
)

const (
	// ControlDir is the hidden directory inside a working tree that holds a repository.
	ControlDir = ".notty"
	// DescriptorFile is the per-save JSON file holding comment and creation date.
	DescriptorFile = ".notty.save"

	SavesDir   = "saves"
	BinDir     = "bin"
	NotesFile  = "notes.txt"
	TodoFile   = "todo.json"
	MetaFile   = "notty.meta"
	IgnoreFile = "notty.ignore"
)

type entryKind int

const (
	entryDir entryKind = iota
	entryFile
)

// skeletonEntry is one required item of the control directory.
type skeletonEntry struct {
	name    string
	kind    entryKind
	initial []byte
}

// skeleton lists every entry created by CreateRepository and required by IsInitialized.
// The metadata file is seeded separately with fresh timestamps.
var skeleton = []skeletonEntry{
	{name: SavesDir, kind: entryDir},
	{name: BinDir, kind: entryDir},
	{name: NotesFile, kind: entryFile},
	{name: TodoFile, kind: entryFile, initial: []byte(`{"todo": {}}`)},
	{name: MetaFile, kind: entryFile},
	{name: IgnoreFile, kind: entryFile},
}

// Repository binds a working tree to its control directory and owns every
// state-changing operation on saves. It assumes exclusive access: two processes
// operating on the same repository at once is undefined behavior.
type Repository struct {
	root      string
	repoPath  string
	savesPath string
	binPath   string

	store  SnapshotStore
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewRepository binds a Repository to root. It does not touch the filesystem;
// use IsInitialized to check whether a repository exists there.
func NewRepository(root string, store SnapshotStore, logger Logger, clock Clock, idgen IDGenerator) *Repository {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	repoPath := filepath.Join(root, ControlDir)
	return &Repository{
		root:      root,
		repoPath:  repoPath,
		savesPath: filepath.Join(repoPath, SavesDir),
		binPath:   filepath.Join(repoPath, BinDir),
		store:     store,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// CreateRepository initializes a new repository at root and returns it bound.
// It fails with ErrRepositoryExists when root already has a control directory and
// with ErrNestedRepository when any ancestor of root holds an initialized repository.
func CreateRepository(root string, store SnapshotStore, logger Logger, clock Clock, idgen IDGenerator) (*Repository, error) {
	r := NewRepository(root, store, logger, clock, idgen)
	if err := r.create(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) create() error {
	const op = "create repository"

	if _, err := os.Lstat(r.repoPath); err == nil {
		return structuralError(op, ErrRepositoryExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return filesystemError(op, err)
	}

	for dir := filepath.Dir(r.root); ; dir = filepath.Dir(dir) {
		if checkSkeleton(filepath.Join(dir, ControlDir)) {
			return structuralError(op, fmt.Errorf("%w: %s", ErrNestedRepository, dir))
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}

	if err := os.Mkdir(r.repoPath, 0755); err != nil {
		return filesystemError(op, err)
	}

	for _, entry := range skeleton {
		path := filepath.Join(r.repoPath, entry.name)
		switch entry.kind {
		case entryDir:
			if err := os.Mkdir(path, 0755); err != nil {
				return filesystemError(op, err)
			}
			r.logger.Debug("created dir", "name", entry.name)
		case entryFile:
			if err := os.WriteFile(path, entry.initial, 0644); err != nil {
				return filesystemError(op, err)
			}
			r.logger.Debug("created file", "name", entry.name)
		}
	}

	if _, err := r.buildMeta(); err != nil {
		return filesystemError(op, err)
	}

	r.logger.Info("repository created", "root", r.root)
	return nil
}

// checkSkeleton reports whether repoPath is a directory containing every skeleton entry.
// Directories are checked by name only, not recursively.
func checkSkeleton(repoPath string) bool {
	info, err := os.Stat(repoPath)
	if err != nil || !info.IsDir() {
		return false
	}

	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return false
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Name()] = true
	}

	for _, entry := range skeleton {
		if !present[entry.name] {
			return false
		}
	}
	return true
}

// IsInitialized reports whether the control directory exists with its full skeleton.
func (r *Repository) IsInitialized() bool {
	return checkSkeleton(r.repoPath)
}

func (r *Repository) requireInitialized(op string) error {
	if !r.IsInitialized() {
		return structuralError(op, ErrNotInitialized)
	}
	return nil
}

// Root returns the working tree path.
func (r *Repository) Root() string { return r.root }

// ControlPath returns the path of the control directory.
func (r *Repository) ControlPath() string { return r.repoPath }

// SavesPath returns the directory holding one subdirectory per save.
func (r *Repository) SavesPath() string { return r.savesPath }

// NotesPath returns the path of the notes file.
func (r *Repository) NotesPath() string { return filepath.Join(r.repoPath, NotesFile) }

// TodoPath returns the path of the todo list file.
func (r *Repository) TodoPath() string { return filepath.Join(r.repoPath, TodoFile) }

// IgnorePatterns returns the patterns listed in the repository's ignore file.
// A missing ignore file yields no patterns.
func (r *Repository) IgnorePatterns() ([]string, error) {
	patterns, err := nottyfs.LoadPatterns(filepath.Join(r.repoPath, IgnoreFile), false)
	if err != nil {
		return nil, filesystemError("read ignore patterns", err)
	}
	return patterns, nil
}

// CreateSave copies the working tree into a new save and returns it.
func (r *Repository) CreateSave(comment string) (*Save, error) {
	const op = "create save"
	if err := r.requireInitialized(op); err != nil {
		return nil, err
	}

	dateCreated := r.clock.Now().Unix()
	seed := strconv.FormatInt(dateCreated, 10) + "--" + comment + "--" + r.idgen.New()
	hash := GenerateHash(seed)
	r.logger.Debug("generated hash", "short", hash.Short)

	savePath := filepath.Join(r.savesPath, hash.Full)
	if err := os.Mkdir(savePath, 0755); err != nil {
		return nil, filesystemError(op, err)
	}

	if err := writeDescriptor(filepath.Join(savePath, DescriptorFile), comment, dateCreated); err != nil {
		return nil, filesystemError(op, err)
	}

	patterns, err := r.IgnorePatterns()
	if err != nil {
		return nil, err
	}

	if err := r.store.CreateSnapshot(r.root, savePath, patterns, ControlDir); err != nil {
		return nil, filesystemError(op, fmt.Errorf("copying working tree: %w", err))
	}

	if err := r.touchEdited(); err != nil {
		return nil, err
	}

	r.logger.Info("save created", "hash", hash.Full, "comment", comment)
	return &Save{
		Hash:        hash,
		Path:        savePath,
		Comment:     comment,
		DateCreated: dateCreated,
	}, nil
}

// LoadSave reads a save by its full hash.
func (r *Repository) LoadSave(hash ContentHash) (*Save, error) {
	const op = "load save"
	if err := r.requireInitialized(op); err != nil {
		return nil, err
	}
	return r.loadSave(op, hash)
}

func (r *Repository) loadSave(op string, hash ContentHash) (*Save, error) {
	if hash.Full == "" {
		return nil, malformedError(op, "empty hash")
	}
	savePath := filepath.Join(r.savesPath, hash.Full)

	info, err := os.Stat(savePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundError(op, fmt.Errorf("%w: %s", ErrSaveNotFound, hash.Short))
		}
		return nil, filesystemError(op, err)
	}
	if !info.IsDir() {
		return nil, filesystemError(op, fmt.Errorf("%w: %s", ErrNotDirectory, savePath))
	}

	name := filepath.Base(savePath)
	if !ValidFullHash(name) {
		return nil, malformedError(op, "invalid save directory name %q (length %d/%d)", name, len(name), FullLength)
	}

	comment, dateCreated, err := readDescriptor(filepath.Join(savePath, DescriptorFile))
	if err != nil {
		if !errors.Is(err, errCorruptDescriptor) {
			return nil, filesystemError(op, err)
		}
		r.logger.Warn("save descriptor unreadable, using placeholders", "hash", name, "error", err)
	}

	return &Save{
		Hash:        HashFromFull(name),
		Path:        savePath,
		Comment:     comment,
		DateCreated: dateCreated,
	}, nil
}

// GetAllSaves loads every save in the saves directory, in name order.
func (r *Repository) GetAllSaves() ([]*Save, error) {
	const op = "list saves"
	if err := r.requireInitialized(op); err != nil {
		return nil, err
	}

	names, err := r.store.ListSnapshotDirs(r.savesPath)
	if err != nil {
		return nil, filesystemError(op, err)
	}

	saves := make([]*Save, 0, len(names))
	for _, name := range names {
		save, err := r.loadSave(op, HashFromFull(name))
		if err != nil {
			return nil, err
		}
		saves = append(saves, save)
	}
	return saves, nil
}

// FindSave resolves a save from its short or full hash.
// Identifiers of any other length are rejected before scanning.
// If several saves match, the first in enumeration order wins.
func (r *Repository) FindSave(identifier string) (*Save, error) {
	const op = "find save"
	id := strings.TrimSpace(identifier)
	if len(id) != ShortLength && len(id) != FullLength {
		return nil, malformedError(op, "invalid hash length: got %d, expected short=%d or full=%d", len(id), ShortLength, FullLength)
	}

	saves, err := r.GetAllSaves()
	if err != nil {
		return nil, err
	}
	for _, save := range saves {
		if save.Hash.Matches(id) {
			return save, nil
		}
	}
	return nil, notFoundError(op, fmt.Errorf("%w: %s", ErrSaveNotFound, id))
}

// RemoveSave deletes a save's directory.
func (r *Repository) RemoveSave(save *Save) error {
	const op = "remove save"
	if err := r.requireInitialized(op); err != nil {
		return err
	}
	if !ValidFullHash(save.Hash.Full) {
		return malformedError(op, "invalid hash %q", save.Hash.Full)
	}

	savePath := filepath.Join(r.savesPath, save.Hash.Full)
	if err := r.store.RemoveSnapshot(savePath); err != nil {
		return filesystemError(op, err)
	}

	if err := r.touchEdited(); err != nil {
		return err
	}
	r.logger.Info("save removed", "hash", save.Hash.Full)
	return nil
}

// RollbackSave copies a save back over the working tree. Files that exist only in
// the working tree are kept; call ClearWorkingTree first for a clean restore.
func (r *Repository) RollbackSave(save *Save) error {
	const op = "rollback save"
	if err := r.requireInitialized(op); err != nil {
		return err
	}

	info, err := os.Stat(save.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFoundError(op, fmt.Errorf("%w: %s", ErrSaveNotFound, save.Hash.Short))
		}
		return filesystemError(op, err)
	}
	if !info.IsDir() {
		return filesystemError(op, fmt.Errorf("%w: %s", ErrNotDirectory, save.Path))
	}

	if err := r.store.RestoreSnapshot(save.Path, r.root, ControlDir); err != nil {
		return filesystemError(op, fmt.Errorf("restoring snapshot: %w", err))
	}

	if err := r.touchEdited(); err != nil {
		return err
	}
	r.logger.Info("save rolled back", "hash", save.Hash.Full)
	return nil
}

// ClearWorkingTree removes everything in the working tree except the control
// directory, moving entries through the bin directory first.
func (r *Repository) ClearWorkingTree() error {
	const op = "clear working tree"
	if err := r.requireInitialized(op); err != nil {
		return err
	}
	if err := r.store.StageAndClear(r.root, r.binPath, ControlDir); err != nil {
		return filesystemError(op, err)
	}
	r.logger.Info("working tree cleared", "root", r.root)
	return nil
}

// ImportSave materializes a save under hash from an external source. populate
// receives an empty staging directory inside the bin and must fill it with the
// save's contents, descriptor included. The staged tree is then moved into the
// saves directory in a single rename.
func (r *Repository) ImportSave(hash ContentHash, populate func(dir string) error) (*Save, error) {
	const op = "import save"
	if err := r.requireInitialized(op); err != nil {
		return nil, err
	}
	if !ValidFullHash(hash.Full) {
		return nil, malformedError(op, "invalid hash %q", hash.Full)
	}
	hash = HashFromFull(strings.ToLower(hash.Full))

	savePath := filepath.Join(r.savesPath, hash.Full)
	if _, err := os.Lstat(savePath); err == nil {
		return nil, structuralError(op, fmt.Errorf("%w: %s", ErrSaveExists, hash.Short))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, filesystemError(op, err)
	}

	staging, err := os.MkdirTemp(r.binPath, "import-*")
	if err != nil {
		return nil, filesystemError(op, err)
	}
	moved := false
	defer func() {
		if !moved {
			r.store.RemoveSnapshot(staging)
		}
	}()

	if err := populate(staging); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(staging, savePath); err != nil {
		return nil, filesystemError(op, err)
	}
	moved = true

	if err := r.touchEdited(); err != nil {
		return nil, err
	}
	r.logger.Info("save imported", "hash", hash.Full)
	return r.loadSave(op, hash)
}
