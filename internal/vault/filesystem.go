package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"notty-go/internal/notty"
)

// ArchiveExt is appended to the save hash to name an archive file.
const ArchiveExt = ".tar.age"

// ErrArchiveNotFound is returned when no archive is stored under a hash.
var ErrArchiveNotFound = errors.New("archive not found")

// FileSystemVault stores archives as files in a directory tree:
//
//	<root>/
//	  archives/
//	    <full hash>.tar.age
type FileSystemVault struct {
	name       string
	root       string
	archiveDir string
}

// NewFileSystemVault creates a vault rooted at root, creating the directory layout.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	archiveDir := filepath.Join(root, "archives")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		archiveDir: archiveDir,
	}, nil
}

func (v *FileSystemVault) Name() string { return v.name }

func (v *FileSystemVault) archivePath(hash string) (string, error) {
	if !notty.ValidFullHash(hash) {
		return "", fmt.Errorf("%w: %q", notty.ErrMalformedHash, hash)
	}
	return filepath.Join(v.archiveDir, strings.ToLower(hash)+ArchiveExt), nil
}

// PutArchive stores an archive under hash, replacing any earlier one.
// The write is atomic: readers never observe a partial archive.
func (v *FileSystemVault) PutArchive(hash string, r io.Reader, size int64) error {
	destPath, err := v.archivePath(hash)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(v.archiveDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

// GetArchive writes the archive stored under hash to w.
func (v *FileSystemVault) GetArchive(hash string, w io.Writer) error {
	srcPath, err := v.archivePath(hash)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArchiveNotFound, hash)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// HasArchive reports whether an archive is stored under hash.
func (v *FileSystemVault) HasArchive(hash string) (bool, error) {
	path, err := v.archivePath(hash)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat archive: %w", err)
	}
	return true, nil
}

// ListArchives returns the hashes of all stored archives, sorted.
// Leftover temp files and foreign files are ignored.
func (v *FileSystemVault) ListArchives() ([]string, error) {
	entries, err := os.ReadDir(v.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("reading archive directory: %w", err)
	}

	var hashes []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hash, ok := strings.CutSuffix(e.Name(), ArchiveExt)
		if !ok || !notty.ValidFullHash(hash) {
			continue
		}
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.archiveDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

var _ notty.ArchiveVault = (*FileSystemVault)(nil)
