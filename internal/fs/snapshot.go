package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OSSnapshotStore is the real filesystem implementation of notty.SnapshotStore.
// It copies whole trees with the os package; copies are not atomic.
type OSSnapshotStore struct {
	// ignore holds global patterns applied to every snapshot in addition
	// to the per-repository patterns.
	ignore *IgnoreMatcher
}

// NewOSSnapshotStore creates a snapshot store that operates on the real filesystem.
// globalIgnore patterns (typically from configuration) are applied to every snapshot.
func NewOSSnapshotStore(globalIgnore []string) *OSSnapshotStore {
	return &OSSnapshotStore{ignore: NewIgnoreMatcher(globalIgnore)}
}

// CreateSnapshot recursively copies sourceRoot into destination, skipping
// control entries and anything matching exclude or the global patterns.
func (s *OSSnapshotStore) CreateSnapshot(sourceRoot, destination string, exclude []string, internalDir string) error {
	matcher := s.ignore.With(exclude)

	if err := os.MkdirAll(destination, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	return copyTree(sourceRoot, destination, func(rel string, d fs.DirEntry) bool {
		return IsControlEntry(rel, d.IsDir(), internalDir) || matcher.MatchName(d.Name())
	})
}

// RestoreSnapshot copies a snapshot back over destinationRoot. Existing files
// with the same name are overwritten; other files are left alone.
func (s *OSSnapshotStore) RestoreSnapshot(snapshotPath, destinationRoot, internalDir string) error {
	info, err := os.Stat(snapshotPath)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot is not a directory: %s", snapshotPath)
	}

	return copyTree(snapshotPath, destinationRoot, func(rel string, d fs.DirEntry) bool {
		return IsControlEntry(rel, d.IsDir(), internalDir)
	})
}

// RemoveSnapshot makes path writable and deletes it recursively.
// If deletion fails on a permission error, every entry in the tree is made
// owner-writable and the deletion is retried once.
func (s *OSSnapshotStore) RemoveSnapshot(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	if info.IsDir() {
		if err := os.Chmod(path, info.Mode().Perm()|0700); err != nil {
			return fmt.Errorf("making snapshot writable: %w", err)
		}
	}

	err = os.RemoveAll(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	if werr := makeWritable(path); werr != nil {
		return fmt.Errorf("removing %s: %w (clearing read-only flags: %v)", path, err, werr)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// ListSnapshotDirs returns the names of the immediate subdirectories of savesRoot,
// sorted by name.
func (s *OSSnapshotStore) ListSnapshotDirs(savesRoot string) ([]string, error) {
	entries, err := os.ReadDir(savesRoot)
	if err != nil {
		return nil, fmt.Errorf("reading saves directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// StageAndClear moves every top-level entry of workingRoot except control
// entries into a fresh batch directory under stagingPath, then deletes the batch.
// If the process dies between the two steps, the moved entries stay recoverable
// in stagingPath.
func (s *OSSnapshotStore) StageAndClear(workingRoot, stagingPath, internalDir string) error {
	entries, err := os.ReadDir(workingRoot)
	if err != nil {
		return fmt.Errorf("reading working tree: %w", err)
	}

	if err := os.MkdirAll(stagingPath, 0755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	batch, err := os.MkdirTemp(stagingPath, "clear-*")
	if err != nil {
		return fmt.Errorf("creating staging batch: %w", err)
	}

	for _, entry := range entries {
		if IsControlEntry(entry.Name(), entry.IsDir(), internalDir) {
			continue
		}
		src := filepath.Join(workingRoot, entry.Name())
		if err := os.Rename(src, filepath.Join(batch, entry.Name())); err != nil {
			return fmt.Errorf("staging %s: %w", entry.Name(), err)
		}
	}

	if err := s.RemoveSnapshot(batch); err != nil {
		return fmt.Errorf("deleting staged entries: %w", err)
	}
	return nil
}

// IsControlEntry reports whether the entry at rel (relative to a working tree
// or save root) belongs to notty rather than to the user. Those are
// directories named exactly internalDir, at any depth, and top-level files
// named internalDir followed by a dot, such as the save descriptor.
// Snapshot, restore and clear all use this rule, so whatever a save captures
// is restored and cleared as well.
func IsControlEntry(rel string, isDir bool, internalDir string) bool {
	if internalDir == "" {
		return false
	}
	name := filepath.Base(rel)
	if isDir {
		return name == internalDir
	}
	return rel == name && strings.HasPrefix(name, internalDir+".")
}

// copyTree copies every entry under src into dst. skip is consulted with each
// entry's path relative to src; skipped directories are pruned.
func copyTree(src, dst string, skip func(rel string, d fs.DirEntry) bool) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == src {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		if skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			if err := os.MkdirAll(target, info.Mode().Perm()|0700); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			return copySymlink(p, target)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			return copyFile(p, target, info.Mode().Perm()|0600)
		default:
			// Sockets, devices and named pipes have no content to save.
			return nil
		}
	})
}

// copyFile copies the bytes of src to dst, replacing dst if it exists.
// dst ends up with mode perm.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if errors.Is(err, fs.ErrPermission) {
		// A read-only file being overwritten; clear the flag and retry once.
		if cerr := os.Chmod(dst, perm); cerr == nil {
			out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		}
	}
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination file: %w", err)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("reading symlink: %w", err)
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

// makeWritable adds owner write (and, for directories, search) permission to
// every entry under root. Directories are fixed before they are read.
func makeWritable(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode().Perm() | 0200
		if d.IsDir() {
			mode |= 0700
		}
		return os.Chmod(p, mode)
	})
}
