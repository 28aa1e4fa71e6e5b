package notty

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the repository-level JSON document stored as MetaFile.
type Metadata struct {
	DateCreated int64 `json:"date_created"`
	DateEdited  int64 `json:"date_edited"`
}

func (r *Repository) metaPath() string {
	return filepath.Join(r.repoPath, MetaFile)
}

// buildMeta replaces the metadata file with fresh timestamps.
func (r *Repository) buildMeta() (*Metadata, error) {
	now := r.clock.Now().Unix()
	meta := &Metadata{DateCreated: now, DateEdited: now}
	if err := r.writeMeta(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (r *Repository) writeMeta(meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := WriteFileAtomic(r.metaPath(), data, 0644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// readMeta parses the metadata file. An unparsable file, or one without a
// creation date, is rebuilt in place and a warning is logged; only I/O
// failures are returned.
func (r *Repository) readMeta() (*Metadata, error) {
	data, err := os.ReadFile(r.metaPath())
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		r.logger.Warn("meta file corrupted, rebuilt", "path", r.metaPath(), "error", err)
		return r.buildMeta()
	}
	if meta.DateCreated == 0 {
		r.logger.Warn("meta file has no creation date, rebuilt", "path", r.metaPath())
		return r.buildMeta()
	}
	return &meta, nil
}

// touchEdited sets date_edited to the current time.
func (r *Repository) touchEdited() error {
	meta, err := r.readMeta()
	if err != nil {
		return filesystemError("update metadata", err)
	}
	meta.DateEdited = r.clock.Now().Unix()
	if err := r.writeMeta(meta); err != nil {
		return filesystemError("update metadata", err)
	}
	return nil
}

// Metadata returns the repository's creation and last-edit timestamps.
func (r *Repository) Metadata() (*Metadata, error) {
	if err := r.requireInitialized("metadata"); err != nil {
		return nil, err
	}
	meta, err := r.readMeta()
	if err != nil {
		return nil, filesystemError("metadata", err)
	}
	return meta, nil
}

// WriteFileAtomic writes data to path via a temp file in the same directory and a rename,
// so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
