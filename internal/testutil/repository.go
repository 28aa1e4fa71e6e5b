package testutil

import (
	"os"
	"path/filepath"
	"testing"

	nottyfs "notty-go/internal/fs"
	"notty-go/internal/notty"
)

// TestRepository bundles a repository with the stubs driving it.
type TestRepository struct {
	*notty.Repository
	Clock *StubClock
	IDs   *StubIDGenerator
	Log   *RecordingLogger
}

// NewTestRepository initializes a repository in a fresh temp directory using
// the real snapshot store, a FixedClock and sequential nonces.
func NewTestRepository(t *testing.T) *TestRepository {
	t.Helper()
	return NewTestRepositoryAt(t, t.TempDir())
}

// NewTestRepositoryAt initializes a repository at root.
func NewTestRepositoryAt(t *testing.T, root string) *TestRepository {
	t.Helper()

	clock := FixedClock()
	ids := NewStubIDGenerator()
	log := &RecordingLogger{}

	repo, err := notty.CreateRepository(root, nottyfs.NewOSSnapshotStore(nil), log, clock, ids)
	if err != nil {
		t.Fatalf("CreateRepository() error = %v", err)
	}
	return &TestRepository{Repository: repo, Clock: clock, IDs: ids, Log: log}
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
}

// ReadFile returns the content of root/rel.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

// Exists reports whether root/rel exists, without following symlinks.
func Exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}
