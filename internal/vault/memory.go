package vault

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"notty-go/internal/notty"
)

// MemoryVault keeps archives in memory. Useful for tests and dry runs.
// Safe for concurrent use.
type MemoryVault struct {
	name     string
	archives map[string][]byte
	mu       sync.RWMutex
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		archives: make(map[string][]byte),
	}
}

func (m *MemoryVault) Name() string { return m.name }

func (m *MemoryVault) key(hash string) (string, error) {
	if !notty.ValidFullHash(hash) {
		return "", fmt.Errorf("%w: %q", notty.ErrMalformedHash, hash)
	}
	return strings.ToLower(hash), nil
}

// PutArchive stores an archive under hash.
func (m *MemoryVault) PutArchive(hash string, r io.Reader, size int64) error {
	key, err := m.key(hash)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[key] = data
	return nil
}

// GetArchive writes the archive stored under hash to w.
func (m *MemoryVault) GetArchive(hash string, w io.Writer) error {
	key, err := m.key(hash)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.archives[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, hash)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

func (m *MemoryVault) HasArchive(hash string) (bool, error) {
	key, err := m.key(hash)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.archives[key]
	return ok, nil
}

func (m *MemoryVault) ListArchives() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := make([]string, 0, len(m.archives))
	for h := range m.archives {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes, nil
}

// ValidateSetup always succeeds for the in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ notty.ArchiveVault = (*MemoryVault)(nil)
