package notty

import "io"

// ArchiveVault stores exported save archives keyed by the save's full hash.
// Archives are opaque, already-encrypted byte streams.
type ArchiveVault interface {
	// Name identifies the vault in configuration and output.
	Name() string

	// PutArchive stores an archive. size is the number of bytes that will be read from r.
	// Storing the same hash twice replaces the earlier archive.
	PutArchive(hash string, r io.Reader, size int64) error

	// GetArchive writes the archive stored under hash to w.
	GetArchive(hash string, w io.Writer) error

	// HasArchive reports whether an archive is stored under hash.
	HasArchive(hash string) (bool, error)

	// ListArchives returns the hashes of every stored archive, sorted.
	ListArchives() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
