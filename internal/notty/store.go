package notty

// SnapshotStore moves whole directory trees between a working tree and the saves area.
// Implementations are not required to be atomic: a failure mid-copy may leave a
// partially written tree, and the underlying I/O error is returned.
type SnapshotStore interface {
	// CreateSnapshot recursively copies sourceRoot into destination.
	// Control entries (directories named internalDir, top-level files named
	// internalDir plus a dot suffix) and entries whose name matches any of
	// exclude are skipped; directories are pruned with their contents.
	CreateSnapshot(sourceRoot, destination string, exclude []string, internalDir string) error

	// RestoreSnapshot copies every entry of snapshotPath into destinationRoot,
	// overwriting same-named files. Control entries, such as the save
	// descriptor, are skipped and files absent from the snapshot are left untouched.
	RestoreSnapshot(snapshotPath, destinationRoot, internalDir string) error

	// RemoveSnapshot marks path writable and recursively deletes it.
	// A permission failure is retried once after clearing read-only flags.
	RemoveSnapshot(path string) error

	// ListSnapshotDirs returns the names of the immediate subdirectories of savesRoot.
	ListSnapshotDirs(savesRoot string) ([]string, error)

	// StageAndClear moves every top-level entry of workingRoot that is not a
	// control entry into stagingPath, then deletes the staged copies.
	StageAndClear(workingRoot, stagingPath, internalDir string) error
}
