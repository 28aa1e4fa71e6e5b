package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"notty-go/internal/archive"
	"notty-go/internal/notty"
	"notty-go/internal/vault"
)

// ErrKeysNotConfigured is returned by Export when no encryption keys exist yet.
var ErrKeysNotConfigured = errors.New("encryption keys not configured, run `notty config keys`")

// KeysConfigured reports whether the encryptor has its key pair.
func (a *NottyApp) KeysConfigured() bool {
	return a.encryptor.IsConfigured()
}

// SetupKeys generates the key pair used for exported archives.
func (a *NottyApp) SetupKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	a.logger.Info("encryption keys created")
	return nil
}

// Export packs the save identified by id, encrypts it and stores it in the
// first configured vault under the save's full hash.
func (a *NottyApp) Export(id string) (*notty.Save, error) {
	var save *notty.Save
	err := a.record("hash="+id, func() error {
		var err error
		if save, err = a.repo.FindSave(id); err != nil {
			return err
		}
		if !a.encryptor.IsConfigured() {
			return ErrKeysNotConfigured
		}
		v, err := a.archiveVault()
		if err != nil {
			return err
		}
		return a.exportSave(save, v)
	})
	return save, err
}

func (a *NottyApp) exportSave(save *notty.Save, v notty.ArchiveVault) error {
	tmpFile, err := os.CreateTemp("", "notty-export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(archive.Pack(save.Path, pw))
	}()
	if err := a.encryptor.Encrypt(pr, tmpFile); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("encrypting archive: %w", err)
	}

	size, err := tmpFile.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing archive: %w", err)
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding archive: %w", err)
	}

	if err := v.PutArchive(save.Hash.Full, tmpFile, size); err != nil {
		return fmt.Errorf("storing archive in vault %s: %w", v.Name(), err)
	}
	a.logger.Info("save exported", "hash", save.Hash.Full, "vault", v.Name(), "size", size)
	return nil
}

// Import restores a save from the vault into the repository's saves directory.
// hash must be a full hash. The passphrase unlocks the private key.
func (a *NottyApp) Import(hash, passphrase string) (*notty.Save, error) {
	var save *notty.Save
	err := a.record("hash="+hash, func() error {
		if !notty.ValidFullHash(hash) {
			return &notty.Error{Kind: notty.KindMalformedIdentity, Op: "import save", Err: fmt.Errorf("%w: %q", notty.ErrMalformedHash, hash)}
		}
		v, err := a.archiveVault()
		if err != nil {
			return err
		}
		ok, err := v.HasArchive(hash)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", vault.ErrArchiveNotFound, hash)
		}

		dc, err := a.encryptor.Unlock(passphrase)
		if err != nil {
			return err
		}

		save, err = a.repo.ImportSave(notty.HashFromFull(hash), func(dir string) error {
			return a.importArchive(v, hash, dc, dir)
		})
		return err
	})
	return save, err
}

func (a *NottyApp) importArchive(v notty.ArchiveVault, hash string, dc notty.DecryptionContext, dir string) error {
	tmpFile, err := os.CreateTemp("", "notty-import-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if err := v.GetArchive(hash, tmpFile); err != nil {
		return fmt.Errorf("reading archive from vault %s: %w", v.Name(), err)
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding archive: %w", err)
	}

	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		err := dc.Decrypt(tmpFile, pw)
		pw.CloseWithError(err)
		errCh <- err
	}()

	if err := archive.Unpack(pr, dir); err != nil {
		pr.CloseWithError(err)
		<-errCh
		return fmt.Errorf("unpacking archive: %w", err)
	}
	// Drain trailing bytes so the decryptor can verify the end of the stream.
	if _, err := io.Copy(io.Discard, pr); err != nil {
		<-errCh
		return fmt.Errorf("decrypting archive: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("decrypting archive: %w", err)
	}
	a.logger.Info("archive unpacked", "hash", hash, "vault", v.Name())
	return nil
}

// VaultArchives lists the hashes stored in the first configured vault.
func (a *NottyApp) VaultArchives() (string, []string, error) {
	v, err := a.archiveVault()
	if err != nil {
		return "", nil, err
	}
	if err := v.ValidateSetup(); err != nil {
		return "", nil, err
	}
	hashes, err := v.ListArchives()
	if err != nil {
		return "", nil, fmt.Errorf("listing vault %s: %w", v.Name(), err)
	}
	return v.Name(), hashes, nil
}
