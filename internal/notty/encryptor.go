package notty

import "io"

// Encryptor encrypts exported archives and unlocks the key needed to read them back.
// Encryption uses the public key only. Decryption requires a passphrase to unlock
// the private key, producing a DecryptionContext.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and the
	// private key encrypted with passphrase. Called by `notty config keys`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with passphrase.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one import.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
