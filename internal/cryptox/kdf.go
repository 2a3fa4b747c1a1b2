// Package cryptox implements the client-side cryptography for diary content:
// per-user key derivation, the AES-GCM envelope entries are stored in, and
// the heuristic that tells legacy plaintext rows apart from ciphertext.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is the PBKDF2 round count. Raising it is fine; lowering
	// it requires a security review.
	KDFIterations = 100_000

	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the raw salt length in bytes (hex-encoded when stored).
	SaltSize = 16
)

// DeriveKey derives the symmetric content key for a user from the user id
// and the hex-encoded per-user salt.
//
// The derivation is deterministic and performs no I/O: the same (userID,
// saltHex) pair always yields the same key, and differing users or salts
// yield independent keys. The salt doubles as the PBKDF2 salt parameter and
// is mixed into the input keying material, matching the stored-content
// format produced by earlier clients.
func DeriveKey(userID, saltHex string) []byte {
	return pbkdf2.Key([]byte(userID+saltHex), []byte(saltHex), KDFIterations, KeySize, sha256.New)
}
