package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/avolkov/diaryvault/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes (96 bits). The nonce is
// prepended to the ciphertext before transport encoding.
const NonceSize = 12

// SaltResolver supplies the per-user encryption salt. Implemented by
// salt.Store; a fixed-value fake is enough for tests.
type SaltResolver interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// CipherBox encrypts and decrypts diary content for a user.
//
// Wire format: base64(nonce ‖ ciphertext ‖ tag), nonce first. A fresh random
// nonce is generated on every call, so encrypting the same plaintext twice
// yields different blobs.
type CipherBox struct {
	salts SaltResolver
}

func NewCipherBox(salts SaltResolver) *CipherBox {
	return &CipherBox{salts: salts}
}

// EncryptContent encrypts plaintext for the given user and returns the
// transport-encoded envelope. May lazily create the user's salt (see
// salt.Store); a salt that cannot be durably persisted aborts the call.
func (b *CipherBox) EncryptContent(ctx context.Context, userID, plaintext string) (string, error) {
	salt, err := b.salts.Resolve(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve salt: %w", err)
	}

	aead, err := newAEAD(DeriveKey(userID, salt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptContent decodes and decrypts an envelope produced by EncryptContent.
// Any envelope that cannot be parsed or whose tag does not verify results in
// common.ErrAuthenticationFailed: corruption, tampering, or a key/salt
// mismatch (wrong user, lost salt). Callers must not display such content.
func (b *CipherBox) DecryptContent(ctx context.Context, userID, blob string) (string, error) {
	salt, err := b.salts.Resolve(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve salt: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed envelope", common.ErrAuthenticationFailed)
	}
	if len(raw) < NonceSize {
		return "", fmt.Errorf("%w: envelope too short", common.ErrAuthenticationFailed)
	}

	aead, err := newAEAD(DeriveKey(userID, salt))
	if err != nil {
		return "", err
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", common.ErrAuthenticationFailed
	}

	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return aead, nil
}
