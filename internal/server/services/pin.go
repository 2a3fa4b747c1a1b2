package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/server/models"
	"github.com/avolkov/diaryvault/internal/server/repositories/settings"
)

// ErrInvalidPIN rejects anything but a 4-digit PIN.
var ErrInvalidPIN = errors.New("pin must be exactly 4 digits")

// PinService manages the app-lock PIN. The PIN gates the UI on a device, it
// is not key material: a salted SHA-256 is deliberate, not an oversight.
type PinService struct {
	settings settings.Repository
}

func NewPinService(repo settings.Repository) *PinService {
	return &PinService{settings: repo}
}

func hashPin(pin, salt string) string {
	sum := sha256.Sum256([]byte(pin + salt))
	return hex.EncodeToString(sum[:])
}

func validPin(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Set hashes and stores a new PIN, enabling the lock. Stored as "salt:hash".
func (s *PinService) Set(ctx context.Context, userID, pin string) error {
	if !validPin(pin) {
		return ErrInvalidPIN
	}

	rawSalt := make([]byte, 16)
	if _, err := rand.Read(rawSalt); err != nil {
		return fmt.Errorf("generate pin salt: %w", err)
	}
	salt := hex.EncodeToString(rawSalt)

	current := s.currentSettings(ctx, userID)
	current.PINHash = salt + ":" + hashPin(pin, salt)
	current.PINEnabled = true

	if err := s.settings.Upsert(ctx, current); err != nil {
		return fmt.Errorf("store pin: %w", err)
	}
	return nil
}

// Verify checks pin against the stored hash. A user without an enabled PIN
// never verifies.
func (s *PinService) Verify(ctx context.Context, userID, pin string) (bool, error) {
	st, err := s.settings.Find(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	if !st.PINEnabled || st.PINHash == "" {
		return false, nil
	}

	salt, storedHash, ok := strings.Cut(st.PINHash, ":")
	if !ok {
		return false, nil
	}

	match := subtle.ConstantTimeCompare([]byte(hashPin(pin, salt)), []byte(storedHash)) == 1
	return match, nil
}

// Disable removes the PIN and turns the lock off.
func (s *PinService) Disable(ctx context.Context, userID string) error {
	current := s.currentSettings(ctx, userID)
	current.PINHash = ""
	current.PINEnabled = false

	if err := s.settings.Upsert(ctx, current); err != nil {
		return fmt.Errorf("disable pin: %w", err)
	}
	return nil
}

// Enabled reports whether the user has an active PIN.
func (s *PinService) Enabled(ctx context.Context, userID string) (bool, error) {
	st, err := s.settings.Find(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	return st.PINEnabled, nil
}

// currentSettings loads the user's row or starts a fresh one, preserving
// unrelated fields (display name) across PIN updates.
func (s *PinService) currentSettings(ctx context.Context, userID string) *models.UserSettings {
	st, err := s.settings.Find(ctx, userID)
	if err != nil {
		return &models.UserSettings{UserID: userID}
	}
	return st
}
