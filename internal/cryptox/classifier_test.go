package cryptox

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksEncrypted_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"short", "abc", false},
		{"prose", "Hello, world! This is plain text with spaces.", false},
		{"prose with newlines", "Dear diary,\nToday I planted tomatoes.\nThey look happy.", false},
		{"repeated char, base64 alphabet", strings.Repeat("a", 52), false},
		{"repeated pair", strings.Repeat("ab", 40), false},
		{"base64-looking but too short", "SGVsbG8gd29ybGQh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LooksEncrypted(tt.content))
		})
	}
}

func TestLooksEncrypted_RealEnvelopes(t *testing.T) {
	box := newTestBox()
	ctx := context.Background()

	plaintexts := []string{
		"any sufficiently long diary entry text",
		"ten bytes!", // smallest plaintext whose envelope clears the length threshold
	}

	for _, p := range plaintexts {
		blob, err := box.EncryptContent(ctx, "user-a", p)
		require.NoError(t, err)
		require.True(t, LooksEncrypted(blob), "envelope for %q must classify as encrypted", p)
	}
}

// Envelopes for very short plaintexts fall under the length threshold and
// classify as plaintext. That is the fail-closed direction: the caller will
// show the blob as-is instead of attempting a decrypt, and nothing crashes.
func TestLooksEncrypted_TinyEnvelopeFailsClosed(t *testing.T) {
	box := newTestBox()

	blob, err := box.EncryptContent(context.Background(), "user-a", "hi")
	require.NoError(t, err)
	require.False(t, LooksEncrypted(blob))
}
