package cryptox

import "regexp"

// Classifier thresholds. These are tied to the envelope format above
// (12-byte nonce + 16-byte tag, base64-expanded): even an empty plaintext
// encodes to ~40 characters. If the envelope changes, re-derive them.
const (
	// MinEncryptedLength is the shortest content the classifier will ever
	// call encrypted.
	MinEncryptedLength = 50

	// freqSampleLength is how much of the content prefix the character
	// frequency check samples.
	freqSampleLength = 64

	// maxCharFrequency is the share of the sample a single character may
	// occupy before the content is considered degenerate rather than
	// ciphertext.
	maxCharFrequency = 0.30
)

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// LooksEncrypted reports whether stored content appears to be a transport-
// encoded cipher envelope rather than legacy plaintext.
//
// It is a heuristic, not authoritative: its only job is to route known
// plaintext rows around the decrypt call. It fails closed toward "not
// encrypted": misrouting real ciphertext into a decrypt attempt fails
// safely with an authentication error, while showing undecrypted garbage as
// if it were content is the mistake to avoid.
//
// All of the following must hold for a positive classification:
//   - length of at least MinEncryptedLength;
//   - strictly the base64 alphabet, no whitespace (prose reliably contains
//     spaces and newlines and fails here);
//   - no single character above maxCharFrequency of the sampled prefix
//     (rejects long runs of a repeated base64-legal character).
func LooksEncrypted(content string) bool {
	if len(content) < MinEncryptedLength {
		return false
	}
	if !base64Pattern.MatchString(content) {
		return false
	}

	sample := content
	if len(sample) > freqSampleLength {
		sample = sample[:freqSampleLength]
	}

	var counts [256]int
	for i := 0; i < len(sample); i++ {
		counts[sample[i]]++
	}
	limit := int(float64(len(sample)) * maxCharFrequency)
	for _, n := range counts {
		if n > limit {
			return false
		}
	}

	return true
}
