package idgen

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// charset is restricted to lowercase alphanumerics so generated IDs are
// URL-safe and case-insensitive lookups cannot alias two distinct IDs.
const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureID returns an ID of the form "<prefix>_<length random chars>",
// e.g. "conv_a3f8d2k9p1m4n7q2". Randomness comes from crypto/rand so IDs carry
// no timing or sequence information.
func GenerateSecureID(prefix string, length int) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("idgen: prefix must not be empty")
	}
	if length <= 0 {
		return "", fmt.Errorf("idgen: length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("idgen: read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}

	return prefix + "_" + string(buf), nil
}

// ValidateIDFormat reports whether id has the expected prefix followed by an
// underscore and a non-empty lowercase alphanumeric suffix.
func ValidateIDFormat(id, expectedPrefix string) bool {
	want := expectedPrefix + "_"
	if !strings.HasPrefix(id, want) {
		return false
	}

	suffix := id[len(want):]
	if suffix == "" {
		return false
	}

	for _, char := range suffix {
		if (char < 'a' || char > 'z') && (char < '0' || char > '9') {
			return false
		}
	}
	return true
}
