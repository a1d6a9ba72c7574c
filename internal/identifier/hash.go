// Package identifier turns raw customer identifiers (email addresses, phone
// numbers) into the normalized SHA-256 form accepted by Customer Match.
//
// Normalization only trims surrounding whitespace and lowercases. The value is
// not validated as an email or phone number: "not-an-email" is hashed like
// anything else.
package identifier

import (
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrEncoding is returned when a raw identifier is not valid UTF-8.
	ErrEncoding = errors.New("identifier is not valid UTF-8")

	// ErrAlgorithmUnavailable is returned by CheckAlgorithm when SHA-256
	// cannot be used in this process.
	ErrAlgorithmUnavailable = errors.New("sha-256 implementation unavailable")
)

// HexLength is the length of every hashed identifier.
const HexLength = sha256.Size * 2

// emptyDigest is the well-known SHA-256 of zero bytes.
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// CheckAlgorithm verifies SHA-256 is linked in and produces the reference
// digest. Call it once at startup; Hash does not re-check.
func CheckAlgorithm() error {
	if !crypto.SHA256.Available() {
		return ErrAlgorithmUnavailable
	}
	sum := sha256.Sum256(nil)
	if got := hex.EncodeToString(sum[:]); got != emptyDigest {
		return fmt.Errorf("%w: self-test digest %s", ErrAlgorithmUnavailable, got)
	}
	return nil
}

// Normalize trims leading/trailing whitespace and lowercases s using the
// root (locale-independent) case mapping. Normalize is idempotent.
func Normalize(s string) string {
	// A Caser keeps state between calls, so one is built per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Hash normalizes raw and returns the lowercase hex SHA-256 of its UTF-8
// bytes. The empty string is accepted.
func Hash(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("%w: %q", ErrEncoding, raw)
	}
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:]), nil
}
