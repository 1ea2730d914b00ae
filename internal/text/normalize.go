// Package text prepares raw CLI and HTTP input before it reaches the encoder.
// The encoder itself only sees code points; anything Unicode-aware lives here.
package text

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty.
var ErrEmptyText = errors.New("text is empty")

const (
	FormNone = "none"
	FormNFC  = "nfc"
	FormNFD  = "nfd"
	FormNFKC = "nfkc"
	FormNFKD = "nfkd"
)

// NormalizeNewlines converts CRLF and bare CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Normalize prepares a single input value. It normalizes line endings,
// drops one trailing newline (as left by files and echo), and rejects
// empty input. Other whitespace is content and is kept.
func Normalize(s string) (string, error) {
	s = strings.TrimSuffix(NormalizeNewlines(s), "\n")
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// SplitLines splits batch input into one value per line. Empty lines are
// dropped unless keepEmpty is set; a single trailing newline never yields
// an extra row.
func SplitLines(s string, keepEmpty bool) []string {
	s = strings.TrimSuffix(NormalizeNewlines(s), "\n")
	if s == "" {
		return []string{}
	}

	lines := strings.Split(s, "\n")
	if keepEmpty {
		return lines
	}

	out := lines[:0]
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

// ApplyForm applies a Unicode normalization form by name. FormNone and the
// empty string leave s unchanged.
func ApplyForm(s, form string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(form)) {
	case "", FormNone:
		return s, nil
	case FormNFC:
		return norm.NFC.String(s), nil
	case FormNFD:
		return norm.NFD.String(s), nil
	case FormNFKC:
		return norm.NFKC.String(s), nil
	case FormNFKD:
		return norm.NFKD.String(s), nil
	default:
		return "", fmt.Errorf("unknown normalization form %q (want none|nfc|nfd|nfkc|nfkd)", form)
	}
}
