package config

import (
	"fmt"
	"strings"
)

const (
	ModeText  = "text"
	ModeBytes = "bytes"
)

const (
	FormNone = "none"
	FormNFC  = "nfc"
	FormNFD  = "nfd"
	FormNFKC = "nfkc"
	FormNFKD = "nfkd"
)

func NormalizeMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = ModeText
	}
	switch mode {
	case ModeText, ModeBytes:
		return mode, nil
	case "str", "string", "unicode":
		return ModeText, nil
	case "binary", "raw":
		return ModeBytes, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected %s|%s)", raw, ModeText, ModeBytes)
	}
}

func NormalizeForm(raw string) (string, error) {
	form := strings.ToLower(strings.TrimSpace(raw))
	if form == "" {
		form = FormNone
	}
	switch form {
	case FormNone, FormNFC, FormNFD, FormNFKC, FormNFKD:
		return form, nil
	default:
		return "", fmt.Errorf(
			"invalid normalization form %q (expected %s|%s|%s|%s|%s)",
			raw,
			FormNone,
			FormNFC,
			FormNFD,
			FormNFKC,
			FormNFKD,
		)
	}
}
