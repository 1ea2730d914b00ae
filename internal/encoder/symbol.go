package encoder

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Mode selects how a sequence is split into symbols.
type Mode uint8

const (
	modeUnset Mode = iota
	// ModeText treats a sequence as Unicode code points.
	ModeText
	// ModeBytes treats a sequence as raw byte values.
	ModeBytes
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeBytes:
		return "bytes"
	default:
		return "unset"
	}
}

// Symbol is one code point (text mode) or one byte value (bytes mode).
type Symbol uint32

// Format renders s the way error messages show it: a quoted character in
// text mode, the integer value in bytes mode.
func (s Symbol) Format(m Mode) string {
	if m == ModeText {
		return strconv.QuoteRune(rune(s))
	}

	return strconv.FormatUint(uint64(s), 10)
}

// Sequence is a tagged text or byte input. The zero value is not a valid
// sequence and is rejected with ErrTypeMismatch.
type Sequence struct {
	mode Mode
	text string
	raw  []byte
}

// Text wraps a string whose symbols are its code points.
// Invalid UTF-8 bytes decode to U+FFFD, one symbol per byte.
func Text(s string) Sequence {
	return Sequence{mode: ModeText, text: s}
}

// Bytes wraps a buffer whose symbols are its byte values.
func Bytes(b []byte) Sequence {
	return Sequence{mode: ModeBytes, raw: b}
}

func (s Sequence) Mode() Mode {
	return s.mode
}

// String returns the sequence content as a Go string.
func (s Sequence) String() string {
	if s.mode == ModeBytes {
		return string(s.raw)
	}

	return s.text
}

// Bytes returns a copy of the sequence content.
func (s Sequence) Bytes() []byte {
	if s.mode == ModeBytes {
		return append([]byte(nil), s.raw...)
	}

	return []byte(s.text)
}

// Quote returns the content as a double-quoted Go literal.
func (s Sequence) Quote() string {
	return strconv.Quote(s.String())
}

// Len returns the number of symbols in the sequence.
func (s Sequence) Len() int {
	switch s.mode {
	case ModeText:
		return utf8.RuneCountInString(s.text)
	case ModeBytes:
		return len(s.raw)
	default:
		return 0
	}
}

// Equal reports whether both sequences have the same mode and content.
func (s Sequence) Equal(o Sequence) bool {
	if s.mode != o.mode {
		return false
	}

	if s.mode == ModeBytes {
		return bytes.Equal(s.raw, o.raw)
	}

	return s.text == o.text
}

func (s Sequence) symbols() []Symbol {
	switch s.mode {
	case ModeText:
		out := make([]Symbol, 0, len(s.text))
		for _, r := range s.text {
			out = append(out, Symbol(r))
		}

		return out
	case ModeBytes:
		out := make([]Symbol, len(s.raw))
		for i, b := range s.raw {
			out[i] = Symbol(b)
		}

		return out
	default:
		return nil
	}
}

func sequenceFromSymbols(mode Mode, syms []Symbol) Sequence {
	if mode == ModeBytes {
		raw := make([]byte, len(syms))
		for i, s := range syms {
			raw[i] = byte(s)
		}

		return Bytes(raw)
	}

	var b strings.Builder
	b.Grow(len(syms))

	for _, s := range syms {
		b.WriteRune(rune(s))
	}

	return Text(b.String())
}

// SequenceOf converts a dynamic value into a Sequence. Strings become text
// sequences and byte slices become byte sequences.
func SequenceOf(v any) (Sequence, error) {
	switch x := v.(type) {
	case Sequence:
		if x.mode == modeUnset {
			return Sequence{}, typeMismatchf("invalid type, expected str or bytes")
		}

		return x, nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	default:
		return Sequence{}, typeMismatchf("invalid type %T, expected str or bytes", v)
	}
}

// SequencesOf converts a dynamic collection into sequences. A single string
// or byte slice yields one sequence. Every element of a collection must
// convert with SequenceOf.
func SequencesOf(v any) ([]Sequence, error) {
	switch x := v.(type) {
	case string, []byte, Sequence:
		seq, err := SequenceOf(x)
		if err != nil {
			return nil, err
		}

		return []Sequence{seq}, nil
	case []string:
		out := make([]Sequence, len(x))
		for i, s := range x {
			out[i] = Text(s)
		}

		return out, nil
	case [][]byte:
		out := make([]Sequence, len(x))
		for i, b := range x {
			out[i] = Bytes(b)
		}

		return out, nil
	case []Sequence:
		for i, s := range x {
			if s.mode == modeUnset {
				return nil, typeMismatchf("element %d: invalid type, expected str or bytes", i)
			}
		}

		return x, nil
	case []any:
		out := make([]Sequence, len(x))
		for i, elem := range x {
			seq, err := SequenceOf(elem)
			if err != nil {
				return nil, typeMismatchf("element %d: invalid type %T, expected str or bytes", i, elem)
			}

			out[i] = seq
		}

		return out, nil
	default:
		return nil, typeMismatchf("invalid type %T, expected str, bytes or a collection of them", v)
	}
}
