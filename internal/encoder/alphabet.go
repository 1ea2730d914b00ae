package encoder

import (
	"slices"
)

// MaxAlphabetSize is the largest alphabet Fit accepts.
const MaxAlphabetSize = 1 << 16

// alphabet is the sorted, deduplicated symbol table. It is never mutated
// after construction.
type alphabet struct {
	mode    Mode
	symbols []Symbol
	// byteIndex maps a byte value to its index, or -1. Only set in bytes mode.
	byteIndex *[256]int32
}

// buildAlphabet collects the distinct symbols of values. No values yields
// an empty text alphabet.
func buildAlphabet(values []Sequence) (*alphabet, error) {
	if len(values) == 0 {
		return newAlphabet(ModeText, []Symbol{})
	}

	mode := values[0].mode
	for i, v := range values {
		if v.mode == modeUnset {
			return nil, typeMismatchf("element %d: invalid type, expected str or bytes", i)
		}

		if v.mode != mode {
			return nil, typeMismatchf("element %d is %s but element 0 is %s", i, v.mode, mode)
		}
	}

	var syms []Symbol

	if mode == ModeBytes {
		var present [256]bool

		for _, v := range values {
			for _, b := range v.raw {
				present[b] = true
			}
		}

		for b, ok := range present {
			if ok {
				syms = append(syms, Symbol(b))
			}
		}
	} else {
		seen := make(map[Symbol]struct{})

		for _, v := range values {
			for _, r := range v.text {
				seen[Symbol(r)] = struct{}{}
			}
		}

		syms = make([]Symbol, 0, len(seen))
		for s := range seen {
			syms = append(syms, s)
		}

		slices.Sort(syms)
	}

	return newAlphabet(mode, syms)
}

func newAlphabet(mode Mode, syms []Symbol) (*alphabet, error) {
	if len(syms) > MaxAlphabetSize {
		return nil, configErrorf("alphabet has %d symbols, limit is %d", len(syms), MaxAlphabetSize)
	}

	a := &alphabet{mode: mode, symbols: syms}

	if mode == ModeBytes {
		var table [256]int32
		for i := range table {
			table[i] = -1
		}

		for i, s := range syms {
			table[s] = int32(i)
		}

		a.byteIndex = &table
	}

	return a, nil
}

func (a *alphabet) len() int {
	return len(a.symbols)
}

func (a *alphabet) index(s Symbol) (int, bool) {
	if a.byteIndex != nil {
		if s > 0xff {
			return -1, false
		}

		i := a.byteIndex[s]

		return int(i), i >= 0
	}

	return slices.BinarySearch(a.symbols, s)
}
