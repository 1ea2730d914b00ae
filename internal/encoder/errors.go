package encoder

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when an input is not a text or byte sequence,
	// or when text and byte sequences are mixed.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnknownSymbol is matched by *UnknownSymbolError.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrInvalidIndex is matched by *InvalidIndexError.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrNotFitted is returned by transforms called before a successful Fit.
	ErrNotFitted = errors.New("encoder is not fitted")
	// ErrConfiguration is returned when a missing value, cap or pinned dtype
	// produces a value that cannot be stored.
	ErrConfiguration = errors.New("configuration error")
)

// UnknownSymbolError reports a symbol that is absent from the fitted alphabet.
// Sequence is the whole input that contained it.
type UnknownSymbolError struct {
	Sequence Sequence
	Symbol   Symbol
	Position int
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %s in %s", e.Symbol.Format(e.Sequence.Mode()), e.Sequence.Quote())
}

func (e *UnknownSymbolError) Is(target error) bool {
	return target == ErrUnknownSymbol
}

// InvalidIndexError reports an index outside [0, Size).
type InvalidIndexError struct {
	Index int64
	Size  int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid index: %d", e.Index)
}

func (e *InvalidIndexError) Is(target error) bool {
	return target == ErrInvalidIndex
}

func typeMismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrTypeMismatch}, args...)...)
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
