// Package encoder learns a finite alphabet of symbols (code points or bytes)
// and converts between that alphabet and a dense zero-based index space.
//
// An Encoder starts unfitted. Fit learns the sorted set of distinct symbols
// and binds each to its position. TransformOne, TransformBatch and the
// inverse transforms then only read the alphabet, so they may be called
// concurrently once Fit has returned. Fit itself is not synchronized.
package encoder

// Encoder owns one alphabet and the index dtype derived from it.
type Encoder struct {
	fitted bool
	alpha  *alphabet
	dtype  DType
}

// New returns an unfitted encoder.
func New() *Encoder {
	return &Encoder{}
}

// FromClasses returns an encoder fitted to classes, which must already be
// strictly ascending with no duplicate symbols. It is used to restore a
// persisted alphabet.
func FromClasses(classes Sequence) (*Encoder, error) {
	if classes.mode == modeUnset {
		return nil, typeMismatchf("invalid type, expected str or bytes")
	}

	syms := classes.symbols()
	for i := 1; i < len(syms); i++ {
		if syms[i] <= syms[i-1] {
			return nil, configErrorf("classes are not strictly ascending at position %d", i)
		}
	}

	a, err := newAlphabet(classes.mode, syms)
	if err != nil {
		return nil, err
	}

	e := New()
	if err := e.install(a); err != nil {
		return nil, err
	}

	return e, nil
}

// Fit learns the alphabet of values, replacing any previous alphabet. All
// values must share one mode. On error the encoder is left unchanged.
// Fit returns the receiver so calls can be chained.
func (e *Encoder) Fit(values ...Sequence) (*Encoder, error) {
	a, err := buildAlphabet(values)
	if err != nil {
		return e, err
	}

	if err := e.install(a); err != nil {
		return e, err
	}

	return e, nil
}

// FitTransform fits value and returns its encoding.
func (e *Encoder) FitTransform(value Sequence, opts ...TransformOption) (*Array, error) {
	if _, err := e.Fit(value); err != nil {
		return nil, err
	}

	return e.TransformOne(value, opts...)
}

func (e *Encoder) install(a *alphabet) error {
	// +1 keeps room for the cap sentinel.
	dt, err := NarrowestType(int64(a.len()), false)
	if err != nil {
		return err
	}

	e.alpha = a
	e.dtype = dt
	e.fitted = true

	return nil
}

func (e *Encoder) Fitted() bool {
	return e != nil && e.fitted
}

// Mode returns the mode the alphabet was fitted in.
func (e *Encoder) Mode() Mode {
	if !e.Fitted() {
		return modeUnset
	}

	return e.alpha.mode
}

// Len returns the alphabet size, or 0 if not fitted.
func (e *Encoder) Len() int {
	if !e.Fitted() {
		return 0
	}

	return e.alpha.len()
}

// DType returns the dtype of single-sequence transforms.
func (e *Encoder) DType() DType {
	if !e.Fitted() {
		return DTypeInvalid
	}

	return e.dtype
}

// Classes returns the alphabet as a sequence in its native form: a string
// in text mode, a byte slice in bytes mode. It returns the zero Sequence
// when the encoder is not fitted.
func (e *Encoder) Classes() Sequence {
	if !e.Fitted() {
		return Sequence{}
	}

	return sequenceFromSymbols(e.alpha.mode, e.alpha.symbols)
}

// Symbols returns a copy of the alphabet's raw symbol values.
func (e *Encoder) Symbols() []Symbol {
	if !e.Fitted() {
		return nil
	}

	return append([]Symbol(nil), e.alpha.symbols...)
}

func (e *Encoder) ready() (*alphabet, error) {
	if !e.Fitted() {
		return nil, ErrNotFitted
	}

	return e.alpha, nil
}

func (a *alphabet) checkMode(seq Sequence) error {
	if seq.mode == modeUnset {
		return typeMismatchf("invalid type, expected str or bytes")
	}

	if seq.mode != a.mode {
		return typeMismatchf("%s input for an encoder fitted in %s mode", seq.mode, a.mode)
	}

	return nil
}
