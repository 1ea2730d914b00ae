package encoder

import "fmt"

// DefaultMissingValue fills batch padding and unknown batch symbols.
const DefaultMissingValue int64 = -1

type transformOptions struct {
	cap     bool
	missing int64
	dtype   DType
}

// TransformOption configures TransformOne, TransformBatch and FitTransform.
type TransformOption func(*transformOptions)

// WithCap appends the cap sentinel (the alphabet size) after each sequence.
func WithCap(capped bool) TransformOption {
	return func(o *transformOptions) { o.cap = capped }
}

// WithMissingValue sets the batch padding value. It also replaces unknown
// symbols in batch mode. Single-sequence transforms ignore it.
func WithMissingValue(v int64) TransformOption {
	return func(o *transformOptions) { o.missing = v }
}

// WithDType pins the output dtype instead of picking the narrowest one.
func WithDType(d DType) TransformOption {
	return func(o *transformOptions) { o.dtype = d }
}

func resolveOptions(opts []TransformOption) transformOptions {
	o := transformOptions{missing: DefaultMissingValue}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}

// maxIndex is the largest value a transform can emit for an alphabet of n
// symbols, or -1 when nothing but padding is emitted.
func maxIndex(n int, capped bool) int64 {
	if capped {
		return int64(n)
	}

	return int64(n) - 1
}

// TransformOne maps each symbol of seq to its index. An unknown symbol
// fails the whole call with *UnknownSymbolError. With WithCap the result
// has one extra trailing element equal to the alphabet size.
func (e *Encoder) TransformOne(seq Sequence, opts ...TransformOption) (*Array, error) {
	alpha, err := e.ready()
	if err != nil {
		return nil, err
	}

	if err := alpha.checkMode(seq); err != nil {
		return nil, err
	}

	o := resolveOptions(opts)

	dt := e.dtype
	if o.dtype != DTypeInvalid {
		dt = o.dtype
		if hi := maxIndex(alpha.len(), o.cap); hi >= 0 && !dt.Contains(hi) {
			return nil, configErrorf("index %d is not representable as %s", hi, dt)
		}
	}

	syms := seq.symbols()

	n := len(syms)
	if o.cap {
		n++
	}

	out := newArray(dt, n)

	for i, s := range syms {
		idx, ok := alpha.index(s)
		if !ok {
			return nil, &UnknownSymbolError{Sequence: seq, Symbol: s, Position: i}
		}

		out.put(i, int64(idx))
	}

	if o.cap {
		out.put(len(syms), int64(alpha.len()))
	}

	return out, nil
}

// TransformBatch encodes seqs into a 2-D array of shape
// (len(seqs), longest+cap). Rows are left-aligned and padded with the
// missing value. Unknown symbols are replaced by the missing value rather
// than reported.
func (e *Encoder) TransformBatch(seqs []Sequence, opts ...TransformOption) (*Array, error) {
	alpha, err := e.ready()
	if err != nil {
		return nil, err
	}

	rows := make([][]Symbol, len(seqs))
	longest := 0

	for i, seq := range seqs {
		if err := alpha.checkMode(seq); err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}

		rows[i] = seq.symbols()
		longest = max(longest, len(rows[i]))
	}

	o := resolveOptions(opts)

	dt, err := batchType(alpha.len(), o)
	if err != nil {
		return nil, err
	}

	width := longest
	if o.cap {
		width++
	}

	out := newArray(dt, len(seqs), width)
	out.fill(o.missing)

	for r, syms := range rows {
		base := r * width

		for i, s := range syms {
			if idx, ok := alpha.index(s); ok {
				out.put(base+i, int64(idx))
			}
		}

		if o.cap {
			out.put(base+len(syms), int64(alpha.len()))
		}
	}

	return out, nil
}

func batchType(n int, o transformOptions) (DType, error) {
	if o.dtype != DTypeInvalid {
		if !o.dtype.Contains(o.missing) {
			return DTypeInvalid, configErrorf("missing value %d is not representable as %s", o.missing, o.dtype)
		}

		if hi := maxIndex(n, o.cap); hi >= 0 && !o.dtype.Contains(hi) {
			return DTypeInvalid, configErrorf("index %d is not representable as %s", hi, o.dtype)
		}

		return o.dtype, nil
	}

	dt, err := rangeType(min(0, o.missing), max(int64(n), o.missing))
	if err != nil {
		return DTypeInvalid, fmt.Errorf("missing value %d: %w", o.missing, err)
	}

	return dt, nil
}
