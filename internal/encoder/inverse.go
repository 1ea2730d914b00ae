package encoder

import "fmt"

// InverseTransform maps indices back to symbols. Any index outside
// [0, Len()) fails with *InvalidIndexError, including the cap sentinel and
// padding values.
func (e *Encoder) InverseTransform(indices []int64) (Sequence, error) {
	alpha, err := e.ready()
	if err != nil {
		return Sequence{}, err
	}

	return alpha.decode(indices)
}

// InverseTransformBatch decodes each row independently.
func (e *Encoder) InverseTransformBatch(rows [][]int64) ([]Sequence, error) {
	alpha, err := e.ready()
	if err != nil {
		return nil, err
	}

	out := make([]Sequence, len(rows))

	for i, row := range rows {
		seq, err := alpha.decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		out[i] = seq
	}

	return out, nil
}

// InverseTransformArray decodes a rank-1 array into one sequence or a
// rank-2 array into one sequence per row.
func (e *Encoder) InverseTransformArray(a *Array) ([]Sequence, error) {
	switch a.Rank() {
	case 1:
		seq, err := e.InverseTransform(a.Int64s())
		if err != nil {
			return nil, err
		}

		return []Sequence{seq}, nil
	case 2:
		return e.InverseTransformBatch(a.Rows())
	default:
		return nil, typeMismatchf("cannot decode array of rank %d", a.Rank())
	}
}

func (a *alphabet) decode(indices []int64) (Sequence, error) {
	syms := make([]Symbol, len(indices))

	for i, idx := range indices {
		if idx < 0 || idx >= int64(a.len()) {
			return Sequence{}, &InvalidIndexError{Index: idx, Size: a.len()}
		}

		syms[i] = a.symbols[idx]
	}

	return sequenceFromSymbols(a.mode, syms), nil
}
