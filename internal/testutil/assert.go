package testutil

import (
	"slices"
	"testing"

	"github.com/example/go-value-encoder/internal/encoder"
)

// AssertIndices checks that arr holds want in row-major order.
func AssertIndices(tb testing.TB, arr *encoder.Array, want []int64) {
	tb.Helper()

	if arr == nil {
		tb.Fatalf("array is nil; want %v", want)
		return
	}

	if got := arr.Int64s(); !slices.Equal(got, want) {
		tb.Errorf("indices = %v; want %v", got, want)
	}
}

// AssertRows checks that arr is a rank-2 array with the given rows.
func AssertRows(tb testing.TB, arr *encoder.Array, want [][]int64) {
	tb.Helper()

	if arr == nil {
		tb.Fatalf("array is nil; want %v", want)
		return
	}

	if arr.Rank() != 2 {
		tb.Fatalf("rank = %d; want 2", arr.Rank())
		return
	}

	got := arr.Rows()
	if len(got) != len(want) {
		tb.Fatalf("rows = %d; want %d", len(got), len(want))
		return
	}

	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			tb.Errorf("row %d = %v; want %v", i, got[i], want[i])
		}
	}
}

// AssertDType checks the element type of arr.
func AssertDType(tb testing.TB, arr *encoder.Array, want encoder.DType) {
	tb.Helper()

	if arr.DType() != want {
		tb.Errorf("dtype = %v; want %v", arr.DType(), want)
	}
}
