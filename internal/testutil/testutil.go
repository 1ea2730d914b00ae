// Package testutil provides shared fixtures and assertions for encoder tests.
//
// Typical usage:
//
//	func TestMyCommand(t *testing.T) {
//	    path := testutil.WriteModel(t, encoder.Text("abc"))
//	    ...
//	    testutil.AssertIndices(t, arr, []int64{0, 1, 2})
//	}
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
)

// FitEncoder fits a new encoder on values and fails the test on error.
func FitEncoder(tb testing.TB, values ...encoder.Sequence) *encoder.Encoder {
	tb.Helper()

	enc, err := encoder.New().Fit(values...)
	if err != nil {
		tb.Fatalf("Fit: %v", err)
	}

	return enc
}

// WriteModel fits an encoder on values and saves it under a temp dir.
// It returns the model path.
func WriteModel(tb testing.TB, values ...encoder.Sequence) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "encoder.safetensors")
	if err := model.Save(path, FitEncoder(tb, values...)); err != nil {
		tb.Fatalf("save model: %v", err)
	}

	return path
}
