package encoder

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestInverseTransform_RoundTrip(t *testing.T) {
	enc := mustFit(t, Text("abced"))

	encoded, err := enc.TransformOne(Text("aabec"))
	if err != nil {
		t.Fatalf("TransformOne: %v", err)
	}

	decoded, err := enc.InverseTransform(encoded.Int64s())
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}

	if decoded.String() != "aabec" || decoded.Mode() != ModeText {
		t.Errorf("InverseTransform = %q (%v); want %q (text)", decoded.String(), decoded.Mode(), "aabec")
	}
}

func TestInverseTransform_RoundTripBytes(t *testing.T) {
	input := []byte{0x00, 0x10, 0xff, 0x10}
	enc := mustFit(t, Bytes(input))

	encoded, err := enc.TransformOne(Bytes(input))
	if err != nil {
		t.Fatalf("TransformOne: %v", err)
	}

	decoded, err := enc.InverseTransform(encoded.Int64s())
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}

	if decoded.Mode() != ModeBytes || !slices.Equal(decoded.Bytes(), input) {
		t.Errorf("InverseTransform = %v; want %v", decoded.Bytes(), input)
	}
}

func TestInverseTransform_InvalidIndex(t *testing.T) {
	enc := mustFit(t, Text("abcde"))

	for _, bad := range []int64{5, -1, 100} {
		_, err := enc.InverseTransform([]int64{0, 0, bad})
		if !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("index %d: err = %v; want ErrInvalidIndex", bad, err)
		}

		var idxErr *InvalidIndexError
		if !errors.As(err, &idxErr) || idxErr.Index != bad {
			t.Errorf("index %d: error = %#v", bad, err)
		}
	}

	_, err := enc.InverseTransform([]int64{0, 0, 5})
	if err == nil || err.Error() != "invalid index: 5" {
		t.Errorf("error = %v; want %q", err, "invalid index: 5")
	}
}

func TestInverseTransform_RejectsCapSentinel(t *testing.T) {
	enc := mustFit(t, Text("abc"))

	capped, err := enc.TransformOne(Text("cab"), WithCap(true))
	if err != nil {
		t.Fatalf("TransformOne: %v", err)
	}

	if _, err := enc.InverseTransformArray(capped); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err = %v; want ErrInvalidIndex", err)
	}
}

func TestInverseTransformBatch(t *testing.T) {
	enc := mustFit(t, Text("abced"))

	got, err := enc.InverseTransformBatch([][]int64{{0, 0, 1, 4, 2}, {0, 3}, {}})
	if err != nil {
		t.Fatalf("InverseTransformBatch: %v", err)
	}

	want := []string{"aabec", "ad", ""}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("row %d = %q; want %q", i, got[i].String(), want[i])
		}
	}

	_, err = enc.InverseTransformBatch([][]int64{{0}, {0, -1}})
	if !errors.Is(err, ErrInvalidIndex) || !strings.Contains(err.Error(), "row 1") {
		t.Errorf("padded row err = %v; want ErrInvalidIndex on row 1", err)
	}
}

func TestInverseTransformArray_Rank2(t *testing.T) {
	enc := mustFit(t, Text("abc"))

	arr, err := enc.TransformBatch([]Sequence{Text("ab"), Text("ca")})
	if err != nil {
		t.Fatalf("TransformBatch: %v", err)
	}

	got, err := enc.InverseTransformArray(arr)
	if err != nil {
		t.Fatalf("InverseTransformArray: %v", err)
	}

	if len(got) != 2 || got[0].String() != "ab" || got[1].String() != "ca" {
		t.Errorf("InverseTransformArray = %v", got)
	}
}
