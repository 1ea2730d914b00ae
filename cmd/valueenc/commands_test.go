package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/model"
	"github.com/example/go-value-encoder/internal/testutil"
)

// runCLI executes the root command with args and stdin, returning stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()

	return out.String(), err
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()

	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}

	return v
}

// ---------------------------------------------------------------------------
// fit
// ---------------------------------------------------------------------------

func TestFit_ArgsWriteModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "enc.safetensors")

	out, err := runCLI(t, "", "fit", "--paths-model-path", path, "cab", "bd")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	view := decodeOutput[classesOutput](t, out)
	if view.Classes != "abcd" || view.Size != 4 || view.DType != "uint8" {
		t.Errorf("fit output = %+v; want classes abcd size 4 uint8", view)
	}

	enc, err := model.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := enc.Classes().String(); got != "abcd" {
		t.Errorf("saved classes = %q; want abcd", got)
	}
}

func TestFit_StdinLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enc.safetensors")

	if _, err := runCLI(t, "xy\r\n\r\nz\n", "fit", "--paths-model-path", path, "--lines"); err != nil {
		t.Fatalf("fit: %v", err)
	}

	enc, err := model.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := enc.Classes().String(); got != "xyz" {
		t.Errorf("classes = %q; want xyz", got)
	}
}

func TestFit_BytesModeFromFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.bin")
	if err := os.WriteFile(input, []byte{0xff, 0x00, 0x0a}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	path := filepath.Join(dir, "enc.safetensors")
	if _, err := runCLI(t, "", "fit", "--paths-model-path", path, "--mode", "bytes", "--input", input); err != nil {
		t.Fatalf("fit: %v", err)
	}

	enc, err := model.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if want := []byte{0x00, 0x0a, 0xff}; !slices.Equal(enc.Classes().Bytes(), want) {
		t.Errorf("classes = %v; want %v", enc.Classes().Bytes(), want)
	}
}

func TestFit_EmptyStdinFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enc.safetensors")

	if _, err := runCLI(t, "\n", "fit", "--paths-model-path", path); err == nil {
		t.Fatal("fit with empty stdin succeeded")
	}
}

func TestFit_InvalidModeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enc.safetensors")

	if _, err := runCLI(t, "", "fit", "--paths-model-path", path, "--mode", "words", "abc"); err == nil {
		t.Fatal("fit with invalid mode succeeded")
	}
}

// ---------------------------------------------------------------------------
// transform
// ---------------------------------------------------------------------------

func TestTransform_Single(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))

	out, err := runCLI(t, "", "transform", "--paths-model-path", path, "aabec")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	view := decodeOutput[struct {
		DType   string  `json:"dtype"`
		Shape   []int   `json:"shape"`
		Indices []int64 `json:"indices"`
	}](t, out)

	if view.DType != "uint8" || !slices.Equal(view.Shape, []int{5}) {
		t.Errorf("dtype/shape = %s/%v; want uint8/[5]", view.DType, view.Shape)
	}

	if want := []int64{0, 0, 1, 4, 2}; !slices.Equal(view.Indices, want) {
		t.Errorf("indices = %v; want %v", view.Indices, want)
	}
}

func TestTransform_BatchFromStdinLines(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))

	out, err := runCLI(t, "aabec\nad\n", "transform", "--paths-model-path", path, "--lines", "--cap")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	view := decodeOutput[struct {
		DType   string    `json:"dtype"`
		Indices [][]int64 `json:"indices"`
	}](t, out)

	if view.DType != "int8" {
		t.Errorf("dtype = %q; want int8", view.DType)
	}

	want := [][]int64{{0, 0, 1, 4, 2, 5}, {0, 3, 5, -1, -1, -1}}
	for i := range want {
		if !slices.Equal(view.Indices[i], want[i]) {
			t.Errorf("row %d = %v; want %v", i, view.Indices[i], want[i])
		}
	}
}

func TestTransform_UnknownSymbolFails(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abc"))

	_, err := runCLI(t, "", "transform", "--paths-model-path", path, "abcf")
	if !errors.Is(err, encoder.ErrUnknownSymbol) {
		t.Fatalf("err = %v; want ErrUnknownSymbol", err)
	}
}

func TestTransform_MissingModelFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.safetensors")

	_, err := runCLI(t, "", "transform", "--paths-model-path", path, "abc")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v; want os.ErrNotExist", err)
	}
}

func TestTransform_ExportThenInverseArray(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))
	arrPath := filepath.Join(t.TempDir(), "indices.safetensors")

	if _, err := runCLI(t, "", "transform", "--paths-model-path", path, "--batch", "--out", arrPath, "aabec"); err != nil {
		t.Fatalf("transform: %v", err)
	}

	arr, err := model.ImportArray(arrPath, "")
	if err != nil {
		t.Fatalf("ImportArray: %v", err)
	}

	testutil.AssertRows(t, arr, [][]int64{{0, 0, 1, 4, 2}})
	testutil.AssertDType(t, arr, encoder.Int8)

	out, err := runCLI(t, "", "inverse", "--paths-model-path", path, "--array", arrPath)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}

	view := decodeOutput[inverseOutput](t, out)
	if !slices.Equal(view.Values, []string{"aabec"}) {
		t.Errorf("values = %q; want [aabec]", view.Values)
	}
}

func TestInverse_ArrayDefaultsToFirstTensor(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))
	arrPath := filepath.Join(t.TempDir(), "codes.safetensors")

	if _, err := runCLI(t, "", "transform", "--paths-model-path", path, "--out", arrPath, "--name", "codes", "bead"); err != nil {
		t.Fatalf("transform: %v", err)
	}

	arr, err := model.ImportArray(arrPath, "codes")
	if err != nil {
		t.Fatalf("ImportArray: %v", err)
	}

	testutil.AssertIndices(t, arr, []int64{1, 4, 0, 3})

	out, err := runCLI(t, "", "inverse", "--paths-model-path", path, "--array", arrPath)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}

	view := decodeOutput[inverseOutput](t, out)
	if !slices.Equal(view.Values, []string{"bead"}) {
		t.Errorf("values = %q; want [bead]", view.Values)
	}
}

func TestTransform_PinnedDType(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abc"))

	out, err := runCLI(t, "", "transform", "--paths-model-path", path, "--dtype", "int32", "cab")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if view := decodeOutput[transformOutput](t, out); view.DType != "int32" {
		t.Errorf("dtype = %q; want int32", view.DType)
	}
}

// ---------------------------------------------------------------------------
// inverse / classes
// ---------------------------------------------------------------------------

func TestInverse_Args(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))

	out, err := runCLI(t, "", "inverse", "--paths-model-path", path, "0", "3", "4")
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}

	view := decodeOutput[inverseOutput](t, out)
	if !slices.Equal(view.Values, []string{"ade"}) || view.Encoding != "utf-8" {
		t.Errorf("output = %+v; want [ade] utf-8", view)
	}
}

func TestInverse_StdinRows(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))

	out, err := runCLI(t, "[[0,1],[2]]", "inverse", "--paths-model-path", path)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}

	view := decodeOutput[inverseOutput](t, out)
	if !slices.Equal(view.Values, []string{"ab", "c"}) {
		t.Errorf("values = %q; want [ab c]", view.Values)
	}
}

func TestInverse_InvalidIndexFails(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abced"))

	_, err := runCLI(t, "", "inverse", "--paths-model-path", path, "5")
	if !errors.Is(err, encoder.ErrInvalidIndex) {
		t.Fatalf("err = %v; want ErrInvalidIndex", err)
	}

	if !strings.Contains(err.Error(), "invalid index: 5") {
		t.Errorf("error %q does not name the index", err.Error())
	}
}

func TestInverse_BadArgumentFails(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Text("abc"))

	if _, err := runCLI(t, "", "inverse", "--paths-model-path", path, "x"); err == nil {
		t.Fatal("inverse with non-integer argument succeeded")
	}
}

func TestClasses_Bytes(t *testing.T) {
	path := testutil.WriteModel(t, encoder.Bytes([]byte{0x00, 0xff}))

	out, err := runCLI(t, "", "classes", "--paths-model-path", path)
	if err != nil {
		t.Fatalf("classes: %v", err)
	}

	view := decodeOutput[classesOutput](t, out)
	if view.Mode != "bytes" || view.Classes != "AP8=" || view.Encoding != "base64" || view.Size != 2 {
		t.Errorf("classes = %+v; want bytes AP8= base64 size 2", view)
	}
}

// ---------------------------------------------------------------------------
// input helpers
// ---------------------------------------------------------------------------

func TestReadValues(t *testing.T) {
	tests := []struct {
		name  string
		opts  inputOptions
		mode  encoder.Mode
		stdin string
		want  []string
	}{
		{"args win", inputOptions{Args: []string{"a", "b"}}, encoder.ModeText, "ignored", []string{"a", "b"}},
		{"stdin drops trailing newline", inputOptions{}, encoder.ModeText, "abc\n", []string{"abc"}},
		{"stdin lines", inputOptions{Lines: true}, encoder.ModeText, "a\n\nb\n", []string{"a", "b"}},
		{"keep empty lines", inputOptions{Lines: true, KeepEmpty: true}, encoder.ModeText, "a\n\nb\n", []string{"a", "", "b"}},
		{"bytes kept raw", inputOptions{}, encoder.ModeBytes, "a\r\n", []string{"a\r\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readValues(tt.opts, tt.mode, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("readValues: %v", err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("readValues = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestReadIndexRows(t *testing.T) {
	rows, err := readIndexRows(nil, "", strings.NewReader(" [1, 2] \n"))
	if err != nil || len(rows) != 1 || !slices.Equal(rows[0], []int64{1, 2}) {
		t.Errorf("flat stdin = %v, %v; want [[1 2]]", rows, err)
	}

	rows, err = readIndexRows([]string{"3", "-1"}, "", nil)
	if err != nil || !slices.Equal(rows[0], []int64{3, -1}) {
		t.Errorf("args = %v, %v; want [[3 -1]]", rows, err)
	}

	if _, err := readIndexRows(nil, "", strings.NewReader("")); err == nil {
		t.Error("empty input succeeded")
	}

	if _, err := readIndexRows(nil, "", strings.NewReader(`{"a":1}`)); err == nil {
		t.Error("object input succeeded")
	}
}
