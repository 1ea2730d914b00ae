// Package model persists fitted encoders and transform results as
// safetensors files.
//
// A model file holds one tensor, "classes", with the alphabet's symbol
// values (U8 in bytes mode, U32 code points in text mode) and metadata
// naming the format, version and mode.
package model

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/safetensors"
)

const (
	FormatName    = "value-encoder"
	FormatVersion = "1"
	ClassesTensor = "classes"

	metaFormat  = "format"
	metaVersion = "version"
	metaMode    = "mode"
)

// ErrInvalidModel is returned when a file is not a value-encoder model.
var ErrInvalidModel = errors.New("invalid model file")

// Encode serializes the alphabet of a fitted encoder.
func Encode(enc *encoder.Encoder) ([]byte, error) {
	tensor, meta, err := classesTensor(enc)
	if err != nil {
		return nil, err
	}

	return safetensors.EncodeTensors([]safetensors.Tensor{tensor}, meta)
}

// Save writes the alphabet of a fitted encoder to path.
func Save(path string, enc *encoder.Encoder) error {
	data, err := Encode(enc)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	return nil
}

func classesTensor(enc *encoder.Encoder) (safetensors.Tensor, map[string]string, error) {
	if !enc.Fitted() {
		return safetensors.Tensor{}, nil, fmt.Errorf("save model: %w", encoder.ErrNotFitted)
	}

	dtype := safetensors.DTypeU32
	if enc.Mode() == encoder.ModeBytes {
		dtype = safetensors.DTypeU8
	}

	syms := enc.Symbols()
	data := make([]int64, len(syms))

	for i, s := range syms {
		data[i] = int64(s)
	}

	tensor := safetensors.Tensor{
		Name:  ClassesTensor,
		DType: dtype,
		Shape: []int64{int64(len(data))},
		Data:  data,
	}

	meta := map[string]string{
		metaFormat:  FormatName,
		metaVersion: FormatVersion,
		metaMode:    enc.Mode().String(),
	}

	return tensor, meta, nil
}

// Load reads a model file and returns a fitted encoder.
func Load(path string) (*encoder.Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	return Decode(data)
}

// Decode is Load for an in-memory model.
func Decode(data []byte) (*encoder.Encoder, error) {
	store, err := safetensors.OpenStoreFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	defer store.Close()

	return fromStore(store)
}

func fromStore(store *safetensors.Store) (*encoder.Encoder, error) {
	meta := store.Metadata()
	if meta[metaFormat] != FormatName {
		return nil, fmt.Errorf("%w: format %q, want %q", ErrInvalidModel, meta[metaFormat], FormatName)
	}

	if v := meta[metaVersion]; v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidModel, v)
	}

	if !store.Has(ClassesTensor) {
		return nil, fmt.Errorf("%w: no %q tensor (have %v)", ErrInvalidModel, ClassesTensor, store.Names())
	}

	tensor, err := store.Tensor(ClassesTensor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	if tensor.Rank() != 1 {
		return nil, fmt.Errorf("%w: classes tensor has shape %v", ErrInvalidModel, tensor.Shape)
	}

	classes, err := classesSequence(meta[metaMode], tensor.Data)
	if err != nil {
		return nil, err
	}

	enc, err := encoder.FromClasses(classes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	return enc, nil
}

func classesSequence(mode string, data []int64) (encoder.Sequence, error) {
	switch mode {
	case encoder.ModeBytes.String():
		raw := make([]byte, len(data))
		for i, v := range data {
			if v < 0 || v > 0xff {
				return encoder.Sequence{}, fmt.Errorf("%w: byte class %d out of range", ErrInvalidModel, v)
			}

			raw[i] = byte(v)
		}

		return encoder.Bytes(raw), nil
	case encoder.ModeText.String():
		var b strings.Builder
		b.Grow(len(data))

		for _, v := range data {
			if v < 0 || v > utf8.MaxRune || !utf8.ValidRune(rune(v)) {
				return encoder.Sequence{}, fmt.Errorf("%w: text class %d is not a valid code point", ErrInvalidModel, v)
			}

			b.WriteRune(rune(v))
		}

		return encoder.Text(b.String()), nil
	default:
		return encoder.Sequence{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidModel, mode)
	}
}
