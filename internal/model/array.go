package model

import (
	"fmt"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/safetensors"
)

// DefaultArrayName is the tensor name ExportArray uses when name is empty.
const DefaultArrayName = "indices"

var dtypeNames = map[encoder.DType]string{
	encoder.Uint8:  safetensors.DTypeU8,
	encoder.Int8:   safetensors.DTypeI8,
	encoder.Uint16: safetensors.DTypeU16,
	encoder.Int16:  safetensors.DTypeI16,
	encoder.Uint32: safetensors.DTypeU32,
	encoder.Int32:  safetensors.DTypeI32,
}

// SafetensorsDType maps an encoder dtype to its safetensors name.
func SafetensorsDType(d encoder.DType) (string, error) {
	name, ok := dtypeNames[d]
	if !ok {
		return "", fmt.Errorf("no safetensors dtype for %v", d)
	}

	return name, nil
}

// EncoderDType maps a safetensors dtype name back to an encoder dtype.
func EncoderDType(name string) (encoder.DType, error) {
	for d, n := range dtypeNames {
		if n == name {
			return d, nil
		}
	}

	return encoder.DTypeInvalid, fmt.Errorf("safetensors dtype %q has no encoder equivalent", name)
}

// ExportArray writes a transform result to path as a single tensor in the
// array's own dtype.
func ExportArray(path, name string, arr *encoder.Array) error {
	if name == "" {
		name = DefaultArrayName
	}

	dtype, err := SafetensorsDType(arr.DType())
	if err != nil {
		return err
	}

	dims := arr.Shape()
	shape := make([]int64, len(dims))

	for i, d := range dims {
		shape[i] = int64(d)
	}

	tensor := safetensors.Tensor{
		Name:  name,
		DType: dtype,
		Shape: shape,
		Data:  arr.Int64s(),
	}

	return safetensors.WriteFile(path, []safetensors.Tensor{tensor}, map[string]string{metaFormat: FormatName})
}

// ImportArray reads a tensor written by ExportArray. An empty name reads the
// first tensor in the file.
func ImportArray(path, name string) (*encoder.Array, error) {
	var (
		tensor *safetensors.Tensor
		err    error
	)

	if name == "" {
		tensor, err = safetensors.LoadFirstTensor(path)
	} else {
		tensor, _, err = safetensors.LoadTensor(path, name)
	}
	if err != nil {
		return nil, err
	}

	dtype, err := EncoderDType(tensor.DType)
	if err != nil {
		return nil, err
	}

	shape, err := tensor.IntShape()
	if err != nil {
		return nil, err
	}

	return encoder.NewArray(dtype, shape, tensor.Data)
}
