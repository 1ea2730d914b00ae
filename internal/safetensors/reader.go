package safetensors

import (
	"fmt"
)

// Tensor holds a single integer tensor. Data is widened to int64 regardless
// of the on-disk DType.
type Tensor struct {
	Name  string
	DType string
	Shape []int64
	Data  []int64
}

// LoadFirstTensor reads a safetensors file and returns the first tensor by
// name.
func LoadFirstTensor(path string) (*Tensor, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	// OpenStore rejects files without tensors.
	return store.Tensor(store.Names()[0])
}

// LoadTensor reads a safetensors file and returns the named tensor along
// with the file metadata.
func LoadTensor(path, name string) (*Tensor, map[string]string, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	t, err := store.Tensor(name)
	if err != nil {
		return nil, nil, err
	}

	return t, store.Metadata(), nil
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// IntShape converts the shape to int dimensions.
func (t *Tensor) IntShape() ([]int, error) {
	out := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		if d < 0 || int64(int(d)) != d {
			return nil, fmt.Errorf("safetensors: tensor %q dimension %d out of range", t.Name, d)
		}

		out[i] = int(d)
	}

	return out, nil
}
