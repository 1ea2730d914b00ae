package encoder

import (
	"encoding/binary"
	"fmt"
)

// Array is a dense, row-major integer array. Elements are stored
// little-endian at the real width of the array's dtype.
type Array struct {
	dtype DType
	shape []int
	buf   []byte
}

func newArray(dtype DType, shape ...int) *Array {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return &Array{
		dtype: dtype,
		shape: shape,
		buf:   make([]byte, n*dtype.Size()),
	}
}

// NewArray builds an array from values. Every value must fit in dtype and
// len(values) must match the shape.
func NewArray(dtype DType, shape []int, values []int64) (*Array, error) {
	if dtype.Size() == 0 {
		return nil, configErrorf("invalid dtype %v", dtype)
	}

	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("array: negative dimension in shape %v", shape)
		}

		n *= d
	}

	if n != len(values) {
		return nil, fmt.Errorf("array: shape %v expects %d elements, got %d", shape, n, len(values))
	}

	a := newArray(dtype, append([]int(nil), shape...)...)
	for i, v := range values {
		if !dtype.Contains(v) {
			return nil, configErrorf("value %d at %d is not representable as %s", v, i, dtype)
		}

		a.put(i, v)
	}

	return a, nil
}

func (a *Array) DType() DType {
	return a.dtype
}

// Shape returns a copy of the array dimensions.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

func (a *Array) Rank() int {
	return len(a.shape)
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	return len(a.buf) / a.dtype.Size()
}

// At returns the element at the given coordinates. It panics when the
// coordinates do not match the array's rank or are out of range.
func (a *Array) At(idx ...int) int64 {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("array: %d coordinates for rank %d", len(idx), len(a.shape)))
	}

	off := 0
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			panic(fmt.Sprintf("array: index %d out of range for dimension %d of size %d", x, i, a.shape[i]))
		}

		off = off*a.shape[i] + x
	}

	return a.get(off)
}

// Int64s returns all elements in row-major order.
func (a *Array) Int64s() []int64 {
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = a.get(i)
	}

	return out
}

// Rows splits a rank-2 array into rows. A rank-1 array is one row.
func (a *Array) Rows() [][]int64 {
	flat := a.Int64s()
	if len(a.shape) < 2 {
		return [][]int64{flat}
	}

	width := a.shape[len(a.shape)-1]
	rows := make([][]int64, 0, a.shape[0])

	for start := 0; start < len(flat); start += width {
		rows = append(rows, flat[start:start+width:start+width])
	}

	for len(rows) < a.shape[0] {
		rows = append(rows, []int64{})
	}

	return rows
}

func (a *Array) put(i int, v int64) {
	switch a.dtype.Size() {
	case 1:
		a.buf[i] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(a.buf[i*2:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(a.buf[i*4:], uint32(v))
	}
}

func (a *Array) get(i int) int64 {
	switch a.dtype {
	case Uint8:
		return int64(a.buf[i])
	case Int8:
		return int64(int8(a.buf[i]))
	case Uint16:
		return int64(binary.LittleEndian.Uint16(a.buf[i*2:]))
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(a.buf[i*2:])))
	case Uint32:
		return int64(binary.LittleEndian.Uint32(a.buf[i*4:]))
	case Int32:
		return int64(int32(binary.LittleEndian.Uint32(a.buf[i*4:])))
	default:
		return 0
	}
}

func (a *Array) fill(v int64) {
	for i := range a.Len() {
		a.put(i, v)
	}
}
