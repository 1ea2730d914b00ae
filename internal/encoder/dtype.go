package encoder

import (
	"math"
)

// DType is the storage type of an index array.
type DType uint8

const (
	DTypeInvalid DType = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
)

var (
	unsignedTypes = []DType{Uint8, Uint16, Uint32}
	signedTypes   = []DType{Int8, Int16, Int32}
)

// Size returns the byte width of one element.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	default:
		return 0
	}
}

func (d DType) Signed() bool {
	return d == Int8 || d == Int16 || d == Int32
}

// Min returns the smallest representable value.
func (d DType) Min() int64 {
	switch d {
	case Int8:
		return math.MinInt8
	case Int16:
		return math.MinInt16
	case Int32:
		return math.MinInt32
	default:
		return 0
	}
}

// Max returns the largest representable value.
func (d DType) Max() int64 {
	switch d {
	case Uint8:
		return math.MaxUint8
	case Int8:
		return math.MaxInt8
	case Uint16:
		return math.MaxUint16
	case Int16:
		return math.MaxInt16
	case Uint32:
		return math.MaxUint32
	case Int32:
		return math.MaxInt32
	default:
		return -1
	}
}

// Contains reports whether v fits in d.
func (d DType) Contains(v int64) bool {
	return d != DTypeInvalid && v >= d.Min() && v <= d.Max()
}

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	default:
		return "invalid"
	}
}

// ParseDType is the inverse of DType.String.
func ParseDType(s string) (DType, error) {
	for _, d := range []DType{Uint8, Int8, Uint16, Int16, Uint32, Int32} {
		if d.String() == s {
			return d, nil
		}
	}

	return DTypeInvalid, configErrorf("unknown dtype %q", s)
}

// NarrowestType returns the smallest type holding every value in
// [0, maxValue]. needsSigned forces a signed type. A negative maxValue
// always yields a signed type.
func NarrowestType(maxValue int64, needsSigned bool) (DType, error) {
	lo, hi := int64(0), maxValue

	switch {
	case maxValue < 0:
		lo, hi = maxValue, 0
	case needsSigned:
		lo = -1
	}

	return rangeType(lo, hi)
}

// rangeType returns the smallest type holding every value in [lo, hi].
// Unsigned types are preferred when lo is non-negative.
func rangeType(lo, hi int64) (DType, error) {
	candidates := unsignedTypes
	if lo < 0 {
		candidates = signedTypes
	}

	for _, d := range candidates {
		if d.Contains(lo) && d.Contains(hi) {
			return d, nil
		}
	}

	return DTypeInvalid, configErrorf("no supported integer type holds [%d, %d]", lo, hi)
}
