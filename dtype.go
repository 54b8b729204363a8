package wavpack

import "fmt"

// DType names the element type of an array, using numpy spelling so that
// persisted configs stay readable by other implementations.
type DType string

const (
	Int8    DType = "int8"
	Int16   DType = "int16"
	Int32   DType = "int32"
	Uint8   DType = "uint8"
	Uint16  DType = "uint16"
	Uint32  DType = "uint32"
	Float32 DType = "float32"
)

// SupportedDTypes lists every element type the codec accepts.
var SupportedDTypes = []DType{Int8, Int16, Int32, Uint8, Uint16, Uint32, Float32}

// Sample is the set of Go types that map onto a supported DType.
type Sample interface {
	int8 | int16 | int32 | uint8 | uint16 | uint32 | float32
}

// Size returns the element size in bytes, or 0 for an unsupported dtype.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	}
	return 0
}

// Bits returns the element size in bits.
func (d DType) Bits() int {
	return d.Size() * 8
}

// IsFloat reports whether d is a floating-point type.
func (d DType) IsFloat() bool {
	return d == Float32
}

// Validate returns ErrConfiguration if d is not supported.
func (d DType) Validate() error {
	if d.Size() == 0 {
		return fmt.Errorf("%w: unsupported dtype %q (supported: %v)", ErrConfiguration, string(d), SupportedDTypes)
	}
	return nil
}

func dtypeOf[T Sample]() DType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case float32:
		return Float32
	}
	return ""
}
