package wavpack

import (
	"fmt"
)

// Array is a row-major N-dimensional array of a single dtype.
// Data holds the elements in little-endian byte order.
type Array struct {
	DType DType
	Shape []int
	Data  []byte
}

// NewArray builds an Array from typed values. With no shape the array is 1-D.
func NewArray[T Sample](values []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	if n != len(values) {
		return nil, fmt.Errorf("%w: %d values do not fill shape %v", ErrLayout, len(values), shape)
	}
	return &Array{
		DType: dtypeOf[T](),
		Shape: append([]int(nil), shape...),
		Data:  samplesToBytes(values),
	}, nil
}

// Values returns the elements of a as a typed slice. T must match a.DType.
func Values[T Sample](a *Array) ([]T, error) {
	if want := dtypeOf[T](); a.DType != want {
		return nil, fmt.Errorf("%w: array is %s, requested %s", ErrLayout, a.DType, want)
	}
	return bytesToSamples[T](a.Data)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if size := a.DType.Size(); size > 0 {
		return len(a.Data) / size
	}
	return 0
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Reshape returns a view of a with a new shape holding the same elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	return Unflatten(a.Data, a.DType, shape...)
}

// validate checks the dtype and that Shape and Data agree.
func (a *Array) validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrLayout)
	}
	if a.DType.Size() == 0 {
		return fmt.Errorf("%w: unsupported dtype %q", ErrLayout, string(a.DType))
	}
	n, err := elementCount(a.Shape)
	if err != nil {
		return err
	}
	if n*a.DType.Size() != len(a.Data) {
		return fmt.Errorf("%w: shape %v of %s needs %d bytes, have %d",
			ErrLayout, a.Shape, a.DType, n*a.DType.Size(), len(a.Data))
	}
	return nil
}

func elementCount(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: empty shape", ErrLayout)
	}
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("%w: shape %v has a non-positive dimension", ErrLayout, shape)
		}
		n *= dim
	}
	return n, nil
}
