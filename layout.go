package wavpack

import "fmt"

// SampleBuffer is an array laid out as interleaved PCM: Samples frames of
// Channels elements each.
type SampleBuffer struct {
	DType    DType
	Shape    []int // shape of the source array
	Samples  int
	Channels int
	Data     []byte
}

// Flatten lays a out as (samples, channels) for a toolchain that addresses
// at most maxChannels channels.
//
// 1-D arrays become a single channel. 2-D arrays keep their columns as
// channels while they fit under the ceiling. Anything wider, or of rank 3
// and above, is flattened into one channel holding every element.
//
// Row-major storage is already interleaved PCM, so Data is shared with a,
// never copied.
func Flatten(a *Array, maxChannels int) (*SampleBuffer, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	buf := &SampleBuffer{
		DType: a.DType,
		Shape: append([]int(nil), a.Shape...),
		Data:  a.Data,
	}

	switch {
	case len(a.Shape) == 1:
		buf.Samples, buf.Channels = a.Shape[0], 1
	case len(a.Shape) == 2 && a.Shape[1] <= maxChannels:
		buf.Samples, buf.Channels = a.Shape[0], a.Shape[1]
	default:
		buf.Samples, buf.Channels = a.Len(), 1
	}

	return buf, nil
}

// Unflatten reinterprets raw PCM bytes as elements of dtype arranged in shape.
// An empty shape yields a 1-D array of every element.
func Unflatten(data []byte, dtype DType, shape ...int) (*Array, error) {
	size := dtype.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrLayout, string(dtype))
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %s element size %d", ErrLayout, len(data), dtype, size)
	}
	if len(shape) == 0 {
		shape = []int{len(data) / size}
	}

	a := &Array{
		DType: dtype,
		Shape: append([]int(nil), shape...),
		Data:  data,
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}
