package wavpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Raw PCM on the wavpack pipes is always little-endian.

// samplesToBytes packs typed samples into their little-endian byte form.
func samplesToBytes[T Sample](values []T) []byte {
	var buf bytes.Buffer
	buf.Grow(len(values) * dtypeOf[T]().Size())
	// binary.Write on a slice of fixed-size values never fails for a bytes.Buffer.
	_ = binary.Write(&buf, binary.LittleEndian, values)
	return buf.Bytes()
}

// bytesToSamples unpacks little-endian bytes into typed samples.
func bytesToSamples[T Sample](data []byte) ([]T, error) {
	size := dtypeOf[T]().Size()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of element size %d", ErrLayout, len(data), size)
	}
	out := make([]T, len(data)/size)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayout, err)
	}
	return out, nil
}
