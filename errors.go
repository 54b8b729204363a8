package wavpack

import (
	"errors"
	"fmt"
)

// Error categories returned by the codec. Match them with errors.Is.
var (
	// ErrConfiguration indicates an invalid Config or a toolchain that
	// cannot be resolved under the requested policy.
	ErrConfiguration = errors.New("wavpack: configuration error")

	// ErrProbe indicates the toolchain version could not be determined.
	ErrProbe = errors.New("wavpack: toolchain probe failed")

	// ErrLayout indicates an array that does not fit the configured dtype
	// or the requested shape.
	ErrLayout = errors.New("wavpack: layout error")

	// ErrExternalCodec indicates wavpack or wvunpack exited non-zero
	// without producing any output.
	ErrExternalCodec = errors.New("wavpack: external codec failed")

	// ErrUsage indicates a caller-supplied destination of the wrong size.
	ErrUsage = errors.New("wavpack: usage error")
)

// CodecError describes a failed external invocation.
// It unwraps to ErrExternalCodec.
type CodecError struct {
	Program  string
	ExitCode int
	Stderr   string
	RunID    string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s exited with status %d (run %s)\nstderr: %s", e.Program, e.ExitCode, e.RunID, e.Stderr)
}

func (e *CodecError) Unwrap() error {
	return ErrExternalCodec
}
