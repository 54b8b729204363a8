package wavpack

import (
	"fmt"
	"strconv"
)

// MaxBlockSize caps the --blocksize value passed to wavpack.
const MaxBlockSize = 131072

// EncodeArgs returns the full argv, program first, that compresses raw PCM
// of the given layout from stdin to stdout.
func EncodeArgs(c Config, samples, channels int, tc *Toolchain) []string {
	args := []string{tc.Encoder, "-y"}

	// Mode
	switch c.CompressionMode {
	case ModeFast, ModeHigh, ModeVeryHigh:
		args = append(args, "-"+string(c.CompressionMode))
	}

	// Hybrid (lossy) mode
	if c.HybridFactor != nil {
		args = append(args, "-b"+strconv.FormatFloat(*c.HybridFactor, 'f', -1, 64))
		if c.CC {
			args = append(args, "-cc")
		}
	}

	if c.PairUnassigned {
		args = append(args, "--pair-unassigned-chans")
	}

	if c.SetBlockSize {
		args = append(args, fmt.Sprintf("--blocksize=%d", min(samples, MaxBlockSize)))
	}

	args = append(args, fmt.Sprintf("%s=%s", tc.RawPCMFlag, rawPCMDescriptor(c.SampleRate, c.DType, channels)))

	// Quiet, stdin in, stdout out
	return append(args, "-q", "-", "-o", "-")
}

// DecodeArgs returns the argv that unpacks a wavpack stream from stdin to
// headerless PCM on stdout. The stream itself records the sample format.
func DecodeArgs(c Config, tc *Toolchain) []string {
	return []string{tc.Decoder, "-y", "-q", "--raw", "-", "-o", "-"}
}

// rawPCMDescriptor formats "<rate>,<bits>[f],<channels>".
func rawPCMDescriptor(sampleRate int, dtype DType, channels int) string {
	bits := strconv.Itoa(dtype.Bits())
	if dtype.IsFloat() {
		bits += "f"
	}
	return fmt.Sprintf("%d,%s,%d", sampleRate, bits, channels)
}
