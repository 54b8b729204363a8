package wavpack

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// identityBody behaves like wavpack for --version and like cat otherwise,
// recording its arguments in <script>.args.
const identityBody = `if [ "$1" = "--version" ]; then
  echo "wavpack %VERSION%"
  echo "libwavpack %VERSION%"
  exit 0
fi
printf '%s\n' "$@" > "$0.args"
exec cat
`

// failingBody drains stdin and fails the way wvunpack does on bad input.
const failingBody = `cat > /dev/null
echo "not compatible with this version of WavPack file!" >&2
exit 1
`

func requireShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake toolchains need /bin/sh")
	}
}

// writeScript writes an executable shell script into dir.
func writeScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// fakeBundle writes an identity wavpack/wvunpack pair reporting version
// and returns its directory.
func fakeBundle(t testing.TB, version string) string {
	t.Helper()
	requireShell(t)

	dir := t.TempDir()
	body := strings.ReplaceAll(identityBody, "%VERSION%", version)
	writeScript(t, dir, encoderName, body)
	writeScript(t, dir, decoderName, body)
	return dir
}

// fakeToolchain probes an identity toolchain reporting version.
func fakeToolchain(t testing.TB, version string) *Toolchain {
	t.Helper()
	tc, err := ProbeToolchain(context.Background(), ProbeOptions{BundleDir: fakeBundle(t, version)})
	require.NoError(t, err)
	return tc
}

// recordedArgs returns the argv (without program) a fake binary last saw.
func recordedArgs(t testing.TB, program string) []string {
	t.Helper()
	data, err := os.ReadFile(program + ".args")
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// noisySine fills shape with one noisy sine per channel, sized to fit T.
// The first dimension is time; every other element is an independent channel.
func noisySine[T Sample](rng *rand.Rand, shape ...int) []T {
	amp, noise, offset := 100.0, 10.0, 0.0
	switch dtypeOf[T]() {
	case Int8:
		amp, noise = 50, 3
	case Uint8:
		amp, noise, offset = 50, 3, 128
	case Uint16:
		offset = 1 << 15
	case Uint32:
		offset = 1 << 31
	}

	samples, channels := shape[0], 1
	for _, dim := range shape[1:] {
		channels *= dim
	}

	out := make([]T, samples*channels)
	for i := 0; i < samples; i++ {
		base := math.Sin(2*math.Pi*100*float64(i)/30000) * amp
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = T(offset + math.Round(base+rng.NormFloat64()*noise))
		}
	}
	return out
}

func mustArray[T Sample](t testing.TB, values []T, shape ...int) *Array {
	t.Helper()
	a, err := NewArray(values, shape...)
	require.NoError(t, err)
	return a
}
