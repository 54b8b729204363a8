package wavpack

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

const (
	encoderName = "wavpack"
	decoderName = "wvunpack"

	// RawPCMFlag is the raw PCM descriptor understood by every wavpack 5.x.
	RawPCMFlag = "--raw-pcm"
	// RawPCMExFlag is the descriptor introduced with wavpack 5.5.0.
	RawPCMExFlag = "--raw-pcm-ex"

	// LegacyMaxChannels is the channel ceiling before wavpack 5.5.0.
	LegacyMaxChannels = 256
	// MaxChannels is the channel ceiling from wavpack 5.5.0 on.
	MaxChannels = 1024

	// BundleDirEnv overrides where the bundled binaries are looked up.
	BundleDirEnv = "WAVPACK_BUNDLE_DIR"
)

var extendedSince = semver.MustParse("5.5.0")

// Toolchain is a resolved wavpack/wvunpack pair and the calling
// convention its version supports.
type Toolchain struct {
	Encoder     string
	Decoder     string
	System      bool // resolved from PATH rather than the bundle directory
	Version     *semver.Version
	MaxChannels int
	RawPCMFlag  string
}

// ProbeOptions controls where ProbeToolchain looks for binaries.
type ProbeOptions struct {
	// UseSystem requires the toolchain from PATH.
	UseSystem bool

	// BundleDir holds the bundled binaries. Empty means BundledDir().
	BundleDir string
}

// TierFor returns the channel ceiling and raw PCM flag for a toolchain version.
func TierFor(v *semver.Version) (maxChannels int, rawPCMFlag string) {
	if v.LessThan(extendedSince) {
		return LegacyMaxChannels, RawPCMFlag
	}
	return MaxChannels, RawPCMExFlag
}

// BundledDir returns the directory holding the bundled binaries:
// $WAVPACK_BUNDLE_DIR, or lib/<GOOS> next to the running executable.
func BundledDir() string {
	if dir := os.Getenv(BundleDirEnv); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("lib", runtime.GOOS)
	}
	return filepath.Join(filepath.Dir(exe), "lib", runtime.GOOS)
}

// ProbeToolchain resolves the binaries following opts and queries the
// encoder version. Unlike DefaultToolchain it does not cache.
func ProbeToolchain(ctx context.Context, opts ProbeOptions) (*Toolchain, error) {
	bundleDir := opts.BundleDir
	if bundleDir == "" {
		bundleDir = BundledDir()
	}

	enc, dec, sysOK := systemBinaries()
	tc := &Toolchain{}

	switch {
	case opts.UseSystem && !sysOK:
		return nil, fmt.Errorf("%w: system wavpack requested but %s/%s not found in PATH",
			ErrConfiguration, encoderName, decoderName)
	case opts.UseSystem:
		tc.Encoder, tc.Decoder, tc.System = enc, dec, true
	default:
		if benc, bdec, ok := bundledBinaries(bundleDir); ok {
			tc.Encoder, tc.Decoder = benc, bdec
		} else if sysOK {
			tc.Encoder, tc.Decoder, tc.System = enc, dec, true
		} else {
			return nil, fmt.Errorf("%w: no bundled wavpack in %s and none in PATH", ErrConfiguration, bundleDir)
		}
	}

	v, err := QueryVersion(ctx, tc.Encoder)
	if err != nil {
		return nil, err
	}
	tc.Version = v
	tc.MaxChannels, tc.RawPCMFlag = TierFor(v)

	return tc, nil
}

// QueryVersion runs `<encoder> --version` and parses the version token of
// the first line, e.g. "wavpack 5.6.0".
func QueryVersion(ctx context.Context, encoder string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, encoder, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s --version: %v", ErrProbe, encoder, err)
	}
	return parseVersionOutput(out)
}

func parseVersionOutput(out []byte) (*semver.Version, error) {
	_, line, _ := bufio.ScanLines(out, true)
	first := strings.TrimSpace(string(line))

	rest, ok := strings.CutPrefix(first, encoderName)
	fields := strings.Fields(rest)
	if !ok || len(fields) == 0 {
		return nil, fmt.Errorf("%w: unexpected version output %q", ErrProbe, first)
	}

	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse version %q: %v", ErrProbe, fields[0], err)
	}
	return v, nil
}

// toolchainCache holds one probe result per preference.
type toolchainCache struct {
	system  func() (*Toolchain, error)
	bundled func() (*Toolchain, error)
}

func newToolchainCache(probe func(useSystem bool) (*Toolchain, error)) *toolchainCache {
	return &toolchainCache{
		system:  sync.OnceValues(func() (*Toolchain, error) { return probe(true) }),
		bundled: sync.OnceValues(func() (*Toolchain, error) { return probe(false) }),
	}
}

func (c *toolchainCache) get(useSystem bool) (*Toolchain, error) {
	if useSystem {
		return c.system()
	}
	return c.bundled()
}

var defaultToolchains = newToolchainCache(probeDefault)

// DefaultToolchain returns the process-wide toolchain for the given
// preference. The probe runs at most once per preference; later calls,
// including concurrent first calls, share its result or error.
func DefaultToolchain(useSystem bool) (*Toolchain, error) {
	return defaultToolchains.get(useSystem)
}

func probeDefault(useSystem bool) (*Toolchain, error) {
	return ProbeToolchain(context.Background(), ProbeOptions{UseSystem: useSystem})
}

// CheckWavpackInstalled verifies that a wavpack encoder is executable.
// An empty path checks PATH.
func CheckWavpackInstalled(path string) error {
	if path == "" {
		path = encoderName
	}

	var stdout bytes.Buffer
	cmd := exec.Command(path, "--version")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wavpack not found or not executable: %w", err)
	}
	if _, err := parseVersionOutput(stdout.Bytes()); err != nil {
		return err
	}

	return nil
}

func systemBinaries() (enc, dec string, ok bool) {
	enc, encErr := exec.LookPath(encoderName)
	dec, decErr := exec.LookPath(decoderName)
	return enc, dec, encErr == nil && decErr == nil
}

func bundledBinaries(dir string) (enc, dec string, ok bool) {
	ext := ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
	}
	enc = filepath.Join(dir, encoderName+ext)
	dec = filepath.Join(dir, decoderName+ext)
	return enc, dec, isFile(enc) && isFile(dec)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
