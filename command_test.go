package wavpack

import (
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	legacyToolchain = &Toolchain{
		Encoder:     "/opt/wavpack/wavpack",
		Decoder:     "/opt/wavpack/wvunpack",
		Version:     semver.MustParse("5.4.0"),
		MaxChannels: LegacyMaxChannels,
		RawPCMFlag:  RawPCMFlag,
	}
	currentToolchain = &Toolchain{
		Encoder:     "/usr/bin/wavpack",
		Decoder:     "/usr/bin/wvunpack",
		System:      true,
		Version:     semver.MustParse("5.6.0"),
		MaxChannels: MaxChannels,
		RawPCMFlag:  RawPCMExFlag,
	}
)

func TestEncodeArgs(t *testing.T) {
	tests := []struct {
		name     string
		config   func(*Config)
		samples  int
		channels int
		tc       *Toolchain
		want     []string
	}{
		{
			name:     "defaults",
			samples:  3000,
			channels: 10,
			tc:       currentToolchain,
			want:     []string{"/usr/bin/wavpack", "-y", "--raw-pcm-ex=48000,16,10", "-q", "-", "-o", "-"},
		},
		{
			name:     "legacy flag",
			samples:  3000,
			channels: 10,
			tc:       legacyToolchain,
			want:     []string{"/opt/wavpack/wavpack", "-y", "--raw-pcm=48000,16,10", "-q", "-", "-o", "-"},
		},
		{
			name:     "very high mode",
			config:   func(c *Config) { c.CompressionMode = ModeVeryHigh },
			samples:  10,
			channels: 1,
			tc:       legacyToolchain,
			want:     []string{"/opt/wavpack/wavpack", "-y", "-hh", "--raw-pcm=48000,16,1", "-q", "-", "-o", "-"},
		},
		{
			name: "everything",
			config: func(c *Config) {
				c.CompressionMode = ModeFast
				c.HybridFactor = Hybrid(3.5)
				c.CC = true
				c.PairUnassigned = true
				c.SetBlockSize = true
				c.SampleRate = 30000
				c.DType = Float32
			},
			samples:  200000,
			channels: 2,
			tc:       currentToolchain,
			want: []string{
				"/usr/bin/wavpack", "-y", "-f", "-b3.5", "-cc", "--pair-unassigned-chans",
				"--blocksize=131072", "--raw-pcm-ex=30000,32f,2", "-q", "-", "-o", "-",
			},
		},
		{
			name: "cc ignored when lossless",
			config: func(c *Config) {
				c.CC = true
				c.DType = Int32
			},
			samples:  5,
			channels: 1,
			tc:       legacyToolchain,
			want:     []string{"/opt/wavpack/wavpack", "-y", "--raw-pcm=48000,32,1", "-q", "-", "-o", "-"},
		},
		{
			name: "integer hybrid factor and short block",
			config: func(c *Config) {
				c.HybridFactor = Hybrid(5)
				c.SetBlockSize = true
				c.DType = Uint8
			},
			samples:  1000,
			channels: 4,
			tc:       legacyToolchain,
			want: []string{
				"/opt/wavpack/wavpack", "-y", "-b5", "--blocksize=1000",
				"--raw-pcm=48000,8,4", "-q", "-", "-o", "-",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.config != nil {
				tt.config(&cfg)
			}
			require.NoError(t, cfg.Validate())

			got := EncodeArgs(cfg, tt.samples, tt.channels, tt.tc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CompressionMode = ModeHigh
	cfg.HybridFactor = Hybrid(4)
	cfg.DType = Float32

	// Decoding carries no format descriptor whatever the encode settings.
	got := DecodeArgs(cfg, currentToolchain)
	assert.Equal(t, []string{"/usr/bin/wvunpack", "-y", "-q", "--raw", "-", "-o", "-"}, got)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		version      string
		wantChannels int
		wantFlag     string
	}{
		{"5.4.9", LegacyMaxChannels, RawPCMFlag},
		{"5.0.0", LegacyMaxChannels, RawPCMFlag},
		{"4.80.0", LegacyMaxChannels, RawPCMFlag},
		{"5.5.0", MaxChannels, RawPCMExFlag},
		{"5.6.0", MaxChannels, RawPCMExFlag},
		{"6.0.0", MaxChannels, RawPCMExFlag},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			channels, flag := TierFor(semver.MustParse(tt.version))
			assert.Equal(t, tt.wantChannels, channels)
			assert.Equal(t, tt.wantFlag, flag)
		})
	}
}

// The ceiling decides between pass-through and flattened layouts; the
// channel count ends up in the raw PCM descriptor.
func TestEncodeArgs_ChannelCeiling(t *testing.T) {
	for _, tc := range []*Toolchain{legacyToolchain, currentToolchain} {
		codec, err := NewWithToolchain(DefaultConfig(), tc)
		require.NoError(t, err)

		ceiling := tc.MaxChannels
		const samples = 3

		at := mustArray(t, make([]int16, samples*ceiling), samples, ceiling)
		args, err := codec.EncodeArgs(at)
		require.NoError(t, err)
		assert.Contains(t, args, rawPCMArg(tc, 48000, "16", ceiling))

		over := mustArray(t, make([]int16, samples*(ceiling+1)), samples, ceiling+1)
		args, err = codec.EncodeArgs(over)
		require.NoError(t, err)
		assert.Contains(t, args, rawPCMArg(tc, 48000, "16", 1))
	}
}

func rawPCMArg(tc *Toolchain, rate int, bits string, channels int) string {
	return fmt.Sprintf("%s=%d,%s,%d", tc.RawPCMFlag, rate, bits, channels)
}
