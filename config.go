package wavpack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CodecID identifies this codec in persisted configurations.
const CodecID = "wavpack"

// MinHybridFactor is the lowest average bits per sample wavpack accepts
// in hybrid mode.
const MinHybridFactor = 2.25

// CompressionMode selects the wavpack speed/ratio trade-off.
type CompressionMode string

const (
	ModeDefault  CompressionMode = "default"
	ModeFast     CompressionMode = "f"
	ModeHigh     CompressionMode = "h"
	ModeVeryHigh CompressionMode = "hh"
)

// Config holds the codec parameters. A Codec copies it on construction and
// never changes it afterwards.
type Config struct {
	// CompressionMode maps to -f, -h or -hh. ModeDefault emits no flag.
	CompressionMode CompressionMode `json:"compression_mode" yaml:"compression_mode"`

	// HybridFactor enables lossy hybrid mode at the given average bits
	// per sample (-b). Nil means lossless.
	HybridFactor *float64 `json:"hybrid_factor" yaml:"hybrid_factor"`

	// CC asks wavpack to optimise the hybrid stream for quality (-cc).
	// Only used together with HybridFactor.
	CC bool `json:"cc" yaml:"cc"`

	// PairUnassigned pairs channels that have no speaker assignment
	// (--pair-unassigned-chans).
	PairUnassigned bool `json:"pair_unassigned" yaml:"pair_unassigned"`

	// SetBlockSize passes --blocksize=min(samples, 131072).
	SetBlockSize bool `json:"set_block_size" yaml:"set_block_size"`

	// SampleRate is written into the raw PCM descriptor. It does not
	// affect the samples themselves.
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`

	// DType is the element type of every array the codec handles.
	DType DType `json:"dtype" yaml:"dtype"`

	// UseSystemWavpack requires wavpack/wvunpack from PATH instead of
	// the bundled binaries.
	UseSystemWavpack bool `json:"use_system_wavpack" yaml:"use_system_wavpack"`

	// Debug enables debug-level logging of every invocation.
	Debug bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a lossless int16 configuration at 48 kHz.
func DefaultConfig() Config {
	return Config{
		CompressionMode: ModeDefault,
		SampleRate:      48000,
		DType:           Int16,
	}
}

// Hybrid returns a pointer to factor, for use as Config.HybridFactor.
func Hybrid(factor float64) *float64 {
	return &factor
}

// Validate checks c and returns an error wrapping ErrConfiguration.
func (c Config) Validate() error {
	if err := c.DType.Validate(); err != nil {
		return err
	}

	switch c.CompressionMode {
	case ModeDefault, ModeFast, ModeHigh, ModeVeryHigh:
	default:
		return fmt.Errorf("%w: unknown compression mode %q", ErrConfiguration, string(c.CompressionMode))
	}

	if c.HybridFactor != nil && *c.HybridFactor < MinHybridFactor {
		return fmt.Errorf("%w: hybrid factor %g is below %g", ErrConfiguration, *c.HybridFactor, MinHybridFactor)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrConfiguration, c.SampleRate)
	}

	return nil
}

// clone returns a copy of c that shares no pointers with it.
func (c Config) clone() Config {
	if c.HybridFactor != nil {
		c.HybridFactor = Hybrid(*c.HybridFactor)
	}
	return c
}

// persistedConfig is the storage form of Config, tagged with the codec id.
type persistedConfig struct {
	ID string `json:"id" yaml:"id"`
	Config `yaml:",inline"`
}

// MarshalConfig encodes c as the JSON mapping stored next to compressed
// chunks.
func MarshalConfig(c Config) ([]byte, error) {
	return json.Marshal(persistedConfig{ID: CodecID, Config: c})
}

// ConfigFromJSON decodes a persisted mapping. Missing keys keep their
// DefaultConfig values and unknown keys are ignored.
func ConfigFromJSON(data []byte) (Config, error) {
	p := persistedConfig{ID: CodecID, Config: DefaultConfig()}
	if err := json.Unmarshal(data, &p); err != nil {
		return Config{}, fmt.Errorf("%w: invalid config: %v", ErrConfiguration, err)
	}
	return p.check()
}

// LoadConfigFile reads a YAML config file using the persisted key names.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	p := persistedConfig{ID: CodecID, Config: DefaultConfig()}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config file: %v", ErrConfiguration, err)
	}
	return p.check()
}

// SaveConfigFile writes c to path as YAML, creating parent directories.
func SaveConfigFile(c Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(persistedConfig{ID: CodecID, Config: c})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (p persistedConfig) check() (Config, error) {
	if p.ID != CodecID {
		return Config{}, fmt.Errorf("%w: codec id %q is not %q", ErrConfiguration, p.ID, CodecID)
	}
	if err := p.Config.Validate(); err != nil {
		return Config{}, err
	}
	return p.Config, nil
}
