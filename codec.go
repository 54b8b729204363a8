package wavpack

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Codec compresses arrays with wavpack and restores them with wvunpack,
// piping raw PCM through the external binaries.
//
// A Codec is safe for concurrent use.
type Codec struct {
	config Config
	pool   *Pool
	logger zerolog.Logger

	// pinned is set by NewWithToolchain; otherwise the process-wide
	// toolchain for config.UseSystemWavpack is used.
	pinned *Toolchain
	mu     sync.RWMutex
}

// New creates a Codec for cfg. The toolchain is probed on first use.
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Codec{config: cfg.clone()}
	c.logger = newLogger(log.Logger, cfg.Debug)
	return c, nil
}

// NewWithToolchain creates a Codec bound to an already resolved toolchain.
func NewWithToolchain(cfg Config, tc *Toolchain) (*Codec, error) {
	if tc == nil {
		return nil, fmt.Errorf("%w: nil toolchain", ErrConfiguration)
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.pinned = tc
	return c, nil
}

// WithPool bounds this codec's invocations by p
func (c *Codec) WithPool(p *Pool) *Codec {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = p
	return c
}

// WithLogger replaces the codec logger. Config.Debug still lowers its level
// to debug.
func (c *Codec) WithLogger(l zerolog.Logger) *Codec {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = newLogger(l, c.config.Debug)
	return c
}

// Config returns a copy of the codec configuration.
func (c *Codec) Config() Config {
	return c.config.clone()
}

// MarshalJSON encodes the persisted configuration mapping.
func (c *Codec) MarshalJSON() ([]byte, error) {
	return MarshalConfig(c.config)
}

// Toolchain returns the toolchain used by the codec, probing it if needed.
func (c *Codec) Toolchain() (*Toolchain, error) {
	if c.pinned != nil {
		return c.pinned, nil
	}
	return DefaultToolchain(c.config.UseSystemWavpack)
}

// EncodeArgs returns the encoder argv this codec would run for a.
func (c *Codec) EncodeArgs(a *Array) ([]string, error) {
	tc, err := c.Toolchain()
	if err != nil {
		return nil, err
	}
	buf, err := c.layout(a, tc)
	if err != nil {
		return nil, err
	}
	return EncodeArgs(c.config, buf.Samples, buf.Channels, tc), nil
}

// Encode compresses a and returns the wavpack stream as produced by the
// encoder. The shape is not stored; callers pass it back to DecodeShape.
func (c *Codec) Encode(ctx context.Context, a *Array) ([]byte, error) {
	tc, err := c.Toolchain()
	if err != nil {
		return nil, err
	}

	buf, err := c.layout(a, tc)
	if err != nil {
		return nil, err
	}

	argv := EncodeArgs(c.config, buf.Samples, buf.Channels, tc)
	res, err := c.exec(ctx, argv, buf.Data)
	if err != nil {
		return nil, fmt.Errorf("wavpack encode failed: %w", err)
	}

	return res.Stdout, nil
}

// Decode restores a wavpack stream as elements of the configured dtype.
//
// With out == nil the result is a new 1-D array. Otherwise out must have
// the configured dtype and exactly the decoded size; the samples are
// copied into out.Data and out is returned with its shape unchanged.
func (c *Codec) Decode(ctx context.Context, data []byte, out *Array) (*Array, error) {
	tc, err := c.Toolchain()
	if err != nil {
		return nil, err
	}

	res, err := c.exec(ctx, DecodeArgs(c.config, tc), data)
	if err != nil {
		return nil, fmt.Errorf("wavpack decode failed: %w", err)
	}

	dec, err := Unflatten(res.Stdout, c.config.DType)
	if err != nil {
		return nil, err
	}

	if out == nil {
		return dec, nil
	}

	if out.DType != c.config.DType {
		return nil, fmt.Errorf("%w: destination is %s, codec decodes %s", ErrLayout, out.DType, c.config.DType)
	}
	if len(out.Data) != len(dec.Data) {
		return nil, fmt.Errorf("%w: destination holds %d bytes, decoded %d", ErrUsage, len(out.Data), len(dec.Data))
	}
	copy(out.Data, dec.Data)

	return out, nil
}

// DecodeShape decodes data and reshapes it to shape.
func (c *Codec) DecodeShape(ctx context.Context, data []byte, shape ...int) (*Array, error) {
	dec, err := c.Decode(ctx, data, nil)
	if err != nil {
		return nil, err
	}
	return dec.Reshape(shape...)
}

// layout checks a against the configured dtype and flattens it for tc.
func (c *Codec) layout(a *Array, tc *Toolchain) (*SampleBuffer, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrLayout)
	}
	if a.DType != c.config.DType {
		return nil, fmt.Errorf("%w: array is %s, codec is configured for %s", ErrLayout, a.DType, c.config.DType)
	}
	return Flatten(a, tc.MaxChannels)
}

func (c *Codec) exec(ctx context.Context, argv []string, input []byte) (*Result, error) {
	c.mu.RLock()
	pool, logger := c.pool, c.logger
	c.mu.RUnlock()

	var res *Result
	err := pool.do(ctx, func() error {
		var err error
		res, err = run(ctx, logger, argv, input)
		return err
	})
	return res, err
}

func newLogger(base zerolog.Logger, debug bool) zerolog.Logger {
	l := base.With().Str("codec", CodecID).Logger()
	if debug {
		l = l.Level(zerolog.DebugLevel)
	}
	return l
}
