// Package wavpack provides a Go codec for numeric arrays backed by the
// WavPack command-line toolchain (wavpack and wvunpack).
//
// Arrays are laid out as interleaved raw PCM and piped through the external
// binaries over stdin/stdout, avoiding temporary files. The compressed bytes
// are WavPack's own container, returned verbatim, which makes the codec a
// drop-in compressor for chunked array stores.
//
// # Basic Usage
//
//	codec, err := wavpack.New(wavpack.DefaultConfig()) // lossless int16
//
//	arr, _ := wavpack.NewArray(samples, 30000, 64) // []int16, 30000x64
//	enc, err := codec.Encode(ctx, arr)
//
//	// The shape is not stored in the stream; pass it back on decode
//	dec, err := codec.DecodeShape(ctx, enc, 30000, 64)
//	values, _ := wavpack.Values[int16](dec)
//
// # Layout
//
// 1-D arrays are encoded as one channel. 2-D arrays of shape
// (samples, channels) keep their channels while the toolchain can address
// them: 256 channels before wavpack 5.5.0, 1024 from 5.5.0 on. Wider and
// higher-rank arrays are flattened into a single channel.
//
// # Supported Types
//
// int8, int16, int32, uint8, uint16, uint32 and float32. Hybrid (lossy)
// mode is enabled by setting Config.HybridFactor; every other setting is
// lossless.
//
// # Toolchain
//
// By default the bundled binaries in $WAVPACK_BUNDLE_DIR (or lib/<GOOS>
// next to the executable) are used, falling back to PATH. Set
// Config.UseSystemWavpack to require the binaries from PATH:
//   - macOS: brew install wavpack
//   - Ubuntu/Debian: apt-get install wavpack
//
// Verify installation:
//
//	err := wavpack.CheckWavpackInstalled("")
//
// # Persisted Configuration
//
// MarshalConfig and ConfigFromJSON round-trip the settings stored next to
// compressed chunks, keyed id, compression_mode, hybrid_factor, cc,
// pair_unassigned, set_block_size, sample_rate, dtype and
// use_system_wavpack. Two codecs built from the same configuration run
// identical command lines.
package wavpack
