package smdiff

// SecondaryCompression selects the per-section second-pass codec, encoded
// in the section header's compression_algo field.
type SecondaryCompression uint8

const (
	// CompressionNone disables secondary compression (compression_algo = 0).
	CompressionNone SecondaryCompression = 0
	// CompressionNested treats the section payload as a nested patch-of-patch (compression_algo = 1).
	CompressionNested SecondaryCompression = 1
	// CompressionZstd wraps the section in a zstd stream (compression_algo = 2).
	CompressionZstd SecondaryCompression = 2
	// CompressionBrotli wraps the section in a brotli stream (compression_algo = 3).
	CompressionBrotli SecondaryCompression = 3
)

// NaiveTestMode selects which prefix/suffix pre-match heuristics the encoder tries
// before running the full matching core.
type NaiveTestMode uint8

const (
	// NaiveOff disables the pre-match heuristics entirely.
	NaiveOff NaiveTestMode = iota
	// NaiveAppend tests whether target starts with source.
	NaiveAppend
	// NaivePrepend tests whether target ends with source.
	NaivePrepend
	// NaiveAppendPrepend tries Append then Prepend (default).
	NaiveAppendPrepend
	// NaivePrependAppend tries Prepend then Append.
	NaivePrependAppend
)

// EncodeOptions configures the encoder. A nil *EncodeOptions means DefaultEncodeOptions().
type EncodeOptions struct {
	// Level 0-9 selects l_step and chain_check. The hash window length does
	// not depend on Level; it follows the source length (see hashWindowLenFor).
	Level int
	// MatchSource enables source-index matching (Copy{Dict}).
	MatchSource bool
	// MatchTarget enables target-so-far matching (Copy{Output}).
	MatchTarget bool
	// NaiveTests selects the pre-match prefix/suffix trial.
	NaiveTests NaiveTestMode
	// MaxSourceWindow caps the source slice indexed by the matcher (<=64MiB).
	// The slice always starts at source offset 0 and is not re-centred as the
	// scan advances; source bytes past the cap are never matched.
	MaxSourceWindow int
	// SecondaryCompression selects the second-pass codec. Encode applies it
	// to the patch's final section only; earlier sections use compression_algo 0.
	SecondaryCompression SecondaryCompression
	// SectionFormat selects the payload layout (Interleaved or Segregated).
	SectionFormat Format
	// MaxSectionOutput upper-bounds output_size per section (<=16MiB).
	MaxSectionOutput int
}

// DefaultEncodeOptions returns balanced defaults: level 5, both match indexes on,
// AppendPrepend pre-match heuristic, Interleaved sections, no secondary compression.
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Level:                5,
		MatchSource:          true,
		MatchTarget:          true,
		NaiveTests:           NaiveAppendPrepend,
		MaxSourceWindow:      maxSourceWindowCap,
		SecondaryCompression: CompressionNone,
		SectionFormat:        Interleaved,
		MaxSectionOutput:     maxSectionOutputCap,
	}
}

func (o *EncodeOptions) withDefaults() *EncodeOptions {
	if o == nil {
		return DefaultEncodeOptions()
	}
	out := *o
	if out.MaxSourceWindow <= 0 || out.MaxSourceWindow > maxSourceWindowCap {
		out.MaxSourceWindow = maxSourceWindowCap
	}
	if out.MaxSectionOutput <= 0 || out.MaxSectionOutput > maxSectionOutputCap {
		out.MaxSectionOutput = maxSectionOutputCap
	}
	if out.Level < 0 {
		out.Level = 0
	}
	if out.Level > 9 {
		out.Level = 9
	}
	return &out
}

// DecodeOptions configures Apply/ApplyTo. The zero value is valid.
type DecodeOptions struct {
	// MaxOutputSize limits total decoded output (0 = no limit). Guards against
	// a malicious or corrupt patch claiming an unbounded number of sections.
	MaxOutputSize int64
}

// DefaultDecodeOptions returns options with no output limit.
func DefaultDecodeOptions() *DecodeOptions {
	return &DecodeOptions{}
}

func (o *DecodeOptions) orDefault() *DecodeOptions {
	if o == nil {
		return DefaultDecodeOptions()
	}
	return o
}
