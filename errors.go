package smdiff

import "errors"

// Sentinel errors for decoding, encoding and merging.
var (
	// ErrUnexpectedEOF is returned when the patch stream ends inside an operation or header.
	ErrUnexpectedEOF = errors.New("smdiff: unexpected end of patch")
	// ErrDataFormat is returned for size-accounting mismatches, an invalid Run size
	// class, or any other structurally invalid section.
	ErrDataFormat = errors.New("smdiff: invalid patch data")
	// ErrUnsupportedCompression is returned for a compression_algo this build cannot decode.
	ErrUnsupportedCompression = errors.New("smdiff: unsupported secondary compression algorithm")
	// ErrMissingSource is returned when a Copy{Dict} operation is seen but no source was provided.
	ErrMissingSource = errors.New("smdiff: copy from source but no source provided")
	// ErrSecondaryCodec is returned when the zstd/brotli stage itself fails.
	ErrSecondaryCodec = errors.New("smdiff: secondary codec failure")

	// ErrInternal names an internal invariant violation. No function in this
	// package returns it; the encoder's match selection keeps Copy{Output}
	// within written output by construction.
	ErrInternal = errors.New("smdiff: internal invariant violation")
)
