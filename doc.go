/*
Package smdiff implements a binary delta codec: it encodes the difference
between a source byte string and a target byte string as a compact patch,
and reconstructs the target by applying that patch to the source.

# Apply

Source is optional (nil means "no dictionary", i.e. the patch is
self-contained):

	out, err := smdiff.Apply(patchBytes, source, smdiff.DefaultDecodeOptions())

From a stream, with an io.Writer sink:

	err := smdiff.ApplyTo(sink, patchReader, source, smdiff.DefaultDecodeOptions())

# Encode

Options may be nil (default level 5). Level 0-9 trades encode speed for
match quality; secondary compression (zstd/brotli) is opt-in and applies to
the patch's final section. A non-nil EncodeOptions is used as given, so
start from DefaultEncodeOptions to keep the match indexes enabled:

	patch, err := smdiff.Encode(source, target, nil)

	opts := smdiff.DefaultEncodeOptions()
	opts.Level = 9
	patch, err := smdiff.Encode(source, target, opts)

# Merge

Compose two sequentially applicable patches A→B and B→C into one A→C patch:

	merged, err := smdiff.Merge(patchAB, patchBC)
*/
package smdiff
