package smdiff

import (
	"bufio"
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Apply reconstructs the target from patch given an optional source
// (dictionary) buffer. source may be nil if the patch contains no
// Copy{Dict} operations.
func Apply(patch, source []byte, opts *DecodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := ApplyTo(&buf, bytes.NewReader(patch), source, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyTo streams a patch's sections from r and writes the reconstructed
// target to w. Copy{Output} needs random access to everything written so
// far, so reconstruction happens into an internal buffer that is flushed to
// w once the section stream is exhausted.
func ApplyTo(w io.Writer, r io.Reader, source []byte, opts *DecodeOptions) error {
	opts = opts.orDefault()
	br := bufio.NewReader(r)
	out, err := decodeSections(br, source, opts.MaxOutputSize)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// decodeSections consumes a self-terminating run of sections (the top-level
// patch, or a nested sub-patch embedded by a compression_algo=1 section) and
// returns the bytes they produce.
func decodeSections(r *bufio.Reader, source []byte, maxOutputSize int64) ([]byte, error) {
	var out []byte
	for {
		header, err := readSectionHeader(r)
		if err != nil {
			return nil, err
		}
		out, err = decodeSectionInto(out, r, header, source, maxOutputSize)
		if err != nil {
			return nil, err
		}
		if maxOutputSize > 0 && int64(len(out)) > maxOutputSize {
			return nil, ErrDataFormat
		}
		if !header.MoreSections {
			return out, nil
		}
	}
}

// decodeSectionInto appends one section's contribution to out, dispatching
// on the section's secondary-compression algorithm.
//
// Nested sections (algo=1) are self-delimiting: they are themselves a
// complete section stream, terminated by a MoreSections=false header, so
// decodeSections recurses cleanly regardless of position in the outer
// stream. zstd/brotli sections are not self-delimiting against a shared
// reader once more patch bytes follow, so Encode only ever applies them to
// a patch's final section; a zstd/brotli section with MoreSections=true is
// rejected.
func decodeSectionInto(out []byte, r *bufio.Reader, header SectionHeader, source []byte, maxOutputSize int64) ([]byte, error) {
	switch header.CompressionAlgo {
	case 0:
		ops, err := readOps(r, header)
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			out, err = applyOp(out, op, source)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case 1:
		nested, err := decodeSections(r, source, maxOutputSize)
		if err != nil {
			return nil, err
		}
		if uint32(len(nested)) != header.OutputSize { //nolint:gosec // bounded by maxSectionOutputCap
			return nil, ErrDataFormat
		}
		return append(out, nested...), nil

	case 2, 3:
		if header.MoreSections {
			return nil, ErrDataFormat
		}
		payload, err := decompressSecondary(header.CompressionAlgo, r, int(header.OutputSize))
		if err != nil {
			return nil, err
		}
		return append(out, payload...), nil

	default:
		return nil, ErrUnsupportedCompression
	}
}

func decompressSecondary(algo uint8, r io.Reader, outputSize int) ([]byte, error) {
	var zr io.Reader
	switch algo {
	case 2:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, ErrSecondaryCodec
		}
		defer dec.Close()
		zr = dec
	case 3:
		zr = brotli.NewReader(r)
	default:
		return nil, ErrUnsupportedCompression
	}
	payload := make([]byte, outputSize)
	if _, err := io.ReadFull(zr, payload); err != nil {
		return nil, ErrSecondaryCodec
	}
	return payload, nil
}

// applyOp appends op's contribution to out, resolving Copy operations
// against source (Copy{Dict}) or out itself (Copy{Output}).
func applyOp(out []byte, op Op, source []byte) ([]byte, error) {
	switch op.Variant {
	case VariantAdd:
		return append(out, op.Add.Bytes...), nil

	case VariantRun:
		start := len(out)
		out = append(out, make([]byte, op.Run.Len)...)
		for i := start; i < len(out); i++ {
			out[i] = op.Run.Byte
		}
		return out, nil

	case VariantCopy:
		addr, length := op.Copy.Addr, uint64(op.Copy.Len)
		switch op.Copy.Src {
		case CopyDict:
			if source == nil {
				return nil, ErrMissingSource
			}
			if addr+length > uint64(len(source)) {
				return nil, ErrDataFormat
			}
			return append(out, source[addr:addr+length]...), nil
		case CopyOutput:
			// Non-overlapping forward reference: the copied range must lie
			// entirely within output already written by a prior operation.
			if addr+length > uint64(len(out)) {
				return nil, ErrDataFormat
			}
			return append(out, out[addr:addr+length]...), nil
		}
	}
	return nil, ErrDataFormat
}
