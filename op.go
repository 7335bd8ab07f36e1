package smdiff

// CopySrc selects which buffer a Copy operation reads from.
type CopySrc uint8

const (
	// CopyDict copies from the source (dictionary) buffer.
	CopyDict CopySrc = iota
	// CopyOutput copies from the output buffer built so far.
	CopyOutput
)

// Run appends byte, repeated len times. 1 <= len <= 62.
type Run struct {
	Byte byte
	Len  uint8
}

// Copy appends len bytes sourced from either the source buffer (Src=CopyDict)
// or the output buffer built so far (Src=CopyOutput). Addr is an absolute
// offset in the chosen buffer. 1 <= len <= 65535.
type Copy struct {
	Src  CopySrc
	Addr uint64
	Len  uint16
}

// Add appends literal bytes. 1 <= len(Bytes) <= 65535.
type Add struct {
	Bytes []byte
}

// OpVariant identifies which variant an Op holds.
type OpVariant uint8

const (
	VariantAdd OpVariant = iota
	VariantRun
	VariantCopy
)

// Op is a tagged union over the three operation shapes: Add, Run and Copy.
// Exactly one of the typed fields is meaningful, selected by Variant.
type Op struct {
	Variant OpVariant
	Add     Add
	Run     Run
	Copy    Copy
}

func OpAdd(bytes []byte) Op  { return Op{Variant: VariantAdd, Add: Add{Bytes: bytes}} }
func OpRun(b byte, n uint8) Op { return Op{Variant: VariantRun, Run: Run{Byte: b, Len: n}} }
func OpCopy(src CopySrc, addr uint64, length uint16) Op {
	return Op{Variant: VariantCopy, Copy: Copy{Src: src, Addr: addr, Len: length}}
}

// IsAdd, IsRun, IsCopy report the op's variant.
func (o Op) IsAdd() bool  { return o.Variant == VariantAdd }
func (o Op) IsRun() bool  { return o.Variant == VariantRun }
func (o Op) IsCopy() bool { return o.Variant == VariantCopy }

// bitFlag returns the opcode kind bits (7..6) for this operation.
func (o Op) bitFlag() OpKind {
	switch o.Variant {
	case VariantRun:
		return opRun
	case VariantCopy:
		if o.Copy.Src == CopyDict {
			return opCopyDict
		}
		return opCopyOutput
	default:
		return opAdd
	}
}

// oal is the output-append-length: the number of bytes this operation
// contributes to the output stream.
func (o Op) oal() uint16 {
	switch o.Variant {
	case VariantAdd:
		return uint16(len(o.Add.Bytes)) //nolint:gosec // bounded by MaxAddOrCopyLen at construction
	case VariantRun:
		return uint16(o.Run.Len)
	case VariantCopy:
		return o.Copy.Len
	default:
		return 0
	}
}

// skip shortens the operation's front by amt bytes: Add.Bytes loses its
// first amt bytes, Run.Len shrinks by amt, and Copy.Addr advances by amt
// while Copy.Len shrinks by amt. Used by the merger to clip an operation
// to an exact output sub-range.
func (o *Op) skip(amt uint32) {
	switch o.Variant {
	case VariantAdd:
		o.Add.Bytes = o.Add.Bytes[amt:]
	case VariantRun:
		o.Run.Len -= uint8(amt) //nolint:gosec // amt bounded by Run.Len by caller
	case VariantCopy:
		o.Copy.Addr += uint64(amt)
		o.Copy.Len -= uint16(amt) //nolint:gosec // amt bounded by Copy.Len by caller
	}
}

// trunc shortens the operation's back by amt bytes.
func (o *Op) trunc(amt uint32) {
	switch o.Variant {
	case VariantAdd:
		o.Add.Bytes = o.Add.Bytes[:len(o.Add.Bytes)-int(amt)]
	case VariantRun:
		o.Run.Len -= uint8(amt) //nolint:gosec // amt bounded by Run.Len by caller
	case VariantCopy:
		o.Copy.Len -= uint16(amt) //nolint:gosec // amt bounded by Copy.Len by caller
	}
}

// srcRange returns the byte range in the op's source buffer this Copy would
// read, or ok=false for non-Copy ops.
func (o Op) srcRange() (lo, hi uint64, ok bool) {
	if o.Variant != VariantCopy {
		return 0, 0, false
	}
	return o.Copy.Addr, o.Copy.Addr + uint64(o.Copy.Len), true
}

// SectionHeader carries the metadata preceding a section's operation list.
type SectionHeader struct {
	// CompressionAlgo is 0..=7; only 0-3 are implemented.
	CompressionAlgo uint8
	Format          Format
	// MoreSections is true for every section but the last in a patch.
	MoreSections bool
	NumOperations uint32
	// NumAddBytes is only meaningful when Format == Segregated.
	NumAddBytes uint32
	// OutputSize is the total bytes this section contributes to the output;
	// must not exceed maxSectionOutputCap.
	OutputSize uint32
}

func (h SectionHeader) isCompressed() bool { return h.CompressionAlgo != 0 }
