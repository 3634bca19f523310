package linker

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/rod-salazar/mold/pkg/utils"
)

// zdebugMagic is the legacy (pre-SHF_COMPRESSED) ".zdebug" section
// header: the literal bytes "ZLIB" followed by an 8-byte big-endian
// uncompressed size, used by toolchains that compressed debug sections
// before the generic ABI grew Chdr.
var zdebugMagic = []byte("ZLIB")

// UncompressSectionContents returns shdr's section data with any
// compression applied by the producing compiler removed, and leaves
// the backing buffer for the lifetime of ctx rather than isec (spec.md
// §4.1's "decompressed backing buffers are owned by a per-context
// string pool"). A section with no compression is returned unchanged,
// so this call is always safe even for the common, uncompressed case.
func UncompressSectionContents(ctx *Context, shdr *Shdr, raw []byte) []byte {
	if shdr.Flags&SHF_COMPRESSED != 0 {
		return uncompressChdr(ctx, raw)
	}
	if bytes.HasPrefix(raw, zdebugMagic) {
		return uncompressZdebug(ctx, raw)
	}
	return raw
}

func uncompressChdr(ctx *Context, raw []byte) []byte {
	utils.Assert(len(raw) >= ChdrSize)
	chdr := utils.Read[Chdr](raw)
	compressed := raw[ChdrSize:]
	out := make([]byte, chdr.Size)

	switch chdr.Type {
	case ELFCOMPRESS_ZLIB:
		r, err := zlib.NewReader(bytes.NewReader(compressed))
		utils.MustNo(err)
		_, err = io.ReadFull(r, out)
		utils.MustNo(err)
	case ELFCOMPRESS_ZSTD:
		uncompressZstd(compressed, out)
	default:
		utils.Fatal("unsupported compression type")
	}

	ctx.AddToStringPool(out)
	return out
}

// uncompressZdebug handles the legacy ".zdebug" convention: "ZLIB"
// magic, an 8-byte big-endian uncompressed size, then a raw zlib
// stream — no Chdr involved.
func uncompressZdebug(ctx *Context, raw []byte) []byte {
	utils.Assert(len(raw) >= 12)
	size := uint64(0)
	for _, b := range raw[4:12] {
		size = size<<8 | uint64(b)
	}

	out := make([]byte, size)
	r, err := zlib.NewReader(bytes.NewReader(raw[12:]))
	utils.MustNo(err)
	_, err = io.ReadFull(r, out)
	utils.MustNo(err)

	ctx.AddToStringPool(out)
	return out
}

func uncompressZstd(compressed []byte, out []byte) {
	dec, err := zstd.NewReader(nil)
	utils.MustNo(err)
	defer dec.Close()

	decoded, err := dec.DecodeAll(compressed, out[:0])
	utils.MustNo(err)
	utils.Assert(len(decoded) == len(out))
}
