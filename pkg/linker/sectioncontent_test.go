package linker

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/rod-salazar/mold/pkg/utils"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib.Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib.Close: %v", err)
	}
	return buf.Bytes()
}

func TestUncompressSectionContentsPassesThroughUncompressed(t *testing.T) {
	ctx := NewContext()
	shdr := &Shdr{}
	raw := []byte{1, 2, 3, 4, 5}

	got := UncompressSectionContents(ctx, shdr, raw)
	if !bytes.Equal(got, raw) {
		t.Errorf("uncompressed section content was altered: got %v, want %v", got, raw)
	}
}

func TestUncompressSectionContentsChdrZlibRoundtrips(t *testing.T) {
	ctx := NewContext()
	want := []byte("the quick brown fox jumps over the lazy dog")
	compressed := zlibCompress(t, want)

	chdr := Chdr{Type: ELFCOMPRESS_ZLIB, Size: uint64(len(want))}
	raw := make([]byte, ChdrSize+len(compressed))
	utils.Write[Chdr](raw, chdr)
	copy(raw[ChdrSize:], compressed)

	shdr := &Shdr{Flags: SHF_COMPRESSED}
	got := UncompressSectionContents(ctx, shdr, raw)
	if !bytes.Equal(got, want) {
		t.Errorf("decompressed content mismatch: got %q, want %q", got, want)
	}
}

func TestUncompressSectionContentsLegacyZdebugRoundtrips(t *testing.T) {
	ctx := NewContext()
	want := []byte("legacy zdebug payload")
	compressed := zlibCompress(t, want)

	raw := append([]byte("ZLIB"), make([]byte, 8)...)
	size := uint64(len(want))
	for i := 7; i >= 0; i-- {
		raw[4+i] = byte(size)
		size >>= 8
	}
	raw = append(raw, compressed...)

	shdr := &Shdr{}
	got := UncompressSectionContents(ctx, shdr, raw)
	if !bytes.Equal(got, want) {
		t.Errorf("decompressed .zdebug content mismatch: got %q, want %q", got, want)
	}
}
