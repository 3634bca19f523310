package linker

import (
	"sync"
	"testing"
)

// AddFlags must behave as a monotonic OR: concurrent callers racing to
// set different bits must never lose a bit, and once set a bit must
// never clear (spec.md §5/§8 invariant 2).
func TestSymbolAddFlagsIsMonotonicUnderConcurrency(t *testing.T) {
	sym := NewSymbol("s")

	var wg sync.WaitGroup
	bits := []uint32{NeedsGot, NeedsGotTp, NeedsPlt, NeedsCplt, NeedsCopyrel}
	for _, b := range bits {
		wg.Add(1)
		go func(b uint32) {
			defer wg.Done()
			sym.AddFlags(b)
		}(b)
	}
	wg.Wait()

	want := uint32(0)
	for _, b := range bits {
		want |= b
	}
	if got := sym.Flags(); got != want {
		t.Fatalf("Flags() = %#x, want %#x (all bits set)", got, want)
	}

	// A later call requesting only one bit must not clear the others.
	sym.AddFlags(NeedsGot)
	if got := sym.Flags(); got != want {
		t.Fatalf("Flags() after redundant AddFlags = %#x, want unchanged %#x", got, want)
	}
}

func TestSymbolGetAddrPrefersCanonicalPlt(t *testing.T) {
	ctx := NewContext()
	ctx.Plt = NewPltSection()
	ctx.Plt.Shdr.Addr = 0x1000
	ctx.Plt.Syms = append(ctx.Plt.Syms, nil, nil)

	sym := NewSymbol("f")
	sym.AddFlags(NeedsCplt)
	sym.PltIdx = 1

	want := ctx.Plt.EntryAddr(1)
	if got := sym.GetAddr(ctx); got != want {
		t.Errorf("GetAddr() = %#x, want canonical PLT entry address %#x", got, want)
	}
}

// A non-canonical PLT entry (Action=PLT, e.g. a PC-relative call to an
// imported function from shared/PIE code) must also resolve through the
// PLT stub, not the imported symbol's raw (typically zero) value —
// otherwise a patched S+A-P lands nowhere (testable scenario 5).
func TestSymbolGetAddrUsesPltForNonCanonicalPlt(t *testing.T) {
	ctx := NewContext()
	ctx.Plt = NewPltSection()
	ctx.Plt.Shdr.Addr = 0x2000
	ctx.Plt.Syms = append(ctx.Plt.Syms, nil)

	sym := NewSymbol("imported_func")
	sym.AddFlags(NeedsPlt)
	sym.PltIdx = 0

	want := ctx.Plt.EntryAddr(0)
	if got := sym.GetAddr(ctx); got != want {
		t.Errorf("GetAddr() = %#x, want PLT entry address %#x", got, want)
	}
}

func TestSymbolGetAddrUsesDynbssForCopyrel(t *testing.T) {
	ctx := NewContext()
	ctx.Dynbss = NewDynbssSection()
	ctx.Dynbss.Shdr.Addr = 0x4000

	sym := NewSymbol("data")
	sym.AddFlags(NeedsCopyrel)
	sym.DynbssOffset = 32

	want := uint64(0x4000 + 32)
	if got := sym.GetAddr(ctx); got != want {
		t.Errorf("GetAddr() = %#x, want dynbss reservation address %#x", got, want)
	}
}

func TestDynbssReserveIsIdempotentPerSymbol(t *testing.T) {
	d := NewDynbssSection()

	sym := NewSymbol("data")
	sym.DsoSymSize = 24

	d.Reserve(sym)
	firstOffset := sym.DynbssOffset
	firstSize := d.Shdr.Size

	d.Reserve(sym) // second call must be a no-op
	if sym.DynbssOffset != firstOffset || d.Shdr.Size != firstSize {
		t.Fatalf("second Reserve mutated state: offset %d->%d, size %d->%d",
			firstOffset, sym.DynbssOffset, firstSize, d.Shdr.Size)
	}
}
