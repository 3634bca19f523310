package linker

import "testing"

func TestClassifyRelocPerMachine(t *testing.T) {
	cases := []struct {
		mt   MachineType
		rt   uint32
		want relKind
	}{
		{MachineTypeX86_64, R_X86_64_32, relAbsNarrow},
		{MachineTypeX86_64, R_X86_64_64, relAbsWord},
		{MachineTypeX86_64, R_X86_64_PC32, relPCRel},
		{MachineTypeX86_64, R_X86_64_COPY, relOther},
		{MachineTypeRISCV64, R_RISCV_32, relAbsNarrow},
		{MachineTypeRISCV64, R_RISCV_64, relAbsWord},
		{MachineTypeRISCV64, R_RISCV_CALL, relPCRel},
	}
	for _, c := range cases {
		if got := classifyReloc(c.mt, c.rt); got != c.want {
			t.Errorf("classifyReloc(%v, %d) = %v, want %v", c.mt, c.rt, got, c.want)
		}
	}
}

// AssignDynRelRanges must hand out disjoint, correctly-sized ranges
// across every alive InputSection that recorded dynamic relocations
// during scanning, so the parallel apply pass never has two goroutines
// writing the same RelaDynSection slot (spec.md §5).
func TestAssignDynRelRangesAreDisjoint(t *testing.T) {
	ctx := NewContext()
	ctx.RelaDyn = NewRelaDynSection()

	mkSection := func(n int) *InputSection {
		return &InputSection{IsAlive: true, NumDynRelocs: n}
	}

	secA1 := mkSection(3)
	secA2 := mkSection(0) // no dynamic relocations: must be skipped
	secB1 := mkSection(2)

	fileA := &ObjectFile{}
	fileA.IsAlive = true
	fileA.Sections = []*InputSection{secA1, secA2}

	fileB := &ObjectFile{}
	fileB.IsAlive = true
	fileB.Sections = []*InputSection{secB1, nil} // nil member must be skipped

	ctx.Objs = []*ObjectFile{fileA, fileB}

	AssignDynRelRanges(ctx)

	if secA2.DynRelBase != 0 {
		t.Errorf("section with zero NumDynRelocs got a base of %d, want untouched (0)", secA2.DynRelBase)
	}

	ranges := []struct {
		base, n int
	}{
		{secA1.DynRelBase, secA1.NumDynRelocs},
		{secB1.DynRelBase, secB1.NumDynRelocs},
	}

	for i := range ranges {
		for j := range ranges {
			if i == j {
				continue
			}
			a, b := ranges[i], ranges[j]
			if a.base < b.base+b.n && b.base < a.base+a.n {
				t.Fatalf("ranges overlap: [%d,%d) and [%d,%d)", a.base, a.base+a.n, b.base, b.base+b.n)
			}
		}
	}

	total := secA1.NumDynRelocs + secB1.NumDynRelocs
	if got := len(ctx.RelaDyn.entries); got != total {
		t.Errorf("RelaDyn.entries has %d slots, want %d", got, total)
	}
}

// newWritableAllocSection builds a minimal InputSection backed by a real
// ElfSections entry, so Shdr()/IsRelrEligible have something to read.
func newWritableAllocSection(flags uint64) *InputSection {
	file := &ObjectFile{}
	file.ElfSections = []Shdr{{Flags: flags}}
	return &InputSection{File: file, Shndx: 0, IsAlive: true}
}

// ActionCopyrel must be rejected, with a diagnostic naming the cause,
// when the output forbids copy relocations (-z nocopyreloc) or the
// symbol has protected visibility — regardless of -z nocopyreloc in the
// protected-visibility case (testable scenario 6).
func TestApplyScanSideEffectsRejectsCopyrelWhenForbidden(t *testing.T) {
	isec := newWritableAllocSection(SHF_ALLOC)

	t.Run("nocopyreloc", func(t *testing.T) {
		ctx := NewContext()
		ctx.Dynbss = NewDynbssSection()
		ctx.Args.ZCopyreloc = false
		sym := NewSymbol("data")

		applyScanSideEffects(ctx, isec, sym, ActionCopyrel, false, Relocation{})

		if !ctx.Diag.HasErrors() {
			t.Error("expected an error diagnostic when -z nocopyreloc forbids COPYREL")
		}
		if sym.NeedsCopyrel() {
			t.Error("symbol must not gain NeedsCopyrel once COPYREL was rejected")
		}
	})

	t.Run("protected visibility", func(t *testing.T) {
		ctx := NewContext()
		ctx.Dynbss = NewDynbssSection()
		ctx.Args.ZCopyreloc = true // must still be rejected despite this
		sym := NewSymbol("data")
		sym.Visibility = STV_PROTECTED

		applyScanSideEffects(ctx, isec, sym, ActionCopyrel, false, Relocation{})

		if !ctx.Diag.HasErrors() {
			t.Error("expected an error diagnostic for a protected-visibility COPYREL")
		}
		if sym.NeedsCopyrel() {
			t.Error("symbol must not gain NeedsCopyrel once COPYREL was rejected")
		}
	})

	t.Run("allowed", func(t *testing.T) {
		ctx := NewContext()
		ctx.Dynbss = NewDynbssSection()
		ctx.Args.ZCopyreloc = true
		sym := NewSymbol("data")

		applyScanSideEffects(ctx, isec, sym, ActionCopyrel, false, Relocation{})

		if ctx.Diag.HasErrors() {
			t.Error("an ordinary COPYREL must not be rejected")
		}
		if !sym.NeedsCopyrel() {
			t.Error("symbol must gain NeedsCopyrel for an accepted COPYREL")
		}
	})
}

// BASEREL must only increment NumDynRelocs when the relocation is not
// RELR-eligible; an eligible one is compacted into the bitmap stream
// instead and must not reserve a .rela.dyn slot.
func TestApplyScanSideEffectsBaserelRelrGating(t *testing.T) {
	ctx := NewContext()
	ctx.Args.PackDynRelocs = "relr"
	sym := NewSymbol("local")

	isec := newWritableAllocSection(SHF_ALLOC | SHF_WRITE)
	applyScanSideEffects(ctx, isec, sym, ActionBaserel, true, Relocation{Offset: 8})
	if isec.NumDynRelocs != 0 {
		t.Errorf("RELR-eligible BASEREL incremented NumDynRelocs to %d, want 0", isec.NumDynRelocs)
	}

	applyScanSideEffects(ctx, isec, sym, ActionBaserel, true, Relocation{Offset: 4})
	if isec.NumDynRelocs != 1 {
		t.Errorf("misaligned (non-word) BASEREL did not increment NumDynRelocs: got %d, want 1", isec.NumDynRelocs)
	}

	ctx.Args.PackDynRelocs = ""
	applyScanSideEffects(ctx, isec, sym, ActionBaserel, true, Relocation{Offset: 8})
	if isec.NumDynRelocs != 2 {
		t.Errorf("BASEREL without RELR packing requested did not increment NumDynRelocs: got %d, want 2", isec.NumDynRelocs)
	}
}

func TestIsRelrEligible(t *testing.T) {
	ctx := NewContext()
	ctx.Args.PackDynRelocs = "relr"

	writableSec := newWritableAllocSection(SHF_ALLOC | SHF_WRITE)
	if !writableSec.IsRelrEligible(ctx, 16) {
		t.Error("writable, allocated, word-aligned offset should be RELR-eligible")
	}
	if writableSec.IsRelrEligible(ctx, 4) {
		t.Error("a non-word-aligned offset must never be RELR-eligible")
	}

	readOnlySec := newWritableAllocSection(SHF_ALLOC)
	if readOnlySec.IsRelrEligible(ctx, 8) {
		t.Error("a non-writable section must never be RELR-eligible")
	}

	ctx.Args.PackDynRelocs = ""
	if writableSec.IsRelrEligible(ctx, 8) {
		t.Error("RELR eligibility must require PackDynRelocs == \"relr\"")
	}
}
