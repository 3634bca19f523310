package linker

import "testing"

func newTestContext(shared, pie bool) *Context {
	ctx := NewContext()
	ctx.Args.Shared = shared
	ctx.Args.Pie = pie
	return ctx
}

func TestGetOutputFlavor(t *testing.T) {
	cases := []struct {
		shared, pie bool
		want        OutputFlavor
	}{
		{true, false, FlavorShared},
		{true, true, FlavorShared}, // Shared wins regardless of Pie.
		{false, true, FlavorPie},
		{false, false, FlavorExec},
	}

	for _, c := range cases {
		ctx := newTestContext(c.shared, c.pie)
		if got := getOutputFlavor(ctx); got != c.want {
			t.Errorf("getOutputFlavor(shared=%v,pie=%v) = %v, want %v", c.shared, c.pie, got, c.want)
		}
	}
}

// A local (non-imported, non-absolute) symbol never needs a dynamic
// relocation or PLT entry in a non-PIE executable: every table's
// (exec, local) cell must be NONE.
func TestActionTablesLocalSymbolInExecIsNone(t *testing.T) {
	ctx := newTestContext(false, false)
	sym := NewSymbol("local_sym")
	sym.File = &ObjectFile{}
	sym.SymIdx = 0
	sym.File.ElfSyms = []Sym{{Info: STT_NOTYPE}}
	sym.SetInputSection(&InputSection{})

	for name, tbl := range map[string]actionTable{
		"narrowAbs": tableNarrowAbs,
		"wordAbs":   tableWordAbs,
		"pcRel":     tablePCRel,
	} {
		if got := GetRelAction(ctx, tbl, sym); got != ActionNone {
			t.Errorf("%s[exec][local] = %v, want NONE", name, got)
		}
	}
}

// An imported function referenced via a narrow absolute relocation in a
// shared object has no safe disposition: the runtime loader can't patch
// a narrow field from a dynamic relocation, so this must be ERROR.
func TestNarrowAbsImportedFuncInSharedIsError(t *testing.T) {
	ctx := newTestContext(true, false)
	sym := NewSymbol("imported_func")
	sym.IsImported = true
	sym.File = &ObjectFile{}
	sym.SymIdx = 0
	sym.File.ElfSyms = []Sym{{Info: STT_FUNC}}

	if got := ScanAbsRelAction(ctx, sym); got != ActionError {
		t.Errorf("ScanAbsRelAction(shared, imported func) = %v, want ERROR", got)
	}
}

// An imported function referenced via a PC-relative relocation always
// gets a PLT stub, in every output flavor: (shared|pie|exec, importedFunc)
// must all be PLT or CPLT, never ERROR/NONE.
func TestPCRelImportedFuncAlwaysGetsPltStub(t *testing.T) {
	sym := NewSymbol("imported_func")
	sym.IsImported = true
	sym.File = &ObjectFile{}
	sym.SymIdx = 0
	sym.File.ElfSyms = []Sym{{Info: STT_FUNC}}

	for _, flavor := range []struct {
		shared, pie bool
	}{{true, false}, {false, true}, {false, false}} {
		ctx := newTestContext(flavor.shared, flavor.pie)
		got := ScanPCRelAction(ctx, sym)
		if got != ActionPlt && got != ActionCplt {
			t.Errorf("ScanPCRelAction(shared=%v,pie=%v, imported func) = %v, want PLT or CPLT",
				flavor.shared, flavor.pie, got)
		}
	}
}

// The PPC64 .toc exception never needs COPYREL/CPLT: every cell in
// tablePPC64TocWordAbs must resolve to NONE, BASEREL, or DYNREL.
func TestPPC64TocTableNeverNeedsCopyrelOrCplt(t *testing.T) {
	for _, row := range tablePPC64TocWordAbs {
		for _, a := range row {
			if a == ActionCopyrel || a == ActionCplt {
				t.Errorf("tablePPC64TocWordAbs contains %v, .toc must never need COPYREL/CPLT", a)
			}
		}
	}
}

func TestScanAbsDynRelActionUsesPPC64TocException(t *testing.T) {
	ctx := newTestContext(false, false)
	ctx.Machine = MachineTypePPC64
	sym := NewSymbol("imported_data")
	sym.IsImported = true
	sym.File = &ObjectFile{}
	sym.SymIdx = 0
	sym.File.ElfSyms = []Sym{{Info: STT_OBJECT}}

	tocName := ".toc\x00"
	tocFile := &ObjectFile{}
	tocFile.ShStrtab = []byte(tocName)
	tocFile.ElfSections = []Shdr{{Name: 0}}
	isec := &InputSection{File: tocFile, Shndx: 0}

	got := ScanAbsDynRelAction(ctx, sym, isec)
	want := tablePPC64TocWordAbs[FlavorExec][symImportedData]
	if got != want {
		t.Errorf("ScanAbsDynRelAction(.toc) = %v, want %v (the exception table's cell)", got, want)
	}
}
