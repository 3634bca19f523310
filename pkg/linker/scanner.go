package linker

// relKind classifies a relocation type into the Action-table shape it
// indexes, per architecture (spec.md §4.2's three tables).
type relKind int

const (
	relOther relKind = iota
	relAbsNarrow
	relAbsWord
	relPCRel
)

func classifyReloc(mt MachineType, relType uint32) relKind {
	switch mt {
	case MachineTypeX86_64:
		switch relType {
		case R_X86_64_32, R_X86_64_32S:
			return relAbsNarrow
		case R_X86_64_64, R_X86_64_PC64:
			return relAbsWord
		case R_X86_64_PC32, R_X86_64_PLT32:
			return relPCRel
		}
	case MachineTypeRISCV64:
		switch relType {
		case R_RISCV_32:
			return relAbsNarrow
		case R_RISCV_64:
			return relAbsWord
		case R_RISCV_CALL, R_RISCV_CALL_PLT:
			return relPCRel
		}
	}
	return relOther
}

// ScanRelocations is the engine's scan pass (spec.md §4.3): for every
// alive, allocated InputSection, classify each relocation, look up its
// Action, and apply that Action's monotonic side effects (GOT/PLT/
// Dynbss reservations, dynamic-relocation slot counts, undefined-symbol
// and textrel diagnostics). Two-pass by design: this pass only ever
// grows shared state (flags, reservation counts); ApplyRelocations
// consumes what's left once every section has scanned.
func ScanRelocations(ctx *Context) {
	for _, file := range ctx.Objs {
		for _, isec := range file.Sections {
			if isec == nil || !isec.IsAlive || isec.Shdr().Flags&SHF_ALLOC == 0 {
				continue
			}
			scanSection(ctx, isec)
		}
	}
	AssignDynRelRanges(ctx)
}

func scanSection(ctx *Context, isec *InputSection) {
	rels := isec.GetRelocations()
	isec.Actions = make([]Action, len(rels))
	writable := isec.Shdr().Flags&SHF_WRITE != 0

	for idx, rel := range rels {
		if rel.Type == R_RISCV_NONE || rel.Type == R_RISCV_RELAX {
			continue
		}

		sym := isec.File.Symbols[rel.Sym]
		if sym.File == nil && sym.DefiningDso == nil {
			if !isec.File.ElfSyms[rel.Sym].IsWeak() {
				ctx.Diag.RecordUndefError(sym.Name, ">>> referenced by "+isec.File.SourceName()+"\n")
			}
			continue
		}

		kind := classifyReloc(ctx.Machine, rel.Type)
		var action Action
		switch kind {
		case relAbsNarrow:
			action = ScanAbsRelAction(ctx, sym)
		case relAbsWord:
			action = ScanAbsDynRelAction(ctx, sym, isec)
		case relPCRel:
			action = ScanPCRelAction(ctx, sym)
		default:
			continue
		}

		isec.Actions[idx] = action
		applyScanSideEffects(ctx, isec, sym, action, writable, rel)
	}
}

func applyScanSideEffects(ctx *Context, isec *InputSection, sym *Symbol, action Action, writable bool, rel Relocation) {
	switch action {
	case ActionNone:
	case ActionError:
		ctx.Diag.Errorf("relocation against symbol %q cannot be represented in this output flavor", sym.Name)
	case ActionCopyrel:
		if !ctx.Args.ZCopyreloc {
			ctx.Diag.Errorf("relocation against symbol %q requires a copy relocation, but -z nocopyreloc was requested", sym.Name)
			return
		}
		if sym.Visibility == STV_PROTECTED {
			ctx.Diag.Errorf("relocation against symbol %q requires a copy relocation, but it has protected visibility", sym.Name)
			return
		}
		sym.AddFlags(NeedsCopyrel)
		ctx.Dynbss.Reserve(sym)
	case ActionPlt:
		sym.AddFlags(NeedsPlt)
		ctx.Got.AddGotSymbol(sym)
		ctx.Plt.AddSymbol(sym)
	case ActionCplt:
		sym.AddFlags(NeedsCplt)
		ctx.Got.AddGotSymbol(sym)
		ctx.Plt.AddSymbol(sym)
	case ActionDynrel:
		isec.NumDynRelocs++
		checkTextrel(ctx, writable)
	case ActionBaserel:
		checkTextrel(ctx, writable)
		if !isec.IsRelrEligible(ctx, rel.Offset) {
			isec.NumDynRelocs++
		}
	}
}

// checkTextrel flags (and, per policy, diagnoses) a dynamic relocation
// landing in a non-writable section: the runtime loader must then patch
// read-only, possibly shared pages at load time, defeating
// copy-on-write sharing across processes (spec.md §4.3, §9 open
// question).
func checkTextrel(ctx *Context, writable bool) {
	if writable {
		return
	}
	ctx.HasTextrel.Store(true)

	switch ctx.Args.ZText {
	case TextrelError:
		ctx.Diag.Errorf("relocation against read-only section requires a text relocation")
	case TextrelWarn:
		if ctx.Args.WarnTextrel {
			ctx.Diag.Warnf("relocation against read-only section requires a text relocation")
		}
	case TextrelAllow:
	}
}

// AssignDynRelRanges walks every alive InputSection in a fixed, single
// goroutine and hands each one a disjoint slice of ctx.RelaDyn's entry
// buffer sized to what ScanRelocations counted, so ApplyRelocations can
// fan out across sections with zero shared mutable state per entry
// (spec.md §5).
func AssignDynRelRanges(ctx *Context) {
	for _, file := range ctx.Objs {
		for _, isec := range file.Sections {
			if isec == nil || !isec.IsAlive || isec.NumDynRelocs == 0 {
				continue
			}
			isec.DynRelBase = ctx.RelaDyn.Reserve(isec.NumDynRelocs)
		}
	}
}
