package linker

import "sync/atomic"

// UnresolvedSymbolsPolicy controls how undefined-symbol diagnostics are
// reported (spec.md §7).
type UnresolvedSymbolsPolicy int

const (
	UnresolvedError UnresolvedSymbolsPolicy = iota
	UnresolvedWarn
	UnresolvedIgnore
)

// TextrelPolicy controls how a dynamic relocation landing in a
// non-writable section is handled (spec.md §4.3's "text-relocation check").
type TextrelPolicy int

const (
	TextrelWarn TextrelPolicy = iota
	TextrelError
	TextrelAllow
)

// ContextArgs holds the configuration surface consumed from the external
// Context aggregate per spec.md §6: output flavor flags, copy-relocation
// and text-relocation policy, demangling, and the unresolved-symbol
// severity.
type ContextArgs struct {
	Output string

	Shared bool
	Pie    bool

	ZText       TextrelPolicy
	WarnTextrel bool // only consulted when ZText == TextrelWarn
	ZCopyreloc  bool

	UnresolvedSymbols UnresolvedSymbolsPolicy
	Demangle          bool

	// PackDynRelocs selects base-relocation compaction; "relr" makes
	// RELR-eligible BASEREL relocations skip the .rela.dyn stream
	// entirely (spec.md §4.3/§4.4).
	PackDynRelocs string

	LibraryPaths []string
}

// Context is the aggregate every engine component is handed (spec.md
// §6). It owns configuration, the global symbol table, the per-link
// string pool backing decompressed section buffers, the undefined-error
// collector, and the process-wide text-relocation flag.
type Context struct {
	Args    ContextArgs
	Machine MachineType
	Buf     []byte

	Ehdr    *OutputEhdr
	Shdr    *OutputShdr
	Phdr    *OutputPhdr
	Got     *GotSection
	Plt     *PltSection
	RelaDyn *RelaDynSection
	Dynbss  *DynbssSection

	TpAddr uint64

	OutputSections []*OutputSection
	Chunks         []Chunker

	Objs       []*ObjectFile
	SharedObjs []*SharedFile
	SymbolMap  map[string]*Symbol

	MergedSections []*MergedSection

	// StringPool owns the decompressed backing buffers produced by
	// SectionContent.Uncompress; it shares the Context's lifetime (spec.md
	// §3's Lifecycles).
	StringPool [][]byte

	Diag *DiagCollector

	// HasTextrel is set (monotonically, atomically) whenever a relocation
	// patches a read-only, non-RELR location. Per spec.md §9's open
	// question, this is meaningful only following a successful
	// Diag.Checkpoint().
	HasTextrel atomic.Bool
}

func NewContext() *Context {
	return &Context{
		Args: ContextArgs{
			Output:     "a.out",
			ZCopyreloc: true,
		},
		Machine:   MachineTypeNone,
		SymbolMap: make(map[string]*Symbol),
		Diag:      NewDiagCollector(),
	}
}

// AddToStringPool takes ownership of buf for the lifetime of the
// Context, per spec.md §3/§4.1 ("decompressed backing buffers are owned
// by a per-context string pool").
func (ctx *Context) AddToStringPool(buf []byte) {
	ctx.StringPool = append(ctx.StringPool, buf)
}
