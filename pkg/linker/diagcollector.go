package linker

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// maxUndefRefs caps the number of reference sites printed per undefined
// symbol before collapsing the rest into a "referenced N more times"
// tail, per spec.md §4.6/§7.
const maxUndefRefs = 3

// undefEntry accumulates the reference sites for one undefined symbol
// name. Access is serialized per-entry rather than globally: different
// symbol names can be recorded concurrently from different goroutines
// without contending on one lock, matching spec.md §5's "concurrent hash
// map with per-key accessor locks".
type undefEntry struct {
	mu   sync.Mutex
	refs []string
}

// DiagCollector aggregates undefined-symbol references (and, via Errorf,
// any other non-fatal scan-time diagnostic) so that a single link run
// reports everything wrong with it instead of aborting at the first
// problem. ReportUndefErrors flushes everything gathered and Checkpoint aborts the
// process if anything of error severity was recorded, mirroring
// original_source's ctx.checkpoint() after report_undef_errors().
type DiagCollector struct {
	mu     sync.Mutex
	undef  map[string]*undefEntry
	errors []string // non-undef-symbol diagnostics (ERROR-action relocations, forbidden COPYREL, ...)
	nError int32
}

func NewDiagCollector() *DiagCollector {
	return &DiagCollector{undef: make(map[string]*undefEntry)}
}

// RecordUndefError records one reference site against symName. Safe to
// call concurrently for any mix of symbol names.
func (d *DiagCollector) RecordUndefError(symName, refSite string) {
	d.mu.Lock()
	e, ok := d.undef[symName]
	if !ok {
		e = &undefEntry{}
		d.undef[symName] = e
	}
	d.mu.Unlock()

	e.mu.Lock()
	e.refs = append(e.refs, refSite)
	e.mu.Unlock()
}

// Errorf records a non-fatal scan-time error (e.g. an ERROR-action
// relocation, or a forbidden COPYREL) to be reported at the checkpoint.
func (d *DiagCollector) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.mu.Lock()
	d.errors = append(d.errors, msg)
	d.nError++
	d.mu.Unlock()
}

// Warnf records a warning; warnings never trip the checkpoint.
func (d *DiagCollector) Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mold: warning: "+format+"\n", args...)
}

// ReportUndefErrors prints every undefined-symbol group, sorted by symbol
// name for determinism (per spec.md §5/§9: "internal hash iteration order
// is unstable; the emission layer must sort").
func (d *DiagCollector) ReportUndefErrors(unresolvedSymbols UnresolvedSymbolsPolicy, demangle bool) {
	d.mu.Lock()
	names := make([]string, 0, len(d.undef))
	for name := range d.undef {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, e := range d.errors {
		fmt.Fprintln(os.Stderr, e)
	}
	d.mu.Unlock()

	for _, name := range names {
		e := d.undef[name]
		e.mu.Lock()
		refs := append([]string(nil), e.refs...)
		e.mu.Unlock()

		displayName := name
		if demangle {
			displayName = Demangle(name)
		}

		var msg string
		msg = fmt.Sprintf("undefined symbol: %s\n", displayName)
		n := len(refs)
		if n > maxUndefRefs {
			n = maxUndefRefs
		}
		for _, r := range refs[:n] {
			msg += r
		}
		if len(refs) > maxUndefRefs {
			msg += fmt.Sprintf(">>> referenced %d more times\n", len(refs)-maxUndefRefs)
		}

		switch unresolvedSymbols {
		case UnresolvedError:
			// Printed directly rather than through Errorf: Errorf only
			// buffers into d.errors, and the loop that flushes d.errors
			// already ran above, earlier in this same call — routing
			// through it here would mean the message is never printed.
			fmt.Fprint(os.Stderr, msg)
			d.mu.Lock()
			d.nError++
			d.mu.Unlock()
		case UnresolvedWarn:
			d.Warnf("%s", msg)
		case UnresolvedIgnore:
			// silently dropped
		}
	}
}

// Checkpoint aborts the process if any error-severity diagnostic was
// recorded. Per spec.md §9's open question, has_textrel is considered
// meaningful only past a successful checkpoint; callers should not rely
// on it after a failed one.
func (d *DiagCollector) Checkpoint() {
	d.mu.Lock()
	n := d.nError
	d.mu.Unlock()
	if n > 0 {
		utilsFatalf("%d error(s) generated", n)
	}
}

func utilsFatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mold: fatal: "+format+"\n", args...)
	os.Exit(1)
}

// HasErrors reports whether any error-severity diagnostic has been
// recorded so far, without aborting.
func (d *DiagCollector) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nError > 0
}
