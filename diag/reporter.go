package diag

import (
	"github.com/cnf/structhash"
	"github.com/npillmayer/rebuild"
)

// Reporter is the single callback through which diagnostics are emitted.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter puts diagnostics into a Bag.
type BagReporter struct{ Bag *Bag }

// Report is part of interface Reporter.
func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter drops all diagnostics.
type NopReporter struct{}

// Report is part of interface Reporter.
func (NopReporter) Report(Diagnostic) {}

// --- Counting --------------------------------------------------------------

// Counter forwards diagnostics and counts errors among them.
type Counter struct {
	Next   Reporter
	Errors int
}

// Report is part of interface Reporter.
func (c *Counter) Report(d Diagnostic) {
	if d.Severity >= SevError {
		c.Errors++
	}
	if c.Next != nil {
		c.Next.Report(d)
	}
}

// --- Deduplication ---------------------------------------------------------

type dedupKey struct {
	Code     string
	Severity uint8
	Span     string
	Message  string
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, severity, primary span and message.
type DedupReporter struct {
	next Reporter
	seen map[string]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[string]struct{}),
	}
}

// Report is part of interface Reporter.
func (r *DedupReporter) Report(d Diagnostic) {
	key, err := structhash.Hash(dedupKey{
		Code:     d.Code.String(),
		Severity: uint8(d.Severity),
		Span:     d.Primary.String(),
		Message:  d.Message,
	}, 1)
	if err == nil {
		if _, ok := r.seen[key]; ok {
			return
		}
		r.seen[key] = struct{}{}
	}
	if r.next != nil {
		r.next.Report(d)
	}
}

// --- Builder ---------------------------------------------------------------

// Builder accumulates diagnostic details before emitting to a Reporter.
type Builder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// ReportError starts an error diagnostic.
func ReportError(r Reporter, code Code, primary rebuild.Span, msg string) *Builder {
	return &Builder{
		reporter: r,
		diag: Diagnostic{
			Severity: SevError,
			Code:     code,
			Message:  msg,
			Primary:  primary,
		},
	}
}

// WithNote appends a note to the diagnostic.
func (b *Builder) WithNote(sp rebuild.Span, msg string) *Builder {
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// Emit sends the diagnostic to the underlying reporter exactly once.
func (b *Builder) Emit() {
	if b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}
