package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------
//
// The readers recover from a number of problems instead of failing: a run
// attribute that is not a number is kept as text, an unparsable mtime is
// left null, a run outside any file object is dropped. Those decisions are
// logged, and when a DiagnosticReport is passed in they are also recorded
// there so a caller can list everything that was tolerated in a document.

// Severity classifies a diagnostic.
type Severity int

const (
	SevInfo    Severity = iota // input ignored as irrelevant
	SevWarning                 // input degraded or dropped, data may be missing
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DiagCategory names the kind of input a diagnostic is about.
type DiagCategory string

const (
	DiagNumber  DiagCategory = "number"  // attribute or element text that should be numeric
	DiagTime    DiagCategory = "time"    // timestamp in no recognized form
	DiagPlace   DiagCategory = "place"   // element where it has no owner
	DiagElement DiagCategory = "element" // element the reader does not know
)

// Diagnostic is a single tolerated problem.
type Diagnostic struct {
	Severity Severity     `json:"severity"`
	Category DiagCategory `json:"category"`
	Line     int          `json:"line"`
	Element  string       `json:"element"`
	Issue    string       `json:"issue"`
	Detail   string       `json:"detail,omitempty"` // offending text or attribute list
}

// DiagnosticReport collects diagnostics. The zero value is ready to use
// and safe for concurrent use.
type DiagnosticReport struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	summary     DiagSummary
}

// DiagSummary counts diagnostics by severity.
type DiagSummary struct {
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Add records d. Calling Add on a nil report does nothing.
func (r *DiagnosticReport) Add(d Diagnostic) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
	switch d.Severity {
	case SevWarning:
		r.summary.Warnings++
	case SevInfo:
		r.summary.Info++
	}
}

// Diagnostics returns the recorded diagnostics ordered by line.
func (r *DiagnosticReport) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	out := slices.Clone(r.diagnostics)
	r.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Diagnostic) int { return a.Line - b.Line })
	return out
}

// Summary returns the counts by severity.
func (r *DiagnosticReport) Summary() DiagSummary {
	if r == nil {
		return DiagSummary{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// HasWarnings reports whether anything was degraded or dropped.
func (r *DiagnosticReport) HasWarnings() bool { return r.Summary().Warnings > 0 }

// HasAnyIssues reports whether anything was recorded.
func (r *DiagnosticReport) HasAnyIssues() bool {
	s := r.Summary()
	return s.Warnings+s.Info > 0
}

// -----------------------------------------------------------------------------
// Output Formatters
// -----------------------------------------------------------------------------

// FormatJSON returns the report as formatted JSON (2-space indentation).
func (r *DiagnosticReport) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(struct {
		Diagnostics []Diagnostic `json:"diagnostics"`
		Summary     DiagSummary  `json:"summary"`
	}{r.Diagnostics(), r.Summary()}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatTextCompact returns one line per diagnostic.
func (r *DiagnosticReport) FormatTextCompact() string {
	var b strings.Builder
	diags := r.Diagnostics()
	for _, d := range diags {
		fmt.Fprintf(&b, "line %d [%s/%s] <%s> %s", d.Line, d.Severity, d.Category, d.Element, d.Issue)
		if d.Detail != "" {
			fmt.Fprintf(&b, ": %s", d.Detail)
		}
		b.WriteByte('\n')
	}
	if len(diags) == 0 {
		b.WriteString("No issues found.\n")
	}
	return b.String()
}
