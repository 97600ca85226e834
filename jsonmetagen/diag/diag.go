// Package diag records the outcome of a generation session: which types
// were generated, which failed and why, and which were renamed.
package diag

import (
	"fmt"
	"slices"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Kind classifies diagnostics for filtering.
type Kind string

const (
	KindGenerated           Kind = "generated"
	KindFailed              Kind = "failed"
	KindIdentifierCollision Kind = "identifier-collision"
	KindUnsupportedMember   Kind = "unsupported-member"
	KindDuplicateMember     Kind = "duplicate-member"
)

// Diagnostic is one record of the session log.
type Diagnostic struct {
	Kind     Kind
	Severity Severity

	// Root is the root type being processed when the record was made.
	Root string

	// Type is the type the record is about: the generated or failed type,
	// the renamed type, or the type owning an unsupported member.
	Type string

	// Member and MemberType name the offending member.
	Member     string
	MemberType string

	// Identifier is the identifier assigned to Type.
	Identifier string

	// Other is the type already holding the natural identifier, for
	// collisions, and the earlier member, for duplicate member names.
	Other string

	File string // source file path of Type, if known
	Line int    // 1-based line number (0 = unknown)

	Message string
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(d.File)
		if d.Line > 0 {
			sb.WriteString(fmt.Sprintf(":%d", d.Line))
		}
		sb.WriteString(" - ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")

	if d.Kind != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Kind))
		sb.WriteString("] ")
	}

	sb.WriteString(d.Message)
	return sb.String()
}

// Position is the source location of the type a diagnostic is about.
// The zero value means unknown.
type Position struct {
	File string
	Line int
}

// Collector is the append-only diagnostics log of one session.
// All methods are safe on a nil receiver.
type Collector struct {
	diagnostics []Diagnostic
	strict      bool // if true, warnings become errors
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict bool) *Collector {
	return &Collector{strict: strict}
}

// Generated records that typ was generated under identifier.
func (c *Collector) Generated(pos Position, root, typ, identifier string) {
	c.add(pos, Diagnostic{
		Kind:       KindGenerated,
		Severity:   SeverityInfo,
		Root:       root,
		Type:       typ,
		Identifier: identifier,
		Message:    fmt.Sprintf("generated %s as %s (root %s)", typ, identifier, root),
	})
}

// Failed records that typ could not be generated while processing root.
func (c *Collector) Failed(pos Position, root, typ string) {
	c.add(pos, Diagnostic{
		Kind:     KindFailed,
		Severity: SeverityError,
		Root:     root,
		Type:     typ,
		Message:  fmt.Sprintf("cannot generate %s (root %s)", typ, root),
	})
}

// Collision records that typ received identifier because its natural
// identifier was already held by other.
func (c *Collector) Collision(pos Position, root, typ, identifier, other string) {
	sev := SeverityWarning
	if c != nil && c.strict {
		sev = SeverityError
	}
	c.add(pos, Diagnostic{
		Kind:       KindIdentifierCollision,
		Severity:   sev,
		Root:       root,
		Type:       typ,
		Identifier: identifier,
		Other:      other,
		Message:    fmt.Sprintf("%s renamed to %s: natural identifier is used by %s", typ, identifier, other),
	})
}

// Unsupported records that member of owner has a type with no supported
// shape. pos is the position of owner.
func (c *Collector) Unsupported(pos Position, root, owner, member, memberType, shape string) {
	c.add(pos, Diagnostic{
		Kind:       KindUnsupportedMember,
		Severity:   SeverityError,
		Root:       root,
		Type:       owner,
		Member:     member,
		MemberType: memberType,
		Message:    fmt.Sprintf("member %s.%s has unsupported %s type %s (root %s)", owner, member, shape, memberType, root),
	})
}

// DuplicateMember records that member of owner reuses the JSON name
// already taken by the earlier member first.
func (c *Collector) DuplicateMember(pos Position, root, owner, member, first, wireName string) {
	c.add(pos, Diagnostic{
		Kind:     KindDuplicateMember,
		Severity: SeverityError,
		Root:     root,
		Type:     owner,
		Member:   member,
		Other:    first,
		Message:  fmt.Sprintf("members %s.%s and %s.%s share the JSON name %q (root %s)", owner, first, owner, member, wireName, root),
	})
}

func (c *Collector) add(pos Position, d Diagnostic) {
	if c == nil {
		return
	}
	d.File, d.Line = pos.File, pos.Line
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns a copy of all collected diagnostics in record order.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return slices.Clone(c.diagnostics)
}

// Filter returns the diagnostics of the given kind.
func (c *Collector) Filter(kind Kind) []Diagnostic {
	if c == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics of the given kind.
func (c *Collector) Count(kind Kind) int {
	return len(c.Filter(kind))
}

// HasErrors returns true if any error-level diagnostics exist.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.countSeverity(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.countSeverity(SeverityWarning)
}

func (c *Collector) countSeverity(sev Severity) int {
	if c == nil {
		return 0
	}
	count := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			count++
		}
	}
	return count
}

// FormatAll formats the diagnostics as a multi-line string. Info records
// are only included when verbose is set.
func (c *Collector) FormatAll(verbose bool) string {
	if c == nil || len(c.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range c.diagnostics {
		if d.Severity == SeverityInfo && !verbose {
			continue
		}
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary returns a summary line like "3 generated, 1 error(s), 1 warning(s)".
func (c *Collector) Summary() string {
	if c == nil {
		return ""
	}
	parts := []string{fmt.Sprintf("%d generated", c.Count(KindGenerated))}
	if n := c.ErrorCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", n))
	}
	if n := c.WarningCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", n))
	}
	return strings.Join(parts, ", ")
}
