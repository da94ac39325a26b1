package helml

import "fmt"

// lineKind classifies a logical line of a HELML document.
type lineKind int

const (
	lineEOF lineKind = iota

	// Structural lines.
	lineOpen  // Key without a value: starts a nested container.
	lineValue // Key followed by an encoded scalar or a fence opener.

	// Directive lines.
	lineShiftOpen  // ">>" without a value: raises the base level.
	lineShiftClose // "<<" without a value: lowers the base level.
	lineLayer      // "-+", "-++" or "---": layer bookkeeping.
)

// line is a single non-blank, non-comment line split into its parts.
type line struct {
	kind  lineKind
	num   int    // Line number (1-based).
	level int    // Count of leading level separators.
	key   string // Raw key token, "0" when empty.
	value string // Raw value token; empty for lineOpen.
	shift bool   // lineOpen whose value was ">>".
}

// String returns a human-readable representation of the line.
func (l line) String() string {
	switch l.kind {
	case lineEOF:
		return "EOF"
	case lineOpen:
		return fmt.Sprintf("Open(%d, %s)", l.level, l.key)
	case lineValue:
		return fmt.Sprintf("Value(%d, %s, %q)", l.level, l.key, l.value)
	case lineShiftOpen:
		return ">>"
	case lineShiftClose:
		return "<<"
	case lineLayer:
		return fmt.Sprintf("Layer(%s, %q)", l.key, l.value)
	default:
		return fmt.Sprintf("Unknown(%d)", l.kind)
	}
}
