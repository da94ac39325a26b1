package helml

import (
	"fmt"
	"strings"
)

// trimSet is the set of bytes stripped from both ends of every line.
const trimSet = " \t\n\r\x00\x0b"

// lexer splits HELML input into classified lines.
type lexer struct {
	lines []string
	pos   int     // Index of the next raw line.
	d     dialect // Control characters in effect.
}

// newLexer creates a lexer over pre-split lines using dialect d.
func newLexer(lines []string, d dialect) *lexer {
	return &lexer{lines: lines, d: d}
}

// newTextLexer normalizes text into lines and detects its dialect.
func newTextLexer(text string) *lexer {
	lines, d := splitText(text)
	return newLexer(lines, d)
}

// next returns the next structural line, skipping blank and comment lines.
func (l *lexer) next() line {
	for l.pos < len(l.lines) {
		raw := strings.Trim(l.lines[l.pos], trimSet)
		l.pos++

		if raw == "" || raw[0] == '#' || strings.HasPrefix(raw, "//") {
			continue
		}
		return l.classify(raw, l.pos)
	}
	return line{kind: lineEOF, num: l.pos}
}

// classify splits a trimmed line into level, key and value.
func (l *lexer) classify(raw string, num int) line {
	level := 0
	for level < len(raw) && raw[level] == l.d.lvl {
		level++
	}
	raw = raw[level:]

	key, value, hasValue := strings.Cut(raw, string(l.d.lvl))
	if key == "" {
		key = "0"
	}
	ln := line{num: num, level: level, key: key, value: value}

	switch {
	case key == layerNextKey || key == layerInitKey || key == layerNoteKey:
		ln.kind = lineLayer
		ln.value = strings.Trim(value, trimSet)
	case value == "" && key == shiftOpenKey:
		ln.kind = lineShiftOpen
	case value == "" && key == shiftCloseKey:
		ln.kind = lineShiftClose
	case !hasValue || value == "":
		ln.kind = lineOpen
	case value == shiftOpenKey:
		ln.kind = lineOpen
		ln.value = ""
		ln.shift = true
	default:
		ln.kind = lineValue
	}
	return ln
}

// isFence reports whether a value token opens a fenced block, and returns
// the closing line it waits for.
func isFence(value string) (string, bool) {
	switch value {
	case "`":
		return "`", true
	case "<":
		return ">", true
	}
	return "", false
}

// readFence collects raw lines up to a line equal to closer after trimming.
// The lines keep their inner whitespace. If closer never appears, ok is
// false and the position is left unchanged so the body is parsed as
// regular lines.
func (l *lexer) readFence(closer string) (body string, ok bool) {
	var parts []string
	for i := l.pos; i < len(l.lines); i++ {
		ln := strings.Trim(l.lines[i], "\r\n\x00")
		if strings.TrimSpace(ln) == closer {
			l.pos = i + 1
			return strings.Join(parts, "\n"), true
		}
		parts = append(parts, ln)
	}
	return "", false
}

// errorf formats an error for line num. The format may use %w.
func (l *lexer) errorf(num int, format string, args ...any) error {
	return fmt.Errorf("line %d: "+format, append([]any{num}, args...)...)
}
