package helml

import (
	"fmt"
	"strings"
)

// Mode selects the output dialect.
type Mode int

const (
	// MultiLine writes one entry per line with ':' levels and ' ' markers.
	MultiLine Mode = iota
	// URL writes a single line joined by '~' using '.' levels and '='
	// markers, restricted to URL-safe printable ASCII.
	URL
	// OneLine writes the MultiLine grammar on a single '~'-joined line.
	OneLine
)

func (m Mode) String() string {
	switch m {
	case MultiLine:
		return "multi"
	case URL:
		return "url"
	case OneLine:
		return "one"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the names printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multi", "multiline", "multi-line":
		return MultiLine, nil
	case "url":
		return URL, nil
	case "one", "oneline", "one-line":
		return OneLine, nil
	default:
		return 0, fmt.Errorf("helml: unknown mode %q", s)
	}
}

// dialect is the pair of control characters in effect for a document.
type dialect struct {
	lvl byte // level separator
	spc byte // space marker
}

var (
	lineDialect = dialect{lvl: ':', spc: ' '}
	urlDialect  = dialect{lvl: '.', spc: '='}
)

func (m Mode) dialect() dialect {
	if m == URL {
		return urlDialect
	}
	return lineDialect
}

func (m Mode) joiner() string {
	if m == MultiLine {
		return "\n"
	}
	return "~"
}

func (d dialect) token() string {
	return "~#" + string(d.lvl) + string(d.spc) + "~"
}

// finish joins encoded lines for mode m, filtering cosmetic lines in the
// single-line modes and adding the prefix and dialect postfix.
func (c *Codec) finish(lines []string, m Mode) string {
	d := m.dialect()
	var out []string
	if c.cfg.AddPrefix {
		out = append(out, "~")
	}

	needPostfix := c.cfg.AddPostfix
	if m == MultiLine {
		out = append(out, lines...)
		needPostfix = needPostfix || d != lineDialect
	} else {
		needPostfix = needPostfix || d != urlDialect
		if !c.cfg.AddPrefix {
			out = append(out, "")
		}
		for _, line := range lines {
			st := strings.TrimSpace(line)
			if st == "" || st[0] == '#' {
				continue
			}
			out = append(out, strings.ReplaceAll(st, "\n", "~"))
		}
		if m == URL && !needPostfix {
			out = append(out, "")
		}
	}

	if needPostfix {
		out = append(out, d.token())
	}
	return strings.Join(out, m.joiner())
}

// detectDialect finds a "~#<lvl><spc>~" declaration in text. A declaration
// at offset zero is a prefix and stays in place, where it reads as a
// comment line. Otherwise the last one is a postfix and everything from it
// on is dropped. Without a declaration, single-line text ending in '~' is
// URL text.
func detectDialect(text string) (string, dialect) {
	if d, ok := dialectAt(text, 0); ok {
		return text, d
	}
	if p := strings.LastIndex(text, "~#"); p > 0 {
		if d, ok := dialectAt(text, p); ok {
			return text[:p], d
		}
	}
	if strings.HasSuffix(text, "~") && !strings.ContainsAny(text, "\n\r") {
		return text, urlDialect
	}
	return text, lineDialect
}

// dialectAt parses a dialect token starting at offset p.
func dialectAt(text string, p int) (dialect, bool) {
	if p+4 >= len(text) || text[p] != '~' || text[p+1] != '#' || text[p+4] != '~' {
		return dialect{}, false
	}
	return dialect{lvl: text[p+2], spc: text[p+3]}, true
}

// splitText turns a document into lines. '~' always separates lines; the
// line divider is '\n' if present, else '\r'.
func splitText(text string) ([]string, dialect) {
	text, d := detectDialect(text)
	text = strings.ReplaceAll(text, "~", "\n")

	div := "\n"
	if !strings.Contains(text, "\n") && strings.Contains(text, "\r") {
		div = "\r"
	}
	return strings.Split(text, div), d
}
