// Package sections reads selected top-level sections of a HELML file
// without decoding the rest of it.
//
// The result is a line sequence in the multi-line dialect that can be passed
// straight to helml.Decode.
package sections

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Options controls how sections are selected.
type Options struct {
	// OnlyFirst takes each requested section once and stops reading when
	// all of them have been found.
	OnlyFirst bool

	// Comments surrounds every section with "# [name] BEGIN" and
	// "# [name] END" lines, and lists the sections that were not found
	// when OnlyFirst is set.
	Comments bool

	// Prefix, when set, skips every line that does not start with it and
	// strips it from the lines that do.
	Prefix string
}

// maxLine bounds a single input line.
const maxLine = 16 << 20

// ParseNames splits a comma-separated list of section names. A trailing
// ':' on a name is dropped and empty names are skipped.
func ParseNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSuffix(strings.TrimSpace(name), ":")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// LoadFile opens path and calls Load on it.
func LoadFile(path string, names []string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := Load(f, names, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Load returns the lines of the named sections found in r. With no names
// every non-blank, non-comment line is returned.
//
// A section starts at a line that begins with one of the names followed by
// ':' or the end of the line, and runs until the next line whose level is
// not deeper than the starting line. Names may carry leading ':' to select
// nested keys. Multi-line literals are copied through as a whole.
func Load(r io.Reader, names []string, opts Options) ([]string, error) {
	l := &loader{
		sc:   bufio.NewScanner(r),
		opts: opts,
		all:  len(names) == 0,
	}
	l.sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for _, name := range ParseNames(strings.Join(names, ",")) {
		if !l.wanted(name) {
			l.pending = append(l.pending, name)
		}
	}
	if !l.all && len(l.pending) == 0 {
		return nil, nil
	}

	if err := l.run(); err != nil {
		return nil, err
	}

	if opts.OnlyFirst && opts.Comments && len(l.pending) > 0 {
		l.out = append(l.out, "# These requested sections were not found:")
		for _, name := range l.pending {
			l.out = append(l.out, " # "+name)
		}
	}
	return l.out, nil
}

// loader holds the state of a single Load call.
type loader struct {
	sc   *bufio.Scanner
	opts Options
	all  bool

	pending []string // Names still searched for.
	out     []string

	current string // Name of the open section, "" outside sections.
	level   int    // Level of the open section's first line.
}

func (l *loader) wanted(name string) bool {
	for _, p := range l.pending {
		if p == name {
			return true
		}
	}
	return false
}

// readLine returns the next line with the prefix filter applied. ok is false
// at the end of input.
func (l *loader) readLine() (string, bool) {
	for l.sc.Scan() {
		line := strings.TrimSpace(l.sc.Text())
		if l.opts.Prefix == "" {
			return line, true
		}
		if rest, found := strings.CutPrefix(line, l.opts.Prefix); found {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func (l *loader) run() error {
	for {
		line, ok := l.readLine()
		if !ok {
			break
		}
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "//") {
			continue
		}
		block := l.fence(line)

		if l.all {
			l.out = append(l.out, block...)
			continue
		}

		if l.current != "" && level(line) <= l.level {
			l.close()
		}
		if l.current != "" {
			l.out = append(l.out, block...)
			continue
		}

		if len(l.pending) == 0 {
			break
		}
		if l.open(line) {
			l.out = append(l.out, block...)
		}
	}
	if l.current != "" {
		l.close()
	}
	return l.sc.Err()
}

// fence returns line together with the body and closer of the backtick
// literal it opens, if any.
func (l *loader) fence(line string) []string {
	block := []string{line}
	if !strings.HasSuffix(line, ":`") {
		return block
	}
	lvl := level(line)
	if strings.IndexByte(line[lvl:], ':') != len(line)-lvl-2 {
		return block
	}

	for l.sc.Scan() {
		raw := strings.Trim(l.sc.Text(), "\r\n\x00")
		if l.opts.Prefix != "" {
			if rest, found := strings.CutPrefix(raw, l.opts.Prefix); found {
				raw = strings.TrimSpace(rest)
			}
		}
		block = append(block, raw)
		if strings.TrimSpace(raw) == "`" {
			break
		}
	}
	return block
}

// open starts a section if line begins one of the pending names.
func (l *loader) open(line string) bool {
	for i, name := range l.pending {
		rest, found := strings.CutPrefix(line, name)
		if !found || (rest != "" && rest[0] != ':') {
			continue
		}

		l.current = name
		l.level = level(line)
		if l.opts.Comments {
			l.out = append(l.out, "# ["+name+"] BEGIN")
		}
		if l.opts.OnlyFirst {
			l.pending = append(l.pending[:i:i], l.pending[i+1:]...)
		}
		return true
	}
	return false
}

func (l *loader) close() {
	if l.opts.Comments {
		l.out = append(l.out, "# ["+l.current+"] END", "")
	}
	l.current = ""
}

// level counts the leading ':' of line.
func level(line string) int {
	n := 0
	for n < len(line) && line[n] == ':' {
		n++
	}
	return n
}
