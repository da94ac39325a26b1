package vc85

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Delimiter selects the framing written around encoded data.
type Delimiter int

const (
	NoDelimiter Delimiter = iota
	Angle                 // <~ ... ~>
	Brace                 // {~ ... ~}
)

func (d Delimiter) pair() (string, string) {
	switch d {
	case Angle:
		return "<~", "~>"
	case Brace:
		return "{~", "~}"
	default:
		return "", ""
	}
}

// An Encoding is an immutable vc85 encoder configuration.
type Encoding struct {
	alphabet  Alphabet
	width     int
	delimiter Delimiter
}

// StdEncoding writes VWX symbols in <~ ~> delimiters wrapped at DefaultWidth.
var StdEncoding = NewEncoding(DefaultAlphabet).WithWidth(DefaultWidth).WithDelimiter(Angle)

// NewEncoding returns an unwrapped, undelimited Encoding for the alphabet a.
// An unknown alphabet selects DefaultAlphabet.
func NewEncoding(a Alphabet) *Encoding {
	if !a.valid() {
		a = DefaultAlphabet
	}
	return &Encoding{alphabet: a}
}

// WithWidth returns a copy of enc that hard-wraps output every width
// symbols. Zero or a negative width disables wrapping.
func (enc Encoding) WithWidth(width int) *Encoding {
	if width < 0 {
		width = 0
	}
	enc.width = width
	return &enc
}

// WithDelimiter returns a copy of enc that frames output with d.
func (enc Encoding) WithDelimiter(d Delimiter) *Encoding {
	enc.delimiter = d
	return &enc
}

// Alphabet returns the symbol table used by enc.
func (enc *Encoding) Alphabet() Alphabet { return enc.alphabet }

// Encode is shorthand for NewEncoding(a).WithWidth(width).WithDelimiter(d).EncodeToString(src).
func Encode(src []byte, a Alphabet, width int, d Delimiter) string {
	return NewEncoding(a).WithWidth(width).WithDelimiter(d).EncodeToString(src)
}

// EncodeToString returns the vc85 encoding of src.
//
// Input is taken in 4-byte big-endian groups, the last one zero padded.
// Each group becomes five symbols, except that a complete all-zero group is
// written as 'z' and a complete group of four spaces as 'y'. The padded tail
// is cut to len+1 symbols.
func (enc *Encoding) EncodeToString(src []byte) string {
	t := symbols(enc.alphabet)
	open, closing := enc.delimiter.pair()

	syms := make([]string, 0, (len(src)+3)/4*5+4)
	for _, c := range open {
		syms = append(syms, string(c))
	}

	var chunk [4]byte
	for len(src) > 0 {
		n := copy(chunk[:], src)
		for i := n; i < 4; i++ {
			chunk[i] = 0
		}
		src = src[n:]
		v := binary.BigEndian.Uint32(chunk[:])

		if n == 4 && v == 0 {
			syms = append(syms, string(zeroSymbol))
			continue
		}
		if n == 4 && v == spaceGroup {
			syms = append(syms, string(spaceSymbol))
			continue
		}

		var group [5]string
		for i := 4; i >= 0; i-- {
			group[i] = t[v%85]
			v /= 85
		}
		syms = append(syms, group[:n+1]...)
	}

	for _, c := range closing {
		syms = append(syms, string(c))
	}

	if enc.width <= 0 {
		return strings.Join(syms, "")
	}
	return strings.Join(wrap(syms, enc.width), "\n")
}

// wrap groups symbols into lines of at most width symbols. A line holding
// only a lone opening or closing delimiter symbol is glued onto its
// neighbour so a delimiter pair is never split across lines.
func wrap(syms []string, width int) []string {
	var lines []string
	for len(syms) > 0 {
		n := min(width, len(syms))
		lines = append(lines, strings.Join(syms[:n], ""))
		syms = syms[n:]
	}

	if c := len(lines); c > 1 {
		if last := lines[c-1]; last == ">" || last == "}" {
			lines[c-2] += last
			lines = lines[:c-1]
		}
	}
	if len(lines) > 1 {
		if first := lines[0]; first == "<" || first == "{" {
			lines[1] = first + lines[1]
			lines = lines[1:]
		}
	}
	return lines
}

func (d Delimiter) String() string {
	switch d {
	case Angle:
		return "angle"
	case Brace:
		return "brace"
	default:
		return "none"
	}
}

// ParseDelimiter maps "angle", "brace" and "none" (or "") to a Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoDelimiter, nil
	case "angle":
		return Angle, nil
	case "brace":
		return Brace, nil
	}
	return NoDelimiter, fmt.Errorf("vc85: unknown delimiter %q", s)
}
