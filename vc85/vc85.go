// Package vc85 implements the vc85 family of base-85 encodings used by HELML
// to embed binary strings as text.
//
// Four alphabets are available. ASCII85 is the classic btoa/PostScript table.
// VWX is ASCII85 with the quote, apostrophe and backslash symbols moved to
// 'v', 'w' and 'x' so the output can be embedded in quoted contexts. VC85
// replaces every punctuation symbol with a visually distinct Cyrillic letter
// (UTF-8), and VC85CP1251 is the same table rendered as single Windows-1251
// bytes.
//
// Decoding accepts any of the four alphabets, so a decoder needs no options.
package vc85

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Alphabet selects the symbol table used for encoding.
type Alphabet int

const (
	ASCII85    Alphabet = 1
	VWX        Alphabet = 2
	VC85       Alphabet = 3
	VC85CP1251 Alphabet = 4
)

// DefaultAlphabet is used when an Encoding is created with a zero Alphabet.
const DefaultAlphabet = VWX

// DefaultWidth is the line width, in symbols, used by StdEncoding.
const DefaultWidth = 75

var (
	// ErrInvalidChar is returned when decoded text contains a symbol that
	// belongs to none of the alphabets.
	ErrInvalidChar = errors.New("vc85: invalid character")

	// ErrOverflow is returned when a five-symbol group exceeds 32 bits.
	ErrOverflow = errors.New("vc85: group overflows 32 bits")
)

// valid reports whether a is one of the known alphabets.
func (a Alphabet) valid() bool {
	return a >= ASCII85 && a <= VC85CP1251
}

func (a Alphabet) String() string {
	switch a {
	case ASCII85:
		return "ascii85"
	case VWX:
		return "vwx"
	case VC85:
		return "vc85"
	case VC85CP1251:
		return "vc85-cp1251"
	default:
		return "unknown"
	}
}

// remap lists the ASCII85 symbols that VC85 replaces with Cyrillic letters.
var remap = []struct {
	from byte
	to   rune
}{
	{'!', 'Я'}, {'#', 'Ж'}, {'$', 'Д'}, {'%', 'П'}, {'&', 'Ц'}, {'(', 'Щ'},
	{')', 'щ'}, {'*', 'ж'}, {'+', 'ф'}, {',', 'ц'}, {'-', 'Э'}, {'.', 'я'},
	{'/', 'ю'}, {':', 'д'}, {';', 'Б'}, {'<', 'Г'}, {'=', 'э'}, {'>', 'ъ'},
	{'?', 'Ъ'}, {'@', 'Ф'}, {'I', 'И'}, {'O', 'Ю'}, {'[', 'Ш'}, {']', 'ш'},
	{'^', 'л'}, {'`', 'й'}, {'l', 'Л'},
}

// quoteSubst maps the symbols VWX avoids onto their replacements.
var quoteSubst = map[byte]byte{'"': 'v', '\'': 'w', '\\': 'x'}

// Shorthand symbols for frequent groups.
const (
	zeroSymbol  = 'z' // 00 00 00 00
	spaceSymbol = 'y' // 20 20 20 20
	spaceGroup  = 0x20202020
)

// table holds the 85 output symbols of one alphabet.
type table [85]string

var (
	tables    [VC85CP1251 + 1]table
	tableOnce [VC85CP1251 + 1]sync.Once

	decodeOnce  sync.Once
	runeDigits  map[rune]byte
	cp1251Digit [256]int16
)

// symbols returns the encoding table of a, building it on first use.
func symbols(a Alphabet) *table {
	tableOnce[a].Do(func() {
		t := &tables[a]
		for i := 0; i < 85; i++ {
			c := byte('!' + i)
			if r, ok := quoteSubst[c]; ok && a >= VWX {
				c = r
			}
			t[i] = string(rune(c))
		}
		if a < VC85 {
			return
		}
		for _, m := range remap {
			i := m.from - '!'
			if a == VC85CP1251 {
				b, _ := charmap.Windows1251.EncodeRune(m.to)
				t[i] = string([]byte{b})
			} else {
				t[i] = string(m.to)
			}
		}
	})
	return &tables[a]
}

// buildDecodeTables fills the alphabet-agnostic reverse lookups.
func buildDecodeTables() {
	runeDigits = make(map[rune]byte, 85+len(quoteSubst)+len(remap))
	for i := 0; i < 85; i++ {
		c := byte('!' + i)
		runeDigits[rune(c)] = byte(i)
		if r, ok := quoteSubst[c]; ok {
			runeDigits[rune(r)] = byte(i)
		}
	}
	for i := range cp1251Digit {
		cp1251Digit[i] = -1
	}
	for _, m := range remap {
		d := m.from - '!'
		runeDigits[m.to] = d
		if b, ok := charmap.Windows1251.EncodeRune(m.to); ok {
			cp1251Digit[b] = int16(d)
		}
	}
}

// digitOf resolves the symbol at the start of s. It returns the digit, the
// number of bytes consumed and whether the symbol is known.
func digitOf(s string) (byte, int, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		if d := cp1251Digit[s[0]]; d >= 0 {
			return byte(d), 1, true
		}
		return 0, 1, false
	}
	d, ok := runeDigits[r]
	return d, size, ok
}

// ParseAlphabet accepts an alphabet number ("1".."4") or its name as
// returned by Alphabet.String.
func ParseAlphabet(s string) (Alphabet, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a := ASCII85; a <= VC85CP1251; a++ {
		if s == a.String() || s == strconv.Itoa(int(a)) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("vc85: unknown alphabet %q", s)
}
