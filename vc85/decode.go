package vc85

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Decode returns the bytes represented by the vc85 text s.
//
// Whitespace is ignored. If s contains a <~ or {~ opening delimiter, only
// the text between it and the next '~' is decoded; a bare "< ... >" frame is
// stripped as well. Symbols from any of the four alphabets are accepted.
func Decode(s string) ([]byte, error) {
	b, _, err := DecodeDelimited(s)
	return b, err
}

// DecodeDelimited is like Decode and also reports which delimiter style
// framed the data.
func DecodeDelimited(s string) ([]byte, Delimiter, error) {
	body, delim := unframe(s)

	decodeOnce.Do(buildDecodeTables)

	digits := make([]byte, 0, len(body))
	for i := 0; i < len(body); {
		switch body[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			i++
			continue
		case zeroSymbol:
			digits = append(digits, 0, 0, 0, 0, 0)
			i++
			continue
		case spaceSymbol:
			digits = appendGroup(digits, spaceGroup)
			i++
			continue
		}
		d, size, ok := digitOf(body[i:])
		if !ok {
			return nil, delim, fmt.Errorf("%w %q at offset %d", ErrInvalidChar, body[i:i+size], i)
		}
		digits = append(digits, d)
		i += size
	}

	out := make([]byte, 0, (len(digits)+4)/5*4)
	var buf [4]byte
	for len(digits) > 0 {
		n := min(5, len(digits))
		var sum uint64
		for i := 0; i < 5; i++ {
			d := byte(84)
			if i < n {
				d = digits[i]
			}
			sum = sum*85 + uint64(d)
		}
		if sum > 0xFFFFFFFF {
			return nil, delim, ErrOverflow
		}
		binary.BigEndian.PutUint32(buf[:], uint32(sum))
		out = append(out, buf[:n-1]...)
		digits = digits[n:]
	}
	return out, delim, nil
}

// appendGroup appends the five base-85 digits of v.
func appendGroup(dst []byte, v uint32) []byte {
	var group [5]byte
	for i := 4; i >= 0; i-- {
		group[i] = byte(v % 85)
		v /= 85
	}
	return append(dst, group[:]...)
}

// unframe trims s and removes a delimiter pair if present.
func unframe(s string) (string, Delimiter) {
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") &&
		isSpaceByte(s[1]) && isSpaceByte(s[len(s)-2]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// The earliest opener selects the delimiter.
	delim := NoDelimiter
	start := -1
	for _, d := range []Delimiter{Angle, Brace} {
		open, _ := d.pair()
		if p := strings.Index(s, open); p >= 0 && (start < 0 || p+2 < start) {
			delim, start = d, p+2
		}
	}
	if start < 0 {
		return s, NoDelimiter
	}

	_, closer := delim.pair()
	if j := strings.Index(s[start:], closer); j >= 0 {
		return s[start : start+j], delim
	}
	if j := strings.IndexByte(s[start:], '~'); j >= 0 {
		return s[start : start+j], delim
	}
	return s[start:], delim
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
