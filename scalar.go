package helml

import (
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/helml-lang/go-helml/vc85"
)

// specialValues are the reserved constants written after a marker pair.
var specialValues = map[string]Value{
	"N":   Null(),
	"U":   Null(),
	"T":   Bool(true),
	"F":   Bool(false),
	"NAN": Float(math.NaN()),
	"INF": Float(math.Inf(1)),
	"NIF": Float(math.Inf(-1)),
}

// numericRegex matches the numbers accepted after a marker pair.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// EncodeValue returns the token for a scalar using the default Codec.
func EncodeValue(v Value, spc byte) (string, error) {
	return defaultCodec.EncodeValue(v, spc)
}

// DecodeValue decodes a scalar token using the default Codec.
func DecodeValue(tok string, spc byte) (Value, error) {
	return defaultCodec.DecodeValue(tok, spc)
}

// EncodeValue returns the token for a scalar. A spc of '=' selects the URL
// rules, anything else the multi-line rules.
func (c *Codec) EncodeValue(v Value, spc byte) (string, error) {
	m := MultiLine
	if spc == urlDialect.spc {
		m = URL
	}
	return c.encodeValue(v, spc, m)
}

func (c *Codec) encodeValue(v Value, spc byte, m Mode) (string, error) {
	if c.cfg.ValueEncoder != nil {
		if tok, ok := c.cfg.ValueEncoder(v, spc); ok {
			return tok, nil
		}
	}

	pair := string([]byte{spc, spc})
	switch v.Kind() {
	case KindString:
		return c.encodeString(v.AsString(), spc, m), nil
	case KindBool:
		if v.AsBool() {
			return pair + "T", nil
		}
		return pair + "F", nil
	case KindNull:
		return pair + "N", nil
	case KindInt:
		return pair + strconv.FormatInt(v.AsInt(), 10), nil
	case KindFloat:
		f := v.AsFloat()
		switch {
		case math.IsNaN(f):
			return pair + "NAN", nil
		case math.IsInf(f, 1):
			return pair + "INF", nil
		case math.IsInf(f, -1):
			return pair + "NIF", nil
		}
		num := formatFloat(f)
		if spc == urlDialect.spc {
			// The dot would read as a level separator.
			return "+" + encodeBase64([]byte(pair+num)), nil
		}
		return pair + num, nil
	default:
		return "", fmt.Errorf("%w: cannot encode %s as a scalar", ErrUnsupportedType, v.Kind())
	}
}

func (c *Codec) encodeString(s string, spc byte, m Mode) string {
	if s == "" {
		return "-"
	}
	if spc == ' ' && strings.Contains(s, "\n") && fenceSafe(s) {
		return "`\n" + s + "\n`"
	}

	d := lineDialect
	if spc == urlDialect.spc {
		d = urlDialect
	}
	if !inCharset(s, d) {
		if c.cfg.Base85 != 0 && m == MultiLine {
			if tok, ok := encodeBase85(s, c.cfg.Base85); ok {
				return tok
			}
		}
		return "-" + encodeBase64([]byte(s))
	}

	fc := s[0]
	lc, _ := utf8.DecodeLastRuneInString(s)
	if fc == spc || fc == ' ' || lc == rune(spc) || unicode.IsSpace(lc) {
		return "'" + s + "'"
	}
	return string(spc) + s
}

// encodeBase85 writes s as a '<' fence holding wrapped vc85 text. The body
// carries no delimiters since '~' always splits lines. It fails if a wrapped
// line would read as the closing '>'.
func encodeBase85(s string, a vc85.Alphabet) (string, bool) {
	body := vc85.NewEncoding(a).WithWidth(vc85.DefaultWidth).EncodeToString([]byte(s))
	for _, line := range strings.Split(body, "\n") {
		if line == ">" {
			return "", false
		}
	}
	return "<\n" + body + "\n>", true
}

// fenceSafe reports whether s can be written verbatim between backtick
// fence lines and read back unchanged.
func fenceSafe(s string) bool {
	if !utf8.ValidString(s) || strings.ContainsAny(s, "~\r\x00") || strings.Contains(s, "`\n") {
		return false
	}
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "`" {
			return false
		}
	}
	return true
}

// formatFloat writes f in shortest form, always with a decimal point.
// Exponents are used only for very large or small magnitudes, as
// encoding/json does.
func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if strings.IndexByte(s, '.') >= 0 {
		return s
	}
	if e := strings.IndexAny(s, "eE"); e >= 0 {
		return s[:e] + ".0" + s[e:]
	}
	return s + ".0"
}

// DecodeValue decodes a scalar token written with marker spc. Malformed
// escapes decode to the token text itself; only a base85 payload with
// foreign characters is an error.
func (c *Codec) DecodeValue(tok string, spc byte) (Value, error) {
	if tok == "" {
		return String(""), nil
	}

	fc := tok[0]
	if fc == '-' || fc == '+' {
		b, ok := decodeBase64(tok[1:])
		if !ok {
			return String(tok), nil
		}
		if fc == '-' || len(b) == 0 {
			return String(string(b)), nil
		}
		tok = string(b)
		fc = tok[0]
	}

	switch fc {
	case spc:
		if len(tok) < 2 || tok[1] != spc {
			return String(tok[1:]), nil
		}
		return c.decodeTyped(tok), nil
	case '"':
		return String(stripCSlashes(unquote(tok))), nil
	case '\'':
		return String(unquote(tok)), nil
	case '`':
		if len(tok) < 4 {
			return String(""), nil
		}
		return String(tok[2 : len(tok)-2]), nil
	case '<':
		b, err := vc85.Decode(tok)
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil
	case '%':
		return String(string(hexDecode(tok[1:]))), nil
	}

	if c.cfg.FormatDecoder != nil {
		if v, ok := c.cfg.FormatDecoder(tok); ok {
			return v, nil
		}
	}
	if b, ok := decodeBase64(tok); ok {
		return String(string(b)), nil
	}
	return String(tok), nil
}

// decodeTyped decodes the text after a marker pair.
func (c *Codec) decodeTyped(tok string) Value {
	body := tok[2:]
	if numericRegex.MatchString(body) {
		if !strings.Contains(body, ".") {
			if i, err := strconv.ParseInt(body, 10, 64); err == nil {
				return Int(i)
			}
		}
		if f, err := strconv.ParseFloat(body, 64); err == nil {
			return Float(f)
		}
	}
	if v, ok := specialValues[body]; ok {
		return v
	}
	if c.cfg.FormatDecoder != nil {
		if v, ok := c.cfg.FormatDecoder(tok); ok {
			return v
		}
	}
	return String(tok)
}

// unquote drops the first and last byte.
func unquote(tok string) string {
	if len(tok) < 2 {
		return ""
	}
	return tok[1 : len(tok)-1]
}

// stripCSlashes interprets C-style backslash escapes: \n \t \r \v \f \a \b,
// \xHH, octal \NNN, and a backslash before any other byte yields that byte.
func stripCSlashes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'x':
			n, v := 0, byte(0)
			for n < 2 && i+1 < len(s) && isHex(s[i+1]) {
				i++
				v = v<<4 | unhex(s[i])
				n++
			}
			if n == 0 {
				b.WriteByte('x')
			} else {
				b.WriteByte(v)
			}
		default:
			if isOctal(c) {
				v := c - '0'
				for n := 1; n < 3 && i+1 < len(s) && isOctal(s[i+1]); n++ {
					i++
					v = v<<3 | (s[i] - '0')
				}
				b.WriteByte(v)
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// hexDecode collects hex digit pairs from s, skipping anything else. A
// digit not followed by another digit is read as 0X.
func hexDecode(s string) []byte {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			continue
		}
		if i+1 < len(s) && isHex(s[i+1]) {
			digits = append(digits, s[i], s[i+1])
			i++
		} else {
			digits = append(digits, '0', s[i])
		}
	}
	out := make([]byte, len(digits)/2)
	_, _ = hex.Decode(out, digits)
	return out
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
