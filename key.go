package helml

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Reserved key tokens.
const (
	autoIndexKey  = "--"
	layerNextKey  = "-+"
	layerInitKey  = "-++"
	layerNoteKey  = "---"
	shiftCloseKey = "<<"
	shiftOpenKey  = ">>"
)

// encodeKey returns the token for key at level. List entries become the
// auto-index placeholder when autoIndex is set; keys that cannot be written
// literally become '-' followed by unpadded base64url.
func encodeKey(key string, level int, d dialect, inList, autoIndex bool) string {
	if inList && autoIndex {
		return autoIndexKey
	}
	if keyNeedsEscape(key, level, d) {
		return "-" + base64.RawURLEncoding.EncodeToString([]byte(key))
	}
	return key
}

func keyNeedsEscape(key string, level int, d dialect) bool {
	if key == "" || key == shiftCloseKey || key == shiftOpenKey {
		return true
	}
	fc, lc := key[0], key[len(key)-1]
	if fc == d.spc || fc == ' ' || lc == d.spc || lc == ' ' || fc == '-' {
		return true
	}
	if level == 0 && (fc == '#' || strings.HasPrefix(key, "//")) {
		return true
	}
	if strings.IndexByte(key, d.lvl) >= 0 {
		return true
	}
	return !inCharset(key, d)
}

// inCharset reports whether s may be written verbatim. URL text allows
// printable ASCII from ' ' to '}'. Line text allows any valid UTF-8 outside
// C0 controls and U+007E..U+00FF, which keeps '~' free for joining.
func inCharset(s string, d dialect) bool {
	if d.spc == urlDialect.spc {
		for i := 0; i < len(s); i++ {
			if s[i] < ' ' || s[i] > '}' {
				return false
			}
		}
		return true
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return false
		}
		if r < 0x20 || (r >= 0x7E && r <= 0xFF) {
			return false
		}
		i += size
	}
	return true
}

// decodeKey reverses encodeKey for a non-directive token. Tokens whose
// base64 payload does not decode are kept as written.
func decodeKey(tok string) string {
	if len(tok) > 1 && tok[0] == '-' {
		if b, ok := decodeBase64(tok[1:]); ok {
			return string(b)
		}
		return tok
	}
	if tok == "-" {
		return ""
	}
	return tok
}

// decodeBase64 decodes standard or URL-safe base64, with or without
// padding.
func decodeBase64(s string) ([]byte, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

func encodeBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
