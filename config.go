package helml

import (
	"errors"

	"github.com/helml-lang/go-helml/vc85"
)

var (
	// ErrInvalidInput is returned when Decode is given something other than
	// text or a line sequence.
	ErrInvalidInput = errors.New("helml: input must be a string, []byte or []string")

	// ErrUnsupportedType is returned when a Go value has no HELML form.
	ErrUnsupportedType = errors.New("helml: unsupported type")

	// ErrNotContainer is returned when a document root is not a map or list.
	ErrNotContainer = errors.New("helml: document root must be a map or list")

	// ErrTooDeep is returned when nesting exceeds Config.MaxDepth.
	ErrTooDeep = errors.New("helml: nesting too deep")
)

// DefaultMaxDepth bounds container nesting when Config.MaxDepth is zero.
const DefaultMaxDepth = 1000

// LayersKey is the root key that lists the discovered layers when a
// document declares more than one.
const LayersKey = "_layers"

// UnclosedFence is the value stored for a multi-line or base85 block whose
// closing line is missing.
const UnclosedFence = "`ERR`"

// Config controls encoding and decoding. The zero value is usable but
// differs from DefaultConfig: list entries get explicit numeric keys and no
// cosmetic lines are written.
type Config struct {
	// ListAutoIndex writes "--" instead of the index for list entries.
	ListAutoIndex bool

	// SpaceIndent is the number of spaces written per level before the
	// level markers in multi-line and one-line output.
	SpaceIndent int

	// BlankLineBeforeContainer writes an empty line before each nested
	// container header.
	BlankLineBeforeContainer bool

	// CommentAfterContainer writes a "#" line after each nested container.
	CommentAfterContainer bool

	// DuplicateKeyList turns repeated scalar keys into a list on decode
	// instead of keeping the last value.
	DuplicateKeyList bool

	// Base85 selects the vc85 alphabet used for binary strings in
	// multi-line output. Zero writes base64 instead.
	Base85 vc85.Alphabet

	// AddPrefix writes a leading "~" element.
	AddPrefix bool

	// AddPostfix always writes the dialect declaration "~#<lvl><spc>~".
	AddPostfix bool

	// ValueEncoder, when set, is tried before the built-in scalar encoder.
	// Returning ok=false falls back to the built-in encoding.
	ValueEncoder func(v Value, spc byte) (token string, ok bool)

	// FormatDecoder, when set, decodes typed tokens ("  X" with a space
	// marker pair) that are neither numbers nor reserved constants, and
	// bare tokens before the base64 fallback.
	FormatDecoder func(token string) (v Value, ok bool)

	// MaxDepth bounds container nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultConfig returns the configuration used by the package-level
// functions.
func DefaultConfig() Config {
	return Config{
		ListAutoIndex:            true,
		SpaceIndent:              1,
		BlankLineBeforeContainer: true,
		CommentAfterContainer:    true,
		Base85:                   vc85.VWX,
		MaxDepth:                 DefaultMaxDepth,
	}
}

func (c *Config) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// Codec binds a Config to the encode and decode operations. A Codec is
// immutable and safe for concurrent use.
type Codec struct {
	cfg Config
}

// New returns a Codec using cfg.
func New(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// Config returns a copy of the codec configuration.
func (c *Codec) Config() Config { return c.cfg }

var defaultCodec = New(DefaultConfig())
