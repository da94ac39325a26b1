package helml

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/helml-lang/go-helml/vc85"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	f := func(name string, root Value, expected ...string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			out, err := Encode(root.Container(), MultiLine)
			require.NoError(t, err)
			assert.Equal(t, strings.Join(expected, "\n"), out)
		})
	}

	f("nested",
		obj("name", "John", "age", 25, "address", obj("street", "123 Main St", "city", "New York")),
		"name: John", "age:  25", "", "address:", " :street: 123 Main St", " :city: New York", "#")
	f("single", obj("key", "value"), "key: value")
	f("list", list(1, 2, 3), "--:  1", "--:  2", "--:  3")
	f("escaped_keys", obj("#", 1, "-", 2, "~", 3, "", 444), "-Iw:  1", "-LQ:  2", "-fg:  3", "-:  444")
	f("nested_list",
		obj("tags", list("a", list("b"))),
		"", "tags", " :--: a", "", " :--", "  ::--: b", " #", "#")
	f("empty_containers", obj("m", obj(), "l", list()), "", "m:", "#", "", "l:", "#")
}

func TestEncodeExplicitIndex(t *testing.T) {
	c := New(Config{})
	out, err := c.Encode(obj("l", list("x", "y")).Container(), MultiLine)
	require.NoError(t, err)
	assert.Equal(t, "l\n:0: x\n:1: y", out)

	back, err := c.Decode(out)
	require.NoError(t, err)
	assert.True(t, back.Equal(obj("l", list("x", "y")).Container()))
}

// richTree exercises every scalar kind and the keys that need escaping.
func richTree() *Container {
	return obj(
		"name", "John",
		"empty", "",
		"unicode", "Привет, мир",
		"spaces", " padded ",
		"multi", "line one\n  line two\n",
		"fence_like", "a\n`\nb",
		"binary", "\x00\x01\xfe\xff",
		"high", strings.Repeat("\xc0\xff\x80", 40),
		"tilde", "a~b",
		"cr", "a\rb",
		"looks_typed", "  N",
		"number_text", "123",
		"marker_text", "=x",
		"shift_text", ">>",
		"fence_text", "`",
		"int", 42,
		"neg", -7,
		"max", int64(math.MaxInt64),
		"min", int64(math.MinInt64),
		"float", 3.25,
		"negzero", math.Copysign(0, -1),
		"nan", math.NaN(),
		"inf", math.Inf(1),
		"ninf", math.Inf(-1),
		"tiny", 1e-300,
		"huge", 1.5e300,
		"t", true,
		"f", false,
		"nil", nil,
		"list", list(1, "two", list(3, 4), obj("k", "v")),
		"emptymap", obj(),
		"nested", obj("deeper", obj("deepest", list("x"))),
		"#hash", 1,
		"-dash", 2,
		"", "empty key",
		"a:b", "colon",
		"a.b", "dot",
		"<<", "shift",
		" lead", "space key",
		"--", "auto",
		"ключ", "значение",
	).Container()
}

func TestRoundTrip(t *testing.T) {
	tree := richTree()

	configs := map[string]Config{
		"default": DefaultConfig(),
		"zero":    {},
		"indent":  {SpaceIndent: 4, ListAutoIndex: true},
		"affixes": {AddPrefix: true, AddPostfix: true, BlankLineBeforeContainer: true, CommentAfterContainer: true},
		"vc85":    {Base85: vc85.VC85, ListAutoIndex: true},
		"cp1251":  {Base85: vc85.VC85CP1251},
	}

	for name, cfg := range configs {
		c := New(cfg)
		for _, m := range []Mode{MultiLine, URL, OneLine} {
			t.Run(name+"/"+m.String(), func(t *testing.T) {
				out, err := c.Encode(tree, m)
				require.NoError(t, err)
				if m != MultiLine {
					assert.NotContains(t, out, "\n")
				}

				got, err := c.Decode(out)
				require.NoError(t, err)
				assert.True(t, tree.Equal(got), "output:\n%s\ndecoded:\n%s", out, got)
			})
		}
	}
}

func TestURLCharset(t *testing.T) {
	out, err := Encode(richTree(), URL)
	require.NoError(t, err)
	for i := 0; i < len(out); i++ {
		assert.True(t, out[i] >= ' ' && out[i] <= '~', "byte %q at %d", out[i], i)
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(nil, MultiLine)
	assert.ErrorIs(t, err, ErrNotContainer)

	deep := obj("a", obj("b", obj("c", obj()))).Container()
	_, err = New(Config{MaxDepth: 3}).Encode(deep, MultiLine)
	assert.ErrorIs(t, err, ErrTooDeep)

	_, err = New(Config{MaxDepth: 4}).Encode(deep, MultiLine)
	assert.NoError(t, err)

	_, err = Marshal(map[string]any{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Marshal(map[int]string{1: "a"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Marshal(uint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Marshal("scalar")
	assert.ErrorIs(t, err, ErrNotContainer)
}

func TestMarshal(t *testing.T) {
	b, err := Marshal(map[string]any{
		"b":     []byte("raw"),
		"a":     []int{1, 2},
		"c":     nil,
		"f":     float32(0.5),
		"u":     uint8(7),
		"value": String("kept"),
	})
	require.NoError(t, err)
	assert.Equal(t, "\na\n :--:  1\n :--:  2\n#\nb: raw\nc:  N\nf:  0.5\nu:  7\nvalue: kept\n", string(b))

	var out map[string]any
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, map[string]any{
		"a":     []any{int64(1), int64(2)},
		"b":     "raw",
		"c":     nil,
		"f":     0.5,
		"u":     int64(7),
		"value": "kept",
	}, out)
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf).SetMode(URL)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode([]string{"x"}))
	assert.Equal(t, "~a.==1~~--.=x~", buf.String())

	buf.Reset()
	c := New(Config{AddPostfix: true})
	require.NoError(t, c.NewEncoder(&buf).SetMode(OneLine).Encode(richTree()))
	got, err := c.Decode(buf.String())
	require.NoError(t, err)
	assert.True(t, richTree().Equal(got))

	buf.Reset()
	require.NoError(t, NewEncoder(&buf).Encode(Of(NewList(Int(1)))))
	assert.Equal(t, "--:  1\n", buf.String())
}
