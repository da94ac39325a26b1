package helml

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindContainer:
		return "container"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a HELML scalar or container. The zero Value is null.
//
// Strings are byte strings and may hold arbitrary binary data.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	c    *Container
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value. NaN, infinities and negative zero
// are preserved.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Of wraps a container. A nil container is stored as an empty one.
func Of(c *Container) Value {
	if c == nil {
		c = NewMap()
	}
	return Value{kind: KindContainer, c: c}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsContainer() bool { return v.kind == KindContainer }

// AsBool returns the boolean held by v, or false.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer held by v, or zero.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float held by v, or zero.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the string held by v, or "".
func (v Value) AsString() string { return v.s }

// Container returns the container held by v, or nil.
func (v Value) Container() *Container { return v.c }

// String renders v for debugging. It is not the HELML encoding.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return v.c.String()
	}
}

// Equal reports whether v and o hold the same data. NaN equals NaN and
// negative zero differs from positive zero. Containers compare key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsNaN(o.f) {
			return math.IsNaN(v.f) && math.IsNaN(o.f)
		}
		return v.f == o.f && math.Signbit(v.f) == math.Signbit(o.f)
	case KindString:
		return v.s == o.s
	default:
		return v.c.Equal(o.c)
	}
}

// Container is an ordered map from string keys to values. It is a List when
// its keys are exactly "0", "1", ... "n-1" in that order, see IsList.
type Container struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// NewMap returns an empty container.
func NewMap() *Container {
	return &Container{index: map[string]int{}}
}

// NewList returns a container holding vals under the keys "0".."n-1".
func NewList(vals ...Value) *Container {
	c := NewMap()
	for _, v := range vals {
		c.Append(v)
	}
	return c
}

// Len returns the number of entries.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Get returns the value stored at key.
func (c *Container) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return Value{}, false
	}
	return c.vals[i], true
}

// Has reports whether key is present.
func (c *Container) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores v at key. An existing key keeps its position.
func (c *Container) Set(key string, v Value) {
	if c.index == nil {
		c.index = map[string]int{}
	}
	if i, ok := c.index[key]; ok {
		c.vals[i] = v
		return
	}
	c.index[key] = len(c.keys)
	c.keys = append(c.keys, key)
	c.vals = append(c.vals, v)
}

// Append stores v under the next integer key, which is the current length.
func (c *Container) Append(v Value) {
	c.Set(strconv.Itoa(c.Len()), v)
}

// Keys returns the keys in insertion order.
func (c *Container) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Values returns the values in insertion order.
func (c *Container) Values() []Value {
	if c == nil {
		return nil
	}
	return append([]Value(nil), c.vals...)
}

// At returns the i-th entry.
func (c *Container) At(i int) (string, Value) {
	return c.keys[i], c.vals[i]
}

// All iterates over the entries in insertion order.
func (c *Container) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i := 0; i < c.Len(); i++ {
			if !yield(c.keys[i], c.vals[i]) {
				return
			}
		}
	}
}

// IsList reports whether c is a List. See IsList.
func (c *Container) IsList() bool {
	if c == nil {
		return false
	}
	return IsList(c.keys)
}

// IsList reports whether keys are exactly "0", "1", ... "n-1" in order.
// An empty key set is not a list.
func IsList(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for i, k := range keys {
		if k != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

// Equal reports whether c and o hold equal entries in the same order.
func (c *Container) Equal(o *Container) bool {
	if c.Len() != o.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.keys[i] != o.keys[i] || !c.vals[i].Equal(o.vals[i]) {
			return false
		}
	}
	return true
}

func (c *Container) String() string {
	if c.Len() == 0 {
		return "{}"
	}
	list := c.IsList()
	buf := []byte{'{'}
	if list {
		buf[0] = '['
	}
	for i := 0; i < c.Len(); i++ {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		if !list {
			buf = strconv.AppendQuote(buf, c.keys[i])
			buf = append(buf, ": "...)
		}
		buf = append(buf, c.vals[i].String()...)
	}
	if list {
		return string(append(buf, ']'))
	}
	return string(append(buf, '}'))
}
