// Package helml provides functionality for encoding and decoding HELML
// documents.
//
// HELML is a line-oriented text format for nested maps and lists. Each line
// holds a key prefixed by one level separator per nesting level, optionally
// followed by the separator and an encoded scalar:
//
//	name: John
//	age:  25
//
//	address:
//	 :street: 123 Main St
//	 :city: New York
//	#
//
// The same grammar can be written on a single line, either joined by '~'
// (OneLine) or with URL-safe control characters (URL).
package helml

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Marshal returns the multi-line HELML encoding of v.
//
// v is converted with FromAny and must produce a map or list. See FromAny
// for the mapping of Go types.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode returns the HELML encoding of root using the default Codec.
func Encode(root *Container, m Mode) (string, error) {
	return defaultCodec.Encode(root, m)
}

// An Encoder writes HELML documents to an output stream.
type Encoder struct {
	w     io.Writer
	codec *Codec
	mode  Mode
}

// NewEncoder returns a new encoder that writes multi-line documents to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, codec: defaultCodec}
}

// NewEncoder returns an encoder bound to c.
func (c *Codec) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, codec: c}
}

// SetMode selects the output dialect for subsequent calls to Encode.
func (enc *Encoder) SetMode(m Mode) *Encoder {
	enc.mode = m
	return enc
}

// Encode writes the HELML encoding of v to the stream. Multi-line
// documents are followed by a newline.
func (enc *Encoder) Encode(v any) error {
	val, err := enc.codec.fromAny(v)
	if err != nil {
		return err
	}
	if !val.IsContainer() {
		return fmt.Errorf("%w, got %s", ErrNotContainer, val.Kind())
	}

	out, err := enc.codec.Encode(val.Container(), enc.mode)
	if err != nil {
		return err
	}
	if enc.mode == MultiLine {
		out += "\n"
	}
	_, err = io.WriteString(enc.w, out)
	return err
}

// Encode returns the HELML encoding of root in mode m.
func (c *Codec) Encode(root *Container, m Mode) (string, error) {
	if root == nil {
		return "", ErrNotContainer
	}

	s := newState(c, m)
	defer putState(s)

	if err := s.encodeContainer(root, 0, root.IsList()); err != nil {
		return "", err
	}
	return c.finish(s.lines, m), nil
}

// state holds the encoding state for a single Encode call.
type state struct {
	codec *Codec
	mode  Mode
	d     dialect
	lines []string
}

var statePool = sync.Pool{
	New: func() any {
		return new(state)
	},
}

// newState retrieves a new state from the pool.
func newState(c *Codec, m Mode) *state {
	s := statePool.Get().(*state)
	s.codec = c
	s.mode = m
	s.d = m.dialect()
	return s
}

// putState returns a state to the pool.
func putState(s *state) {
	s.codec = nil
	s.lines = s.lines[:0]
	statePool.Put(s)
}

// indent returns the prefix written before a key at level.
func (s *state) indent(level int) string {
	ident := strings.Repeat(string(s.d.lvl), level)
	if n := s.codec.cfg.SpaceIndent; n > 0 && s.d.spc == ' ' {
		ident = strings.Repeat(" ", level*n) + ident
	}
	return ident
}

// encodeContainer appends the lines for every entry of c at level.
func (s *state) encodeContainer(c *Container, level int, isList bool) error {
	if level >= s.codec.cfg.maxDepth() {
		return ErrTooDeep
	}
	cfg := &s.codec.cfg
	cosmetic := s.d.spc == ' '

	for i := 0; i < c.Len(); i++ {
		key, val := c.At(i)
		tok := encodeKey(key, level, s.d, isList, cfg.ListAutoIndex)
		ident := s.indent(level)

		if !val.IsContainer() {
			enc, err := s.codec.encodeValue(val, s.d.spc, s.mode)
			if err != nil {
				return fmt.Errorf("helml: key %q: %w", key, err)
			}
			s.lines = append(s.lines, ident+tok+string(s.d.lvl)+enc)
			continue
		}

		if cfg.BlankLineBeforeContainer && cosmetic {
			s.lines = append(s.lines, "")
		}

		child := val.Container()
		childList := child.IsList()
		if !childList {
			tok += string(s.d.lvl)
		}
		s.lines = append(s.lines, ident+tok)

		if err := s.encodeContainer(child, level+1, childList); err != nil {
			return err
		}

		if cfg.CommentAfterContainer && cosmetic {
			s.lines = append(s.lines, strings.Repeat(" ", level)+"#")
		}
	}
	return nil
}

// FromAny converts a Go value into a Value using the default Codec limits.
//
// The mapping from Go types is as follows:
//   - nil pointer or interface -> Null
//   - bool -> Bool
//   - signed and unsigned integers -> Int (uint64 above MaxInt64 is an error)
//   - float32, float64 -> Float
//   - string -> String; []byte -> String holding the raw bytes
//   - Value, *Container -> used as is
//   - map with string keys -> map container, keys sorted
//   - struct -> map container of exported fields
//   - slice, array -> list container
//
// Struct fields can be customized with `helml` tags. For example:
//
//	// Field appears as 'my_field' in HELML.
//	Field int `helml:"my_field"`
//
//	// Field is ignored.
//	Field int `helml:"-"`
//
//	// Field is skipped when it holds its zero value.
//	Field int `helml:"field,omitempty"`
func FromAny(v any) (Value, error) {
	return defaultCodec.fromAny(v)
}

func (c *Codec) fromAny(v any) (Value, error) {
	s := &reflectState{maxDepth: c.cfg.maxDepth()}
	out := s.marshalValue(reflect.ValueOf(v), 0)
	return out, s.err
}

var (
	valueType     = reflect.TypeOf(Value{})
	containerType = reflect.TypeOf((*Container)(nil))
)

// reflectState carries the first error of a FromAny conversion.
type reflectState struct {
	maxDepth int
	err      error
}

// marshalValue is the primary recursive function that dispatches on the
// value's kind.
func (s *reflectState) marshalValue(v reflect.Value, depth int) Value {
	if s.err != nil {
		return Value{}
	}
	if depth > s.maxDepth {
		s.err = ErrTooDeep
		return Value{}
	}

	// Follow pointers and interfaces to find the concrete value.
	// If we encounter a nil pointer along the way, it represents a null value.
	v = indirect(v, &s.err)
	if s.err != nil || !v.IsValid() {
		return Value{}
	}
	switch v.Type() {
	case valueType:
		return v.Interface().(Value)
	case containerType:
		return Of(v.Interface().(*Container))
	}

	switch v.Kind() {
	case reflect.Map:
		return s.marshalMap(v, depth)
	case reflect.Struct:
		return s.marshalStruct(v, depth)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return String(string(v.Bytes()))
		}
		return s.marshalSlice(v, depth)
	case reflect.String:
		return String(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			s.err = fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, u)
			return Value{}
		}
		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	default:
		// Any type we don't explicitly handle is unsupported.
		s.err = fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
		return Value{}
	}
}

// marshalMap converts a Go map into a map container.
func (s *reflectState) marshalMap(v reflect.Value, depth int) Value {
	if v.Type().Key().Kind() != reflect.String {
		s.err = fmt.Errorf("%w: map key type must be a string, not %s", ErrUnsupportedType, v.Type().Key())
		return Value{}
	}

	// Sort map keys to ensure the output is deterministic.
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	out := NewMap()
	for _, key := range keys {
		out.Set(key.String(), s.marshalValue(v.MapIndex(key), depth+1))
	}
	return Of(out)
}

// marshalStruct converts a Go struct into a map container.
func (s *reflectState) marshalStruct(v reflect.Value, depth int) Value {
	out := NewMap()
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		// Skip unexported fields as they are not accessible.
		if !field.IsExported() {
			continue
		}

		name, opts := parseStructTag(field.Tag)
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		fv := v.Field(i)
		if opts.contains("omitempty") && isEmptyValue(fv) {
			continue
		}
		out.Set(name, s.marshalValue(fv, depth+1))
	}
	return Of(out)
}

// marshalSlice converts a Go slice or array into a list container.
func (s *reflectState) marshalSlice(v reflect.Value, depth int) Value {
	out := NewMap()
	for i := 0; i < v.Len(); i++ {
		out.Set(strconv.Itoa(i), s.marshalValue(v.Index(i), depth+1))
	}
	return Of(out)
}

// tagOptions is the comma-separated list following the name in a struct tag.
type tagOptions string

// parseStructTag splits a `helml` struct tag into its name and options.
func parseStructTag(tag reflect.StructTag) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag.Get("helml"), ",")
	return name, tagOptions(opts)
}

func (o tagOptions) contains(opt string) bool {
	for o != "" {
		name, rest, _ := strings.Cut(string(o), ",")
		if name == opt {
			return true
		}
		o = tagOptions(rest)
	}
	return false
}

// isEmptyValue reports whether v is skipped by the omitempty option.
// Collections count as empty when they have no elements.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

// indirect walks down a chain of pointers and interfaces to find the
// underlying concrete value. If a nil pointer is found, it returns an
// invalid reflect.Value, which converts to Null.
func indirect(v reflect.Value, err *error) reflect.Value {
	// The loop limit is a safeguard against circular data structures, which would
	// otherwise cause an infinite loop.
	for i := 0; i < 1000; i++ {
		if !v.IsValid() {
			return v
		}
		kind := v.Kind()
		if kind != reflect.Pointer && kind != reflect.Interface {
			return v
		}
		if v.IsNil() {
			return reflect.Value{}
		}
		if v.Type() == containerType {
			return v
		}
		v = v.Elem()
	}
	*err = fmt.Errorf("helml: encountered a circular or excessively deep data structure")
	return reflect.Value{}
}
