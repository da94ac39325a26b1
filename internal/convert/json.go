// Package convert moves HELML trees to and from JSON and YAML while keeping
// the key order of maps.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/helml-lang/go-helml"
)

// ErrTooDeep is returned when the input nests deeper than
// helml.DefaultMaxDepth.
var ErrTooDeep = errors.New("convert: nesting too deep")

// ErrTooLarge is returned when YAML aliases expand to far more nodes than
// the input size allows.
var ErrTooLarge = errors.New("convert: document expands too much")

// FromJSON reads a single JSON value from r. Object key order is kept.
// Integers that fit in int64 become Int, other numbers Float.
func FromJSON(r io.Reader) (helml.Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := readJSON(dec, 0)
	if err != nil {
		return helml.Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return helml.Value{}, errors.New("convert: trailing data after JSON value")
	}
	return v, nil
}

func readJSON(dec *json.Decoder, depth int) (helml.Value, error) {
	if depth > helml.DefaultMaxDepth {
		return helml.Value{}, ErrTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return helml.Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := helml.NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return helml.Value{}, err
				}
				key, _ := kt.(string)
				v, err := readJSON(dec, depth+1)
				if err != nil {
					return helml.Value{}, err
				}
				m.Set(key, v)
			}
			_, err = dec.Token()
			return helml.Of(m), err
		case '[':
			l := helml.NewList()
			for dec.More() {
				v, err := readJSON(dec, depth+1)
				if err != nil {
					return helml.Value{}, err
				}
				l.Append(v)
			}
			_, err = dec.Token()
			return helml.Of(l), err
		}
		return helml.Value{}, fmt.Errorf("convert: unexpected %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return helml.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return helml.Value{}, fmt.Errorf("convert: bad number %s: %w", t, err)
		}
		return helml.Float(f), nil
	case string:
		return helml.String(t), nil
	case bool:
		return helml.Bool(t), nil
	case nil:
		return helml.Null(), nil
	}
	return helml.Value{}, fmt.Errorf("convert: unexpected token %v", tok)
}

// ToJSON writes v as JSON. Lists become arrays and maps objects in their
// key order. NaN and the infinities have no JSON form and are written as
// the strings "NaN", "Infinity" and "-Infinity". A non-empty indent pretty
// prints the output.
func ToJSON(w io.Writer, v helml.Value, indent string) error {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, 0); err != nil {
		return err
	}
	if indent != "" {
		var out bytes.Buffer
		if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
			return err
		}
		buf = out
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(buf *bytes.Buffer, v helml.Value, depth int) error {
	if depth > helml.DefaultMaxDepth {
		return ErrTooDeep
	}

	switch v.Kind() {
	case helml.KindNull:
		buf.WriteString("null")
	case helml.KindBool:
		buf.WriteString(strconv.FormatBool(v.AsBool()))
	case helml.KindInt:
		buf.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case helml.KindFloat:
		f := v.AsFloat()
		switch {
		case math.IsNaN(f):
			buf.WriteString(`"NaN"`)
		case math.IsInf(f, 1):
			buf.WriteString(`"Infinity"`)
		case math.IsInf(f, -1):
			buf.WriteString(`"-Infinity"`)
		default:
			b, _ := json.Marshal(f)
			buf.Write(b)
		}
	case helml.KindString:
		b, _ := json.Marshal(v.AsString())
		buf.Write(b)
	case helml.KindContainer:
		c := v.Container()
		if c.IsList() {
			buf.WriteByte('[')
			for i, item := range c.Values() {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeJSON(buf, item, depth+1); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
			return nil
		}

		buf.WriteByte('{')
		i := 0
		for key, item := range c.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			b, _ := json.Marshal(key)
			buf.Write(b)
			buf.WriteByte(':')
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
