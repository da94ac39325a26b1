package helml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Decode parses src and returns the root container using the default Codec.
// See Codec.Decode.
func Decode(src any, layers ...string) (*Container, error) {
	return defaultCodec.Decode(src, layers...)
}

// Decode parses a HELML document.
//
// src may be a string or []byte, which are scanned for a dialect
// declaration and split into lines, or a []string of lines in the
// multi-line dialect. Values are kept only from the requested layers;
// with none given, layer "0" is used.
func (c *Codec) Decode(src any, layers ...string) (*Container, error) {
	var l *lexer
	switch s := src.(type) {
	case string:
		l = newTextLexer(s)
	case []byte:
		l = newTextLexer(string(s))
	case []string:
		l = newLexer(s, lineDialect)
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidInput, src)
	}

	if len(layers) == 0 {
		layers = []string{"0"}
	}
	return c.newParser(l, layers).parse()
}

// Decoder reads and decodes HELML documents from an input stream.
type Decoder struct {
	r      io.Reader
	codec  *Codec
	layers []string
	done   bool
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, codec: defaultCodec}
}

// NewDecoder returns a decoder bound to c.
func (c *Codec) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, codec: c}
}

// SetLayers selects the layers whose values are kept.
func (dec *Decoder) SetLayers(layers ...string) *Decoder {
	dec.layers = layers
	return dec
}

// Decode reads the whole input stream and stores the document in the
// pointer v. A *Value or **Container receives the tree as is. Calls after
// the first return io.EOF.
func (dec *Decoder) Decode(v any) error {
	if dec.done {
		return io.EOF
	}
	dec.done = true

	data, err := io.ReadAll(dec.r)
	if err != nil {
		return err
	}
	root, err := dec.codec.Decode(data, dec.layers...)
	if err != nil {
		return err
	}
	return setValue(v, Of(root))
}

// Unmarshal parses HELML data and stores the result in the value pointed to by v.
// If v is nil or not a pointer, it returns an error.
//
// It converts HELML data into values with the following mappings:
//   - null becomes nil
//   - booleans become bool
//   - integers become int64
//   - floats, including NaN and infinities, become float64
//   - strings become string; a []byte destination receives the raw bytes
//   - containers whose keys are 0..n-1 become []any, others map[string]any
//
// Struct fields are matched by their `helml` tag or field name.
func Unmarshal(data []byte, v any) error {
	dec := NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// ToAny converts v into plain Go values using the mapping described for
// Unmarshal.
func ToAny(v Value) any {
	switch v.Kind() {
	case KindBool:
		return v.AsBool()
	case KindInt:
		return v.AsInt()
	case KindFloat:
		return v.AsFloat()
	case KindString:
		return v.AsString()
	case KindContainer:
		c := v.Container()
		if c.IsList() {
			out := make([]any, 0, c.Len())
			for _, item := range c.All() {
				out = append(out, ToAny(item))
			}
			return out
		}
		out := make(map[string]any, c.Len())
		for key, item := range c.All() {
			out[key] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// setValue stores src into the value dst points to.
func setValue(dst any, src Value) error {
	if dst == nil {
		return errors.New("cannot unmarshal into a nil value")
	}

	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Ptr {
		return errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return errors.New("destination pointer is nil")
	}
	return unmarshalValue(val.Elem(), src)
}

// unmarshalValue recursively stores src into dst.
func unmarshalValue(dst reflect.Value, src Value) error {
	switch dst.Type() {
	case valueType:
		dst.Set(reflect.ValueOf(src))
		return nil
	case containerType:
		if src.IsNull() || src.IsContainer() {
			dst.Set(reflect.ValueOf(src.Container()))
			return nil
		}
		return unmarshalError(src, dst.Type())
	}

	if src.IsNull() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		return setInterface(dst, src)
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Array:
		return setArray(dst, src)
	case reflect.Map:
		return setMap(dst, src)
	case reflect.Ptr:
		return setPtr(dst, src)
	case reflect.String:
		if src.Kind() != KindString {
			return unmarshalError(src, dst.Type())
		}
		dst.SetString(src.AsString())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		if src.Kind() != KindBool {
			return unmarshalError(src, dst.Type())
		}
		dst.SetBool(src.AsBool())
		return nil
	default:
		return unmarshalError(src, dst.Type())
	}
}

func unmarshalError(src Value, t reflect.Type) error {
	return fmt.Errorf("cannot unmarshal %s into %s", src.Kind(), t)
}

// setInterface stores the plain Go form of src when it satisfies the
// interface type of dst.
func setInterface(dst reflect.Value, src Value) error {
	s := reflect.ValueOf(ToAny(src))
	if !s.Type().AssignableTo(dst.Type()) {
		return unmarshalError(src, dst.Type())
	}
	dst.Set(s)
	return nil
}

// setStruct fills the exported fields of dst from the keys of a container.
func setStruct(dst reflect.Value, src Value) error {
	if !src.IsContainer() {
		return unmarshalError(src, dst.Type())
	}
	c := src.Container()

	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		fieldName := getFieldName(field)
		if fieldName == "-" {
			continue
		}

		if item, ok := c.Get(fieldName); ok {
			if err := unmarshalValue(fieldValue, item); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

// getFieldName returns the field name to use for mapping, checking for struct tags.
func getFieldName(field reflect.StructField) string {
	name, _ := parseStructTag(field.Tag)
	if name == "" {
		return field.Name
	}
	return name
}

// listItems returns the elements of a list container. An empty map counts
// as an empty list.
func listItems(src Value, t reflect.Type) ([]Value, error) {
	if !src.IsContainer() {
		return nil, unmarshalError(src, t)
	}
	if c := src.Container(); c.Len() > 0 && !c.IsList() {
		return nil, fmt.Errorf("cannot unmarshal map into %s", t)
	}
	return src.Container().Values(), nil
}

// setSlice fills a slice from a list, or a byte slice from a string.
func setSlice(dst reflect.Value, src Value) error {
	if src.Kind() == KindString && dst.Type().Elem().Kind() == reflect.Uint8 {
		b := reflect.MakeSlice(dst.Type(), len(src.AsString()), len(src.AsString()))
		reflect.Copy(b, reflect.ValueOf([]byte(src.AsString())))
		dst.Set(b)
		return nil
	}

	items, err := listItems(src, dst.Type())
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := unmarshalValue(out.Index(i), item); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

// setArray fills an array from a list. Missing elements are zeroed and
// extra ones are an error.
func setArray(dst reflect.Value, src Value) error {
	items, err := listItems(src, dst.Type())
	if err != nil {
		return err
	}
	if len(items) > dst.Len() {
		return fmt.Errorf("list of %d elements overflows %s", len(items), dst.Type())
	}
	for i := 0; i < dst.Len(); i++ {
		if i >= len(items) {
			dst.Index(i).Set(reflect.Zero(dst.Type().Elem()))
			continue
		}
		if err := unmarshalValue(dst.Index(i), items[i]); err != nil {
			return fmt.Errorf("error setting array element %d: %w", i, err)
		}
	}
	return nil
}

// setMap fills a string-keyed map from a container. Lists are keyed by
// their indexes.
func setMap(dst reflect.Value, src Value) error {
	if !src.IsContainer() {
		return unmarshalError(src, dst.Type())
	}

	mapType := dst.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("maps with non-string keys are not supported")
	}

	out := reflect.MakeMapWithSize(mapType, src.Container().Len())
	for key, item := range src.Container().All() {
		elem := reflect.New(mapType.Elem()).Elem()
		if err := unmarshalValue(elem, item); err != nil {
			return fmt.Errorf("error setting map value for key %s: %w", key, err)
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), elem)
	}
	dst.Set(out)
	return nil
}

func setPtr(dst reflect.Value, src Value) error {
	ptr := reflect.New(dst.Type().Elem())
	if err := unmarshalValue(ptr.Elem(), src); err != nil {
		return err
	}
	dst.Set(ptr)
	return nil
}

// wholeNumber returns src as an int64 when it is an Int or a Float without
// a fractional part.
func wholeNumber(src Value, t reflect.Type) (int64, float64, error) {
	switch src.Kind() {
	case KindInt:
		return src.AsInt(), float64(src.AsInt()), nil
	case KindFloat:
		f := src.AsFloat()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, 0, fmt.Errorf("cannot unmarshal float %g into %s", f, t)
		}
		return int64(f), f, nil
	}
	return 0, 0, unmarshalError(src, t)
}

func setInt(dst reflect.Value, src Value) error {
	i, f, err := wholeNumber(src, dst.Type())
	if err != nil {
		return err
	}
	if src.Kind() == KindFloat && (f < math.MinInt64 || f >= -math.MinInt64) {
		return fmt.Errorf("value %s overflows %s", src, dst.Type())
	}
	if dst.OverflowInt(i) {
		return fmt.Errorf("value %s overflows %s", src, dst.Type())
	}
	dst.SetInt(i)
	return nil
}

func setUint(dst reflect.Value, src Value) error {
	i, f, err := wholeNumber(src, dst.Type())
	if err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("cannot unmarshal negative value %s into %s", src, dst.Type())
	}
	u := uint64(i)
	if src.Kind() == KindFloat {
		if f >= math.MaxUint64+1.0 {
			return fmt.Errorf("value %s overflows %s", src, dst.Type())
		}
		u = uint64(f)
	}
	if dst.OverflowUint(u) {
		return fmt.Errorf("value %s overflows %s", src, dst.Type())
	}
	dst.SetUint(u)
	return nil
}

func setFloat(dst reflect.Value, src Value) error {
	var f float64
	switch src.Kind() {
	case KindInt:
		f = float64(src.AsInt())
	case KindFloat:
		f = src.AsFloat()
	default:
		return unmarshalError(src, dst.Type())
	}
	if dst.OverflowFloat(f) {
		return fmt.Errorf("value %s overflows %s", src, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}
