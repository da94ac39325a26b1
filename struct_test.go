package helml

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Doc struct {
	FooOne struct {
		FooString  string `helml:"foo_string" json:"foo_string"`
		BarString  string `helml:"bar_string" json:"bar_string"`
		BazInt     int    `helml:"baz_int" json:"baz_int"`
		QuxFloat   float64
		QuuxBool   bool `helml:"quux_bool" json:"quux_bool"`
		CorgeBool  bool `helml:"corge_bool" json:"corge_bool"`
		GraultNull any  `helml:"grault_null" json:"grault_null"`
		FooStrings struct {
			BarEmpty       string `helml:"bar_empty" json:"bar_empty"`
			BazSpaces      string `helml:"baz_spaces" json:"baz_spaces"`
			CorgeUnicode   string `helml:"corge_unicode" json:"corge_unicode"`
			GraultNewlines string `helml:"grault_newlines" json:"grault_newlines"`
			QuxEscaped     string `helml:"qux_escaped" json:"qux_escaped"`
			QuuxPath       string `helml:"quux_path" json:"quux_path"`
			WaldoBase64    string `helml:"waldo_base64" json:"waldo_base64"`
			FredHex        string `helml:"fred_hex" json:"fred_hex"`
			PlughBase85    string `helml:"plugh_base85" json:"plugh_base85"`
		} `helml:"foo_strings" json:"foo_strings"`
		FooIntegers struct {
			BarPositive int64  `helml:"bar_positive" json:"bar_positive"`
			BazNegative int32  `helml:"baz_negative" json:"baz_negative"`
			QuxZero     uint   `helml:"qux_zero" json:"qux_zero"`
			WaldoLarge  uint64 `helml:"waldo_large" json:"waldo_large"`
		} `helml:"foo_integers" json:"foo_integers"`
		FooFloats struct {
			BarSimple         float64 `helml:"bar_simple" json:"bar_simple"`
			BazNegative       float32 `helml:"baz_negative" json:"baz_negative"`
			CorgeZero         float64 `helml:"corge_zero" json:"corge_zero"`
			QuxScientific     float64 `helml:"qux_scientific" json:"qux_scientific"`
			QuuxScientificNeg float64 `helml:"quux_scientific_neg" json:"quux_scientific_neg"`
		} `helml:"foo_floats" json:"foo_floats"`
	} `helml:"foo_one" json:"foo_one"`

	FooTwo struct {
		BarList      []any          `helml:"bar_list" json:"bar_list"`
		BazEmptyDict map[string]any `helml:"baz_empty_dict" json:"baz_empty_dict"`
		QuxNested    struct {
			Deep map[string]string `helml:"deep" json:"deep"`
		} `helml:"qux_nested" json:"qux_nested"`
	} `helml:"foo_two" json:"foo_two"`

	FooFinal map[string]any `helml:"foo_final" json:"foo_final"`
}

func TestStruct(t *testing.T) {
	// Scan HELML to struct.
	var resHelml Doc
	b, err := os.ReadFile("testdata/mixed.helml")
	require.NoError(t, err)
	require.NoError(t, Unmarshal(b, &resHelml))

	// Convert it to JSON and back to struct so that the int/float
	// conversions are handled correctly.
	jsonConverted, err := json.Marshal(resHelml)
	require.NoError(t, err)
	var resJSONConverted Doc
	require.NoError(t, json.Unmarshal(jsonConverted, &resJSONConverted))

	// Read JSON file.
	var resJSON Doc
	b, err = os.ReadFile("testdata/mixed.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &resJSON))

	assert.Equal(t, resJSON, resJSONConverted, "testdata/mixed.helml and testdata/mixed.json should be deeply equal")

	// The untagged field is matched by its Go name only.
	assert.Zero(t, resHelml.FooOne.QuxFloat)

	// Marshal the struct and read it back.
	out, err := Marshal(resHelml)
	require.NoError(t, err)
	var again Doc
	require.NoError(t, Unmarshal(out, &again))
	assert.Equal(t, resHelml, again)
}

// TestStructTags tests the struct tag functionality including renaming, omitempty, and skipping.
func TestStructTags(t *testing.T) {
	t.Run("field_renaming", func(t *testing.T) {
		type TestStruct struct {
			FieldName    string `helml:"custom_name"`
			AnotherField int    `helml:"another_custom"`
		}

		marshalled, err := Marshal(TestStruct{FieldName: "value1", AnotherField: 42})
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.Equal(t, "custom_name: value1\nanother_custom:  42\n", helmlStr)
		assert.NotContains(t, helmlStr, "FieldName")
		assert.NotContains(t, helmlStr, "AnotherField")
	})

	t.Run("omitempty_with_zero_values", func(t *testing.T) {
		type TestStruct struct {
			IncludedString string `helml:"included_string"`
			OmittedString  string `helml:"omitted_string,omitempty"`
			OmittedInt     int    `helml:"omitted_int,omitempty"`
			OmittedBool    bool   `helml:"omitted_bool,omitempty"`
			IncludedInt    int    `helml:"included_int"`
			IncludedBool   bool   `helml:"included_bool"`
		}

		data := TestStruct{
			IncludedString: "present",
			OmittedString:  "",    // empty - should be omitted
			OmittedInt:     0,     // zero - should be omitted
			OmittedBool:    false, // false - should be omitted
			IncludedInt:    0,     // zero but no omitempty - should be included
			IncludedBool:   false, // false but no omitempty - should be included
		}

		marshalled, err := Marshal(data)
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.Contains(t, helmlStr, "included_string: present")
		assert.Contains(t, helmlStr, "included_int:  0")
		assert.Contains(t, helmlStr, "included_bool:  F")
		assert.NotContains(t, helmlStr, "omitted_string")
		assert.NotContains(t, helmlStr, "omitted_int")
		assert.NotContains(t, helmlStr, "omitted_bool")
	})

	t.Run("omitempty_with_non_zero_values", func(t *testing.T) {
		type TestStruct struct {
			IncludedString string `helml:"included_string,omitempty"`
			IncludedInt    int    `helml:"included_int,omitempty"`
			IncludedBool   bool   `helml:"included_bool,omitempty"`
		}

		marshalled, err := Marshal(TestStruct{IncludedString: "present", IncludedInt: 42, IncludedBool: true})
		require.NoError(t, err)
		assert.Equal(t, "included_string: present\nincluded_int:  42\nincluded_bool:  T\n", string(marshalled))
	})

	t.Run("skip_field_with_dash", func(t *testing.T) {
		type TestStruct struct {
			IncludedField string `helml:"included"`
			SkippedField  string `helml:"-"`
			AnotherField  int    `helml:"another"`
		}

		data := TestStruct{
			IncludedField: "value1",
			SkippedField:  "should not appear",
			AnotherField:  42,
		}

		marshalled, err := Marshal(data)
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.Contains(t, helmlStr, "included")
		assert.Contains(t, helmlStr, "another")
		assert.NotContains(t, helmlStr, "SkippedField")
		assert.NotContains(t, helmlStr, "should not appear")

		var back TestStruct
		require.NoError(t, Unmarshal([]byte("included: x\nSkippedField: y\n-: z"), &back))
		assert.Equal(t, TestStruct{IncludedField: "x"}, back)
	})

	t.Run("omitempty_with_slices_and_maps", func(t *testing.T) {
		type TestStruct struct {
			EmptySlice    []string          `helml:"empty_slice,omitempty"`
			NonEmptySlice []string          `helml:"non_empty_slice,omitempty"`
			EmptyMap      map[string]string `helml:"empty_map,omitempty"`
			NonEmptyMap   map[string]string `helml:"non_empty_map,omitempty"`
		}

		data := TestStruct{
			EmptySlice:    []string{},
			NonEmptySlice: []string{"item1", "item2"},
			EmptyMap:      map[string]string{},
			NonEmptyMap:   map[string]string{"key": "value"},
		}

		marshalled, err := Marshal(data)
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.NotRegexp(t, `(^|\n)\s*empty_slice`, helmlStr)
		assert.NotRegexp(t, `(^|\n)\s*empty_map`, helmlStr)
		assert.Contains(t, helmlStr, "non_empty_slice")
		assert.Contains(t, helmlStr, "non_empty_map")

		var back TestStruct
		require.NoError(t, Unmarshal(marshalled, &back))
		assert.Equal(t, data.NonEmptySlice, back.NonEmptySlice)
		assert.Equal(t, data.NonEmptyMap, back.NonEmptyMap)
	})

	t.Run("omitempty_with_pointers", func(t *testing.T) {
		type TestStruct struct {
			NilPtr       *string `helml:"nil_ptr,omitempty"`
			NonNilPtr    *string `helml:"non_nil_ptr,omitempty"`
			NilPtrNoOmit *string `helml:"nil_ptr_no_omit"`
		}

		strValue := "value"
		data := TestStruct{
			NilPtr:       nil,
			NonNilPtr:    &strValue,
			NilPtrNoOmit: nil,
		}

		marshalled, err := Marshal(data)
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.NotRegexp(t, `(^|\n)\s*nil_ptr:`, helmlStr)
		assert.Contains(t, helmlStr, "non_nil_ptr: value")
		assert.Contains(t, helmlStr, "nil_ptr_no_omit:  N")

		var back TestStruct
		require.NoError(t, Unmarshal(marshalled, &back))
		require.NotNil(t, back.NonNilPtr)
		assert.Equal(t, "value", *back.NonNilPtr)
		assert.Nil(t, back.NilPtrNoOmit)
	})

	t.Run("omitempty_with_nested_structs", func(t *testing.T) {
		type Nested struct {
			Value string `helml:"value"`
		}
		type TestStruct struct {
			EmptyNested    Nested `helml:"empty_nested,omitempty"`
			NonEmptyNested Nested `helml:"non_empty_nested,omitempty"`
		}

		data := TestStruct{
			EmptyNested:    Nested{Value: ""},
			NonEmptyNested: Nested{Value: "present"},
		}

		marshalled, err := Marshal(data)
		require.NoError(t, err)

		helmlStr := string(marshalled)
		assert.NotRegexp(t, `(^|\n)\s*empty_nested`, helmlStr)
		assert.Contains(t, helmlStr, "non_empty_nested")
		assert.Contains(t, helmlStr, "present")
	})

	t.Run("binary_field", func(t *testing.T) {
		type TestStruct struct {
			Blob []byte `helml:"blob"`
		}

		data := TestStruct{Blob: []byte{0x00, 0xff, 0x10, '~'}}
		marshalled, err := Marshal(data)
		require.NoError(t, err)
		assert.NotContains(t, string(marshalled), "~")

		var back TestStruct
		require.NoError(t, Unmarshal(marshalled, &back))
		assert.Equal(t, data, back)
	})

	t.Run("unmarshal_renamed", func(t *testing.T) {
		type User struct {
			FirstName string   `helml:"first_name"`
			Age       uint8    `helml:"age"`
			Score     *float64 `helml:"score"`
			Tags      []string `helml:"tags"`
		}

		var user User
		doc := "first_name: Alice\nage:  30\nscore:  9.5\ntags\n :--: a\n :--: b"
		require.NoError(t, Unmarshal([]byte(doc), &user))
		assert.Equal(t, "Alice", user.FirstName)
		assert.Equal(t, uint8(30), user.Age)
		require.NotNil(t, user.Score)
		assert.Equal(t, 9.5, *user.Score)
		assert.Equal(t, []string{"a", "b"}, user.Tags)

		assert.Error(t, Unmarshal([]byte("age:  300"), &user))
		assert.Error(t, Unmarshal([]byte("first_name:  1"), &user))
	})
}
