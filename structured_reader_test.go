package coldwave

import (
	"context"
	"testing"

	"github.com/coldwavehq/go-coldwave/internal/kind"
)

func mustParseJSON(t *testing.T, s string) JSONValue {
	t.Helper()
	v, err := ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON(%q): %v", s, err)
	}
	return v
}

// Scenario 3: Structured object, PROPERTIES_NAMES (generic, no Target).
func TestDecodeStructuredJSONGenericObject(t *testing.T) {
	lt := LogicalType{
		Kind: kind.StructuredObject,
		Fields: []NamedType{
			{Name: "city", Type: LogicalType{Kind: kind.Text}},
			{Name: "state", Type: LogicalType{Kind: kind.Text}},
			{Name: "zip", Type: LogicalType{Kind: kind.Text}},
		},
	}
	v := mustParseJSON(t, `{"city":"San Mateo","state":"CA"}`)
	decoded, err := DecodeStructuredJSON(context.Background(), v, lt, nil, nil)
	if err != nil {
		t.Fatalf("DecodeStructuredJSON: %v", err)
	}
	obj, ok := decoded.(StructObject)
	if !ok {
		t.Fatalf("expected StructObject, got %T", decoded)
	}
	city, ok := obj.Get("city")
	if !ok || city != "San Mateo" {
		t.Fatalf("unexpected city field: %v, %v", city, ok)
	}
	if _, ok := obj.Get("zip"); ok {
		t.Fatal("zip was not present in the source JSON and should be absent")
	}
}

// Scenario 5: Nested Map(VARCHAR, OBJECT(prefix, postfix)).
func TestDecodeStructuredJSONNestedMapOfObject(t *testing.T) {
	lt := LogicalType{
		Kind: kind.StructuredMap,
		Key:  &LogicalType{Kind: kind.Text},
		Value: &LogicalType{
			Kind: kind.StructuredObject,
			Fields: []NamedType{
				{Name: "prefix", Type: LogicalType{Kind: kind.Text}},
				{Name: "postfix", Type: LogicalType{Kind: kind.Text}},
			},
		},
	}
	v := mustParseJSON(t, `{"Warsaw":{"prefix":"01","postfix":"234"}}`)
	decoded, err := DecodeStructuredJSON(context.Background(), v, lt, nil, nil)
	if err != nil {
		t.Fatalf("DecodeStructuredJSON: %v", err)
	}
	m, ok := decoded.(StructMap)
	if !ok || len(m) != 1 {
		t.Fatalf("expected a 1-entry StructMap, got %#v", decoded)
	}
	if m[0].Key != "Warsaw" {
		t.Fatalf("unexpected key: %v", m[0].Key)
	}
	obj, ok := m[0].Value.(StructObject)
	if !ok {
		t.Fatalf("expected StructObject value, got %T", m[0].Value)
	}
	prefix, _ := obj.Get("prefix")
	postfix, _ := obj.Get("postfix")
	if prefix != "01" || postfix != "234" {
		t.Fatalf("unexpected nested fields: prefix=%v postfix=%v", prefix, postfix)
	}
}

func TestDecodeStructuredJSONArray(t *testing.T) {
	lt := LogicalType{Kind: kind.StructuredArray, Element: &LogicalType{Kind: kind.Fixed, Scale: 0}}
	v := mustParseJSON(t, `[1,2,3]`)
	decoded, err := DecodeStructuredJSON(context.Background(), v, lt, nil, nil)
	if err != nil {
		t.Fatalf("DecodeStructuredJSON: %v", err)
	}
	arr, ok := decoded.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected a 3-element slice, got %#v", decoded)
	}
}

func TestDecodeStructuredJSONRejectsObjectForArrayShape(t *testing.T) {
	lt := LogicalType{Kind: kind.StructuredArray, Element: &LogicalType{Kind: kind.Text}}
	v := mustParseJSON(t, `{}`)
	if _, err := DecodeStructuredJSON(context.Background(), v, lt, nil, nil); err == nil {
		t.Fatal("expected an error binding a JSON object where an array was declared")
	}
}
