package coldwave

import (
	"testing"

	"github.com/coldwavehq/go-coldwave/internal/kind"
	"github.com/coldwavehq/go-coldwave/internal/wire"
)

func TestFromColumnMetadataScalar(t *testing.T) {
	lt, err := FromColumnMetadata(wire.ColumnMetadata{Type: "FIXED", Scale: 2, Precision: 10})
	if err != nil {
		t.Fatalf("FromColumnMetadata: %v", err)
	}
	if lt.Kind != kind.Fixed || lt.Scale != 2 || lt.Precision != 10 {
		t.Fatalf("unexpected LogicalType: %+v", lt)
	}
}

func TestFromColumnMetadataUnsupportedType(t *testing.T) {
	_, err := FromColumnMetadata(wire.ColumnMetadata{Type: "GEOGRAPHY"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized wire type")
	}
}

// Scenario 5: Nested Map(VARCHAR, OBJECT(prefix, postfix)).
func TestFromColumnMetadataNestedMapOfObject(t *testing.T) {
	col := wire.ColumnMetadata{
		Type: "MAP",
		Fields: []wire.FieldMetadata{
			{Name: "key", Type: "TEXT"},
			{
				Name: "value", Type: "OBJECT",
				Fields: []wire.FieldMetadata{
					{Name: "prefix", Type: "TEXT"},
					{Name: "postfix", Type: "TEXT"},
				},
			},
		},
	}
	lt, err := FromColumnMetadata(col)
	if err != nil {
		t.Fatalf("FromColumnMetadata: %v", err)
	}
	keyType, valueType, err := lt.KeyValueOf()
	if err != nil {
		t.Fatalf("KeyValueOf: %v", err)
	}
	if keyType.Kind != kind.Text {
		t.Fatalf("unexpected key kind: %v", keyType.Kind)
	}
	if valueType.Kind != kind.StructuredObject || len(valueType.Fields) != 2 {
		t.Fatalf("unexpected value type: %+v", valueType)
	}
}

func TestLogicalTypeArrayRequiresExactlyOneField(t *testing.T) {
	col := wire.ColumnMetadata{
		Type: "ARRAY",
		Fields: []wire.FieldMetadata{
			{Type: "TEXT"},
			{Type: "TEXT"},
		},
	}
	if _, err := FromColumnMetadata(col); err == nil {
		t.Fatal("expected an error for ARRAY metadata with more than one field")
	}
}

func TestElementOfAndKeyValueOfFailOnWrongKind(t *testing.T) {
	lt := LogicalType{Kind: kind.Text}
	_, err := lt.ElementOf()
	assertErrIsF(t, err, ErrNotAContainer, "ElementOf on a scalar type")
	_, _, err = lt.KeyValueOf()
	assertErrIsF(t, err, ErrNotAContainer, "KeyValueOf on a scalar type")
}
