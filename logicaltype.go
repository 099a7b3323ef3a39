package coldwave

import (
	"fmt"

	"github.com/coldwavehq/go-coldwave/internal/kind"
	"github.com/coldwavehq/go-coldwave/internal/wire"
)

// LogicalType is a closed tagged variant describing one of the warehouse's
// SQL types: a scalar kind plus whatever parameters that kind needs
// (scale/precision for Fixed, scale for the temporal kinds, the nested
// shape for the structured kinds).
type LogicalType struct {
	Kind      kind.Kind
	Scale     int
	Precision int

	// Fields is populated for StructuredObject: the declared, ordered
	// field list as delivered by the chunk header.
	Fields []NamedType

	// Element is populated for StructuredArray.
	Element *LogicalType

	// Key and Value are populated for StructuredMap.
	Key   *LogicalType
	Value *LogicalType
}

// NamedType pairs a structured object's field name with its declared type.
type NamedType struct {
	Name string
	Type LogicalType
}

// FromColumnMetadata resolves a wire ColumnMetadata into a LogicalType,
// recursing into Fields for structured columns. The chunk header is the
// only source of LogicalType construction; there is no runtime mutation
// afterward.
func FromColumnMetadata(col wire.ColumnMetadata) (LogicalType, error) {
	return fromField(col.AsField())
}

func fromField(f wire.FieldMetadata) (LogicalType, error) {
	k := kind.FromWireName(f.Type)
	if k == kind.Unsupported {
		return LogicalType{}, fmt.Errorf("coldwave: unsupported wire type %q", f.Type)
	}

	lt := LogicalType{Kind: k, Scale: f.Scale, Precision: f.Precision}

	switch k {
	case kind.StructuredObject:
		fields := make([]NamedType, 0, len(f.Fields))
		for _, sub := range f.Fields {
			subType, err := fromField(sub)
			if err != nil {
				return LogicalType{}, err
			}
			fields = append(fields, NamedType{Name: sub.Name, Type: subType})
		}
		lt.Fields = fields

	case kind.StructuredArray:
		if len(f.Fields) != 1 {
			return LogicalType{}, fmt.Errorf("coldwave: ARRAY field metadata must carry exactly one element field, got %d", len(f.Fields))
		}
		elem, err := fromField(f.Fields[0])
		if err != nil {
			return LogicalType{}, err
		}
		lt.Element = &elem

	case kind.StructuredMap:
		if len(f.Fields) != 2 {
			return LogicalType{}, fmt.Errorf("coldwave: MAP field metadata must carry exactly two fields (key, value), got %d", len(f.Fields))
		}
		keyType, err := fromField(f.Fields[0])
		if err != nil {
			return LogicalType{}, err
		}
		valueType, err := fromField(f.Fields[1])
		if err != nil {
			return LogicalType{}, err
		}
		lt.Key = &keyType
		lt.Value = &valueType
	}

	return lt, nil
}

// IsFixedInteger reports whether t is Fixed with scale 0.
func (t LogicalType) IsFixedInteger() bool {
	return kind.IsFixedInteger(t.Scale, t.Kind)
}

// IsTemporal reports whether t is one of Date/Time/TimestampNtz/Ltz/Tz.
func (t LogicalType) IsTemporal() bool {
	return kind.IsTemporal(t.Kind)
}

// IsContainer reports whether t is one of the structured kinds.
func (t LogicalType) IsContainer() bool {
	return kind.IsContainer(t.Kind)
}

// ElementOf returns the element type of a StructuredArray, failing with
// ErrNotAContainer otherwise.
func (t LogicalType) ElementOf() (LogicalType, error) {
	if t.Kind != kind.StructuredArray || t.Element == nil {
		return LogicalType{}, ErrNotAContainer
	}
	return *t.Element, nil
}

// KeyValueOf returns the key and value types of a StructuredMap, failing
// with ErrNotAContainer otherwise.
func (t LogicalType) KeyValueOf() (key, value LogicalType, err error) {
	if t.Kind != kind.StructuredMap || t.Key == nil || t.Value == nil {
		return LogicalType{}, LogicalType{}, ErrNotAContainer
	}
	return *t.Key, *t.Value, nil
}

// Field looks up a StructuredObject's declared field by name, reporting
// whether it exists.
func (t LogicalType) Field(name string) (NamedType, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return NamedType{}, false
}
