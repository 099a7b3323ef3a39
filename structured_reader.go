package coldwave

import (
	"context"
	"time"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
)

// StructField is one decoded (name, value) pair of a structured object
// read without a caller-supplied type descriptor. Order matches the
// source JSON object.
type StructField struct {
	Name  string
	Value any
}

// StructObject is the generic materialization of a StructuredObject when
// no TypeDescriptor was given to bind it into a concrete host type.
type StructObject []StructField

// Get looks up a field by name (exact match); callers wanting the
// case-insensitive PROPERTIES_NAMES semantics should use BindObject.
func (o StructObject) Get(name string) (any, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MapEntry is one decoded key/value pair of a StructuredMap, in source
// order.
type MapEntry struct {
	Key   any
	Value any
}

// StructMap is the generic materialization of a StructuredMap: an
// ordered sequence of entries, since map keys need not be strings
// (VARCHAR, integer, and long key types are all permitted).
type StructMap []MapEntry

// CoerceFunc adjusts a decoded leaf value into the shape a caller's host
// field actually wants — e.g. parsing a decoded string into a UUID.
type CoerceFunc func(decoded any) (any, error)

// Target steers the Structured Reader's recursion. A nil Target (or a
// nil sub-target) means "produce the generic representation" — StructObject,
// []any, or StructMap — rather than binding into a caller type. Supplying
// Object turns a StructuredObject leaf into a call to the Object Binder.
type Target struct {
	Object *TypeDescriptor
	Element *Target
	Key     *Target
	Value   *Target
	Coerce  CoerceFunc
}

// DecodeStructuredJSON is the Structured Reader (component F)'s entry
// point for the JSON path: given a parsed JsonValue tree, a LogicalType
// describing the column's declared shape, and an optional Target steering
// how containers materialize, produce a native Go value.
func DecodeStructuredJSON(ctx context.Context, v JSONValue, lt LogicalType, target *Target, loc *time.Location) (any, error) {
	if v.Kind == JSONNull {
		return nil, nil
	}
	switch lt.Kind {
	case kind.StructuredArray:
		if v.Kind != JSONArray {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errExpectedJSONArray}
		}
		elemType, err := lt.ElementOf()
		if err != nil {
			return nil, err
		}
		var elemTarget *Target
		if target != nil {
			elemTarget = target.Element
		}
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			dv, err := DecodeStructuredJSON(ctx, e, elemType, elemTarget, loc)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil

	case kind.StructuredMap:
		if v.Kind != JSONObject {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errExpectedJSONObject}
		}
		keyType, valueType, err := lt.KeyValueOf()
		if err != nil {
			return nil, err
		}
		var keyTarget, valueTarget *Target
		if target != nil {
			keyTarget, valueTarget = target.Key, target.Value
		}
		out := make(StructMap, 0, len(v.Pairs))
		for _, pair := range v.Pairs {
			k, err := decodeMapKey(pair.Key, keyType)
			if err != nil {
				return nil, err
			}
			if keyTarget != nil && keyTarget.Coerce != nil {
				k, err = keyTarget.Coerce(k)
				if err != nil {
					return nil, err
				}
			}
			val, err := DecodeStructuredJSON(ctx, pair.Value, valueType, valueTarget, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, MapEntry{Key: k, Value: val})
		}
		return out, nil

	case kind.StructuredObject:
		if v.Kind != JSONObject {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errExpectedJSONObject}
		}
		strategy := decodeopts.DefaultBinderStrategy(ctx)
		if target != nil && target.Object != nil {
			return BindObject(ctx, v.Pairs, lt, *target.Object, strategy, loc)
		}
		return decodeGenericStructObject(ctx, v.Pairs, lt, loc)

	default:
		val, err := decodeScalarFromJSONValue(v, lt, loc)
		if err != nil {
			return nil, err
		}
		if target != nil && target.Coerce != nil {
			return target.Coerce(val)
		}
		return val, nil
	}
}

func decodeGenericStructObject(ctx context.Context, pairs []JSONPair, lt LogicalType, loc *time.Location) (StructObject, error) {
	out := make(StructObject, 0, len(pairs))
	for _, pair := range pairs {
		fieldType := LogicalType{Kind: kind.Text}
		if ft, ok := lt.Field(pair.Key); ok {
			fieldType = ft.Type
		}
		v, err := DecodeStructuredJSON(ctx, pair.Value, fieldType, nil, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, StructField{Name: pair.Key, Value: v})
	}
	return out, nil
}

// decodeStructured is the entry point used by the Arrow path, where a
// structured column currently arrives as a JSON-text string (per the
// warehouse's present wire format — nested Arrow structures are a future
// physical encoding, not yet implemented here).
func decodeStructured(ctx context.Context, v JSONValue, lt LogicalType, loc *time.Location) (any, error) {
	return DecodeStructuredJSON(ctx, v, lt, nil, loc)
}

func decodeMapKey(key string, keyType LogicalType) (any, error) {
	switch keyType.Kind {
	case kind.Text:
		return key, nil
	case kind.Fixed:
		return decodeScalarFromJSONValue(JSONValue{Kind: JSONNumber, Number: key}, keyType, nil)
	default:
		return key, nil
	}
}

// decodeJSONScalarOrStructured is the Chunk Iterator's JSON-path entry
// point for a single cell. Scalar cells arrive as a JSON string (or
// null) carrying the server's pre-stringified form; structured cells
// arrive either as a JSON string containing embedded JSON text, or as an
// already-nested JSON value, and are re-tokenized through the Structured
// Reader when necessary.
func decodeJSONScalarOrStructured(ctx context.Context, cell JSONValue, lt LogicalType, loc *time.Location) (any, error) {
	if cell.Kind == JSONNull {
		return nil, nil
	}
	if !lt.IsContainer() {
		if cell.Kind != JSONString {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errExpectedJSONString}
		}
		return decodeScalarFromText(cell.Str, lt, loc)
	}
	if !decodeopts.StructuredTypesEnabled(ctx) {
		return rawStructuredText(cell)
	}
	inner := cell
	if cell.Kind == JSONString {
		parsed, err := ParseJSON([]byte(cell.Str))
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		inner = parsed
	}
	return DecodeStructuredJSON(ctx, inner, lt, nil, loc)
}

// rawStructuredText returns a structured cell's raw JSON text unchanged,
// per the structured_types.enabled=false fallback. A cell that arrives as
// already-nested JSON rather than a JSON string is rejected with
// ErrInvalidEncoding.
func rawStructuredText(cell JSONValue) (any, error) {
	if cell.Kind == JSONString {
		return cell.Str, nil
	}
	return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errExpectedJSONString}
}

var (
	errExpectedJSONArray  = errorString("expected a JSON array for a structured array column")
	errExpectedJSONObject = errorString("expected a JSON object for a structured object or map column")
	errExpectedJSONString = errorString("expected a JSON string cell")
)
