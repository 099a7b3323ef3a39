package coldwave

import (
	"context"
	"strings"
	"time"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
)

// FieldDescriptor declares one field of a host type the Object Binder can
// bind into: its name, its declared logical type (used to drive
// recursion at this field), and an optional per-field coercion and
// nested Target for further structured recursion.
type FieldDescriptor struct {
	Name   string
	Type   LogicalType
	Target *Target
	Coerce CoerceFunc
}

// ConstructorDescriptor is one candidate for the CONSTRUCTOR binder
// strategy: a positional parameter list plus the factory that builds the
// host object from bound arguments.
type ConstructorDescriptor struct {
	ParamTypes []LogicalType
	ParamTargets []*Target
	New        func(args []any) (any, error)
}

// TypeDescriptor is the host-language-agnostic shape the Object Binder
// needs to instantiate a user type — a factory callback plus declared
// field/constructor metadata, produced by whatever mechanism is
// idiomatic for the caller (code generation, manual registration, or
// reflection outside this package). The binder itself never reflects
// over arbitrary host types.
type TypeDescriptor struct {
	Fields       []FieldDescriptor
	NewFromNames func(values map[string]any) (any, error)
	NewFromOrder func(values []any) (any, error)
	Constructors []ConstructorDescriptor
}

// BindObject instantiates a host object from a structured object's
// ordered (name, value) JSON pairs, using one of three strategies. The
// object is always produced in one shot; partially-initialized objects
// are never observable.
func BindObject(ctx context.Context, pairs []JSONPair, sourceType LogicalType, desc TypeDescriptor, strategy decodeopts.BinderStrategy, loc *time.Location) (any, error) {
	switch strategy {
	case decodeopts.PropertiesOrder:
		return bindByOrder(ctx, pairs, desc, loc)
	case decodeopts.Constructor:
		return bindByConstructor(ctx, pairs, desc, loc)
	default:
		return bindByNames(ctx, pairs, desc, loc)
	}
}

func bindByNames(ctx context.Context, pairs []JSONPair, desc TypeDescriptor, loc *time.Location) (any, error) {
	caseInsensitive := decodeopts.CaseInsensitiveFieldMatch(ctx)
	values := make(map[string]any, len(desc.Fields))
	for _, f := range desc.Fields {
		values[f.Name] = nil
	}
	for _, pair := range pairs {
		field, ok := findFieldByName(desc.Fields, pair.Key, caseInsensitive)
		if !ok {
			continue // unmatched JSON pairs are ignored
		}
		v, err := bindLeaf(ctx, pair.Value, field, loc)
		if err != nil {
			return nil, err
		}
		values[field.Name] = v
	}
	return desc.NewFromNames(values)
}

func findFieldByName(fields []FieldDescriptor, name string, caseInsensitive bool) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Name == name || (caseInsensitive && strings.EqualFold(f.Name, name)) {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

func bindByOrder(ctx context.Context, pairs []JSONPair, desc TypeDescriptor, loc *time.Location) (any, error) {
	if len(pairs) != len(desc.Fields) {
		return nil, &DecodeError{Kind: ErrArityMismatch, Cause: errArityMismatch}
	}
	values := make([]any, len(desc.Fields))
	for i, field := range desc.Fields {
		v, err := bindLeaf(ctx, pairs[i].Value, field, loc)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return desc.NewFromOrder(values)
}

func bindByConstructor(ctx context.Context, pairs []JSONPair, desc TypeDescriptor, loc *time.Location) (any, error) {
	var match *ConstructorDescriptor
	for i := range desc.Constructors {
		if len(desc.Constructors[i].ParamTypes) == len(pairs) {
			if match != nil {
				return nil, &DecodeError{Kind: ErrNoMatchingConstructor, Cause: errAmbiguousConstructor}
			}
			match = &desc.Constructors[i]
		}
	}
	if match == nil {
		return nil, &DecodeError{Kind: ErrNoMatchingConstructor, Cause: errNoConstructor}
	}
	args := make([]any, len(pairs))
	for i, pair := range pairs {
		var target *Target
		if match.ParamTargets != nil {
			target = match.ParamTargets[i]
		}
		v, err := DecodeStructuredJSON(ctx, pair.Value, match.ParamTypes[i], target, loc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return match.New(args)
}

func bindLeaf(ctx context.Context, v JSONValue, field FieldDescriptor, loc *time.Location) (any, error) {
	decoded, err := DecodeStructuredJSON(ctx, v, field.Type, field.Target, loc)
	if err != nil {
		return nil, err
	}
	if field.Coerce != nil {
		return field.Coerce(decoded)
	}
	return decoded, nil
}

var (
	errArityMismatch        = errorString("PROPERTIES_ORDER bind requires exactly one JSON pair per declared field")
	errAmbiguousConstructor = errorString("more than one constructor matches the JSON pair count")
	errNoConstructor        = errorString("no constructor matches the JSON pair count")
)
