// Package decodeopts threads decode-time configuration through a
// context.Context, the way session-scoped options outlive any single
// chunk or cell.
package decodeopts

import "context"

type contextKey string

const (
	ctxStructuredTypes contextKey = "STRUCTURED_TYPES_ENABLED"
	ctxBinderStrategy  contextKey = "DEFAULT_BINDER_STRATEGY"
	ctxDecimalPolicy   contextKey = "DECIMAL_WIDENING_POLICY"
	ctxCaseInsensitive contextKey = "CASE_INSENSITIVE_FIELD_MATCH"
	ctxHigherPrecision contextKey = "HIGHER_PRECISION_ENABLED"
	ctxUtf8Validation  contextKey = "UTF8_VALIDATION_ENABLED"
	ctxTimestampOption contextKey = "TIMESTAMP_OPTION"
)

// TimestampOption selects the Arrow timestamp unit chunkbatches normalizes
// TimestampNtz/Ltz/Tz columns to.
type TimestampOption int

const (
	// UseNanosecondTimestamp is the default: arrow.Timestamp at nanosecond
	// resolution. A value outside the range a nanosecond arrow.Timestamp
	// can hold makes normalization fail with ErrOverflow.
	UseNanosecondTimestamp TimestampOption = iota
	UseMicrosecondTimestamp
	UseMillisecondTimestamp
	UseSecondTimestamp
	// UseOriginalTimestamp leaves the column in its native struct/int64
	// encoding, unnormalized.
	UseOriginalTimestamp
)

// WithTimestampOption sets the Arrow timestamp unit chunkbatches
// normalizes to.
func WithTimestampOption(ctx context.Context, opt TimestampOption) context.Context {
	return context.WithValue(ctx, ctxTimestampOption, opt)
}

// TimestampOptionFrom returns the configured timestamp option, defaulting
// to UseNanosecondTimestamp when unset.
func TimestampOptionFrom(ctx context.Context) TimestampOption {
	v, ok := ctx.Value(ctxTimestampOption).(TimestampOption)
	if !ok {
		return UseNanosecondTimestamp
	}
	return v
}

// BinderStrategy selects how a structured object's fields are matched
// against a caller-supplied target type.
type BinderStrategy int

const (
	// PropertiesNames matches JSON pairs to target fields by name.
	PropertiesNames BinderStrategy = iota
	// PropertiesOrder binds JSON pairs to target fields positionally,
	// requiring an exact arity match.
	PropertiesOrder
	// Constructor binds JSON pairs positionally to the unique constructor
	// whose arity matches the pair count.
	Constructor
)

// DecimalWideningPolicy controls whether a Fixed value may fall back to a
// lossy double when it cannot be represented exactly in the requested
// native width.
type DecimalWideningPolicy int

const (
	// LosslessOnly fails rather than lose precision.
	LosslessOnly DecimalWideningPolicy = iota
	// AllowDoubleFallback widens to float64 when exact widening fails.
	AllowDoubleFallback
)

// WithStructuredTypes sets whether OBJECT/ARRAY/MAP columns materialize
// as structured values (true) or raw JSON text (false).
func WithStructuredTypes(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxStructuredTypes, enabled)
}

// StructuredTypesEnabled reports the structured-types setting, defaulting
// to true when unset.
func StructuredTypesEnabled(ctx context.Context) bool {
	v, ok := ctx.Value(ctxStructuredTypes).(bool)
	if !ok {
		return true
	}
	return v
}

// WithBinderStrategy sets the default object binder strategy.
func WithBinderStrategy(ctx context.Context, s BinderStrategy) context.Context {
	return context.WithValue(ctx, ctxBinderStrategy, s)
}

// DefaultBinderStrategy returns the configured binder strategy, defaulting
// to PropertiesNames when unset.
func DefaultBinderStrategy(ctx context.Context) BinderStrategy {
	v, ok := ctx.Value(ctxBinderStrategy).(BinderStrategy)
	if !ok {
		return PropertiesNames
	}
	return v
}

// WithDecimalWideningPolicy sets the decimal widening policy.
func WithDecimalWideningPolicy(ctx context.Context, p DecimalWideningPolicy) context.Context {
	return context.WithValue(ctx, ctxDecimalPolicy, p)
}

// DecimalWideningPolicyFrom returns the configured policy, defaulting to
// LosslessOnly when unset.
func DecimalWideningPolicyFrom(ctx context.Context) DecimalWideningPolicy {
	v, ok := ctx.Value(ctxDecimalPolicy).(DecimalWideningPolicy)
	if !ok {
		return LosslessOnly
	}
	return v
}

// WithCaseInsensitiveFieldMatch sets whether PropertiesNames matching
// ignores case.
func WithCaseInsensitiveFieldMatch(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxCaseInsensitive, enabled)
}

// CaseInsensitiveFieldMatch reports the field-match case sensitivity,
// defaulting to true (case-insensitive) per the observed-behavior default.
func CaseInsensitiveFieldMatch(ctx context.Context) bool {
	v, ok := ctx.Value(ctxCaseInsensitive).(bool)
	if !ok {
		return true
	}
	return v
}

// WithHigherPrecision enables leaving FIXED columns as Arrow decimal128/256
// in chunkbatches instead of narrowing them to int64/float64.
func WithHigherPrecision(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxHigherPrecision, enabled)
}

// HigherPrecisionEnabled reports the higher-precision setting.
func HigherPrecisionEnabled(ctx context.Context) bool {
	v, ok := ctx.Value(ctxHigherPrecision).(bool)
	return ok && v
}

// WithUtf8Validation enables re-validating Arrow string columns and
// replacing malformed sequences with U+FFFD instead of panicking.
func WithUtf8Validation(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxUtf8Validation, enabled)
}

// Utf8ValidationEnabled reports the UTF-8 validation setting.
func Utf8ValidationEnabled(ctx context.Context) bool {
	v, ok := ctx.Value(ctxUtf8Validation).(bool)
	return ok && v
}
