package coldwave

import (
	"context"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
)

// Decimal is an exact, arbitrary-precision decimal: raw / 10^scale.
type Decimal struct {
	rat *big.Rat
}

// NewDecimal builds a Decimal from an unscaled integer and a scale.
func NewDecimal(unscaled *big.Int, scale int) Decimal {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	return Decimal{rat: new(big.Rat).SetFrac(unscaled, denom)}
}

// String renders the decimal in fixed-point notation.
func (d Decimal) String() string {
	return d.rat.FloatString(decimalDisplayScale(d.rat))
}

// Float64 widens the decimal to a float64, losing precision for values
// that don't fit exactly.
func (d Decimal) Float64() float64 {
	f, _ := d.rat.Float64()
	return f
}

// Rat exposes the underlying big.Rat for callers that need exact math.
func (d Decimal) Rat() *big.Rat {
	return d.rat
}

func decimalDisplayScale(r *big.Rat) int {
	// The reduced denominator of raw/10^scale is 2^a * 5^b; the smallest
	// power of ten it divides gives the digits needed for an exact render.
	denom := r.Denom()
	scale := 0
	pow := big.NewInt(1)
	ten := big.NewInt(10)
	rem := new(big.Int)
	for rem.Mod(pow, denom).Sign() != 0 {
		pow.Mul(pow, ten)
		scale++
	}
	return scale
}

// ConvertFixed converts a Fixed cell's unscaled integer to a native
// scalar. Scale 0 yields the narrowest signed integer that fits, widened
// to int64; scale > 0 yields an exact Decimal.
func ConvertFixed(unscaled *big.Int, scale int) (any, error) {
	if scale == 0 {
		if !unscaled.IsInt64() {
			return nil, &DecodeError{Kind: ErrOverflow, Cause: errOverflowInt64}
		}
		return unscaled.Int64(), nil
	}
	return NewDecimal(unscaled, scale), nil
}

// ConvertFixedInt64 is the common-case fast path for a Fixed column whose
// raw width already fits in an int64.
func ConvertFixedInt64(raw int64, scale int) (any, error) {
	if scale == 0 {
		return raw, nil
	}
	return NewDecimal(big.NewInt(raw), scale), nil
}

// WidenFixed narrows a Decimal to int64 or float64 depending on the
// configured decimal widening policy, failing under LosslessOnly when the
// value is not an exact integer that fits in int64.
func WidenFixed(ctx context.Context, d Decimal) (any, error) {
	if d.rat.IsInt() && d.rat.Num().IsInt64() {
		return d.rat.Num().Int64(), nil
	}
	if decodeopts.DecimalWideningPolicyFrom(ctx) == decodeopts.AllowDoubleFallback {
		return d.Float64(), nil
	}
	return nil, &DecodeError{Kind: ErrOverflow, Cause: errLossyWidening}
}

// ConvertDate converts a day offset from the epoch to a UTC midnight
// instant.
func ConvertDate(days int32) time.Time {
	return time.Unix(int64(days)*86400, 0).UTC()
}

// ConvertTime converts a Time{scale} raw integer to a wall-clock duration
// since midnight, per the three precision bands the warehouse uses.
func ConvertTime(raw int64, scale int) time.Duration {
	switch {
	case scale <= 3:
		return time.Duration(raw) * time.Millisecond * time.Duration(pow10(3-scale))
	case scale <= 7:
		return time.Duration(raw) * 100 * time.Nanosecond * time.Duration(pow10(7-scale))
	default:
		// scale 8 or 9: truncates sub-100ns precision, per the source's
		// own documented (if questionable) behavior.
		return time.Duration(raw/pow10(scale-7)) * 100 * time.Nanosecond
	}
}

// SplitEpochFraction decodes a single-integer Ntz/Ltz raw value into
// epoch seconds and a nanosecond fraction.
func SplitEpochFraction(raw int64, scale int) (epochSeconds, fractionNanos int64) {
	epochSeconds = extractEpoch(raw, scale)
	fractionNanos = extractFraction(raw, scale)
	return
}

// PackEpochFraction is the inverse of SplitEpochFraction, used by the
// round-trip tests.
func PackEpochFraction(epochSeconds, fractionNanos int64, scale int) int64 {
	return epochSeconds*pow10(scale) + fractionNanos/pow10(9-scale)
}

func extractEpoch(value int64, scale int) int64 {
	return value / pow10(scale)
}

func extractFraction(value int64, scale int) int64 {
	return (value % pow10(scale)) * pow10(9-scale)
}

func pow10(n int) int64 {
	if n <= 0 {
		return 1
	}
	return int64(math.Pow10(n))
}

// ConvertTimestampNtz assembles a naive wall-clock value from a
// single-integer raw value.
func ConvertTimestampNtz(raw int64, scale int) time.Time {
	epoch, frac := SplitEpochFraction(raw, scale)
	return time.Unix(epoch, frac).UTC()
}

// ConvertTimestampNtzStruct assembles a naive wall-clock value from the
// struct form, where the fields directly provide epoch seconds and
// fraction nanos.
func ConvertTimestampNtzStruct(epochSeconds, fractionNanos int64) time.Time {
	return time.Unix(epochSeconds, fractionNanos).UTC()
}

// ConvertTimestampLtz is like ConvertTimestampNtz but rendered in loc.
func ConvertTimestampLtz(raw int64, scale int, loc *time.Location) time.Time {
	epoch, frac := SplitEpochFraction(raw, scale)
	return time.Unix(epoch, frac).In(loc)
}

// ConvertTimestampLtzStruct is like ConvertTimestampNtzStruct but
// rendered in loc.
func ConvertTimestampLtzStruct(epochSeconds, fractionNanos int64, loc *time.Location) time.Time {
	return time.Unix(epochSeconds, fractionNanos).In(loc)
}

// ConvertTimestampTz2Field handles the 2-field struct form: fields[0] is
// the single-integer epoch+fraction at scale, fields[1] carries
// offset_minutes + 1440.
func ConvertTimestampTz2Field(packed int64, storedOffset int32, scale int) time.Time {
	epoch, frac := SplitEpochFraction(packed, scale)
	loc := FixedOffsetLocation(int(storedOffset) - 1440)
	return time.Unix(epoch, frac).In(loc)
}

// ConvertTimestampTz3Field handles the 3-field struct form: epoch
// seconds, fraction nanos, and offset_minutes + 1440 as independent
// fields.
func ConvertTimestampTz3Field(epochSeconds, fractionNanos int64, storedOffset int32) time.Time {
	loc := FixedOffsetLocation(int(storedOffset) - 1440)
	return time.Unix(epochSeconds, fractionNanos).In(loc)
}

// FixedOffsetLocation builds a *time.Location for a fixed minute offset
// from UTC, matching the warehouse's offset_minutes encoding.
func FixedOffsetLocation(offsetMinutes int) *time.Location {
	return time.FixedZone(offsetZoneName(offsetMinutes), offsetMinutes*60)
}

func offsetZoneName(offsetMinutes int) string {
	sign := "+"
	if offsetMinutes < 0 {
		sign = "-"
		offsetMinutes = -offsetMinutes
	}
	h, m := offsetMinutes/60, offsetMinutes%60
	return sign + twoDigits(h) + ":" + twoDigits(m)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

var (
	errOverflowInt64 = overflowError("fixed value exceeds int64 width")
	errLossyWidening = overflowError("fixed value is not exactly representable and double fallback is disabled")
)

type overflowError string

func (e overflowError) Error() string { return string(e) }

// assertKindSupported fails with ErrUnsupportedType when k is not one of
// the scalar kinds the converter handles directly (structured kinds go
// through the structured reader instead).
func assertKindSupported(k kind.Kind) error {
	switch k {
	case kind.Fixed, kind.Real, kind.Boolean, kind.Text, kind.Binary,
		kind.Date, kind.Time, kind.TimestampNtz, kind.TimestampLtz, kind.TimestampTz:
		return nil
	default:
		return &DecodeError{Kind: ErrUnsupportedType, Cause: unsupportedKindError(k)}
	}
}

type unsupportedKindError kind.Kind

func (e unsupportedKindError) Error() string {
	return "unsupported logical kind for scalar conversion: " + kind.Kind(e).String()
}
