package coldwave

import (
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CoerceUUID parses a decoded text leaf into a uuid.UUID, for struct
// fields declared as UUID even though the wire carries it as TEXT.
func CoerceUUID(decoded any) (any, error) {
	if decoded == nil {
		return nil, nil
	}
	s, ok := decoded.(string)
	if !ok {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errCoerceNotText}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
	}
	return id, nil
}

// CoerceIntegerText parses an integer-valued TEXT leaf into an int64,
// for callers whose host field is numeric even though the column's
// declared logical type is TEXT.
func CoerceIntegerText(decoded any) (any, error) {
	if decoded == nil {
		return nil, nil
	}
	s, ok := decoded.(string)
	if !ok {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errCoerceNotText}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
	}
	return v, nil
}

// CoerceDecimalText parses an integer- or decimal-valued TEXT leaf into
// an exact Decimal.
func CoerceDecimalText(decoded any) (any, error) {
	if decoded == nil {
		return nil, nil
	}
	s, ok := decoded.(string)
	if !ok {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errCoerceNotText}
	}
	scale := decimalTextScale(s)
	if scale == 0 {
		unscaled, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errInvalidFixedText}
		}
		return NewDecimal(unscaled, 0), nil
	}
	return parseFixedText(s, scale)
}

func decimalTextScale(s string) int {
	for i, c := range s {
		if c == '.' {
			return len(s) - i - 1
		}
	}
	return 0
}

// CoerceInstant converts a decoded naive wall-clock time.Time (as
// produced for TimestampNtz) into an instant in the given zone, letting a
// caller ask for "instant-with-offset" instead of "calendar-wall-clock"
// at a temporal leaf.
func CoerceInstant(loc *time.Location) CoerceFunc {
	return func(decoded any) (any, error) {
		if decoded == nil {
			return nil, nil
		}
		t, ok := decoded.(time.Time)
		if !ok {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errCoerceNotTime}
		}
		return t.In(loc), nil
	}
}

var (
	errCoerceNotText = errorString("coercion expected a decoded text value")
	errCoerceNotTime = errorString("coercion expected a decoded time.Time value")
)
