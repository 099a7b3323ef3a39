package coldwave

import (
	"context"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
)

// decodeScalarFromText converts a JSON-chunk cell's raw text (the
// warehouse's pre-stringified scalar form) into a native value, per the
// Scalar Converter's text-encoding rules for each logical kind.
func decodeScalarFromText(s string, lt LogicalType, loc *time.Location) (any, error) {
	switch lt.Kind {
	case kind.Fixed:
		return parseFixedText(s, lt.Scale)
	case kind.Real:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		return f, nil
	case kind.Boolean:
		return s == "1" || strings.EqualFold(s, "true"), nil
	case kind.Text:
		return s, nil
	case kind.Binary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		return b, nil
	case kind.Date:
		days, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		return ConvertDate(int32(days)), nil
	case kind.Time:
		sec, nsec, err := splitSecondsFractionText(s)
		if err != nil {
			return nil, err
		}
		return time.Duration(sec)*time.Second + time.Duration(nsec), nil
	case kind.TimestampNtz:
		sec, nsec, err := splitSecondsFractionText(s)
		if err != nil {
			return nil, err
		}
		return ConvertTimestampNtzStruct(sec, nsec), nil
	case kind.TimestampLtz:
		sec, nsec, err := splitSecondsFractionText(s)
		if err != nil {
			return nil, err
		}
		return ConvertTimestampLtzStruct(sec, nsec, loc), nil
	case kind.TimestampTz:
		return decodeTimestampTzText(s)
	default:
		return nil, &DecodeError{Kind: ErrUnsupportedType, Cause: unsupportedKindError(lt.Kind)}
	}
}

// decodeTimestampTzText parses the "seconds.fraction offset_minutes+1440"
// textual form of TIMESTAMP_TZ.
func decodeTimestampTzText(s string) (any, error) {
	parts := strings.Split(s, " ")
	if len(parts) != 2 {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errTimestampTzTextShape}
	}
	sec, nsec, err := splitSecondsFractionText(parts[0])
	if err != nil {
		return nil, err
	}
	offset, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
	}
	loc := FixedOffsetLocation(int(offset) - 1440)
	return time.Unix(sec, nsec).In(loc), nil
}

var errTimestampTzTextShape = errorString("TIMESTAMP_TZ text value must be two space-separated numbers")

// splitSecondsFractionText parses "<seconds>[.<fraction>]" into integer
// seconds and a nanosecond fraction, right-padding or truncating the
// fractional digits to nanosecond width.
func splitSecondsFractionText(s string) (sec, nsec int64, err error) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		sec, err = strconv.ParseInt(s, 10, 64)
		return sec, 0, err
	}
	sec, err = strconv.ParseInt(s[:dot], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	frac := s[dot+1:]
	if len(frac) < 9 {
		frac += strings.Repeat("0", 9-len(frac))
	} else if len(frac) > 9 {
		frac = frac[:9]
	}
	nsec, err = strconv.ParseInt(frac, 10, 64)
	return sec, nsec, err
}

// parseFixedText parses a Fixed cell's decimal text exactly, without
// going through a lossy float intermediate.
func parseFixedText(s string, scale int) (any, error) {
	if scale == 0 {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		return v, nil
	}
	neg := strings.HasPrefix(s, "-")
	unsigned := strings.TrimPrefix(s, "-")
	dot := strings.IndexByte(unsigned, '.')
	var digits string
	var pointScale int
	if dot < 0 {
		digits = unsigned
		pointScale = 0
	} else {
		digits = unsigned[:dot] + unsigned[dot+1:]
		pointScale = len(unsigned) - dot - 1
	}
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errInvalidFixedText}
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	if pointScale < scale {
		unscaled.Mul(unscaled, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale-pointScale)), nil))
	} else if pointScale > scale {
		unscaled.Quo(unscaled, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(pointScale-scale)), nil))
	}
	return NewDecimal(unscaled, scale), nil
}

var errInvalidFixedText = errorString("invalid FIXED decimal text")

// decodeScalarFromJSONValue converts a generic JSONValue leaf (as found
// inside a structured object/array/map, where numbers are native JSON
// numbers rather than the warehouse's stringified top-level form) into a
// native scalar value.
func decodeScalarFromJSONValue(v JSONValue, lt LogicalType, loc *time.Location) (any, error) {
	switch v.Kind {
	case JSONNull:
		return nil, nil
	case JSONNumber:
		switch lt.Kind {
		case kind.Real:
			f, err := strconv.ParseFloat(v.Number, 64)
			if err != nil {
				return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
			}
			return f, nil
		default:
			return parseFixedOrTemporalNumber(v.Number, lt, loc)
		}
	case JSONBool:
		if lt.Kind == kind.Boolean {
			return v.Bool, nil
		}
		return nil, &DecodeError{Kind: ErrUnsupportedType, Cause: unsupportedKindError(lt.Kind)}
	case JSONString:
		return decodeScalarFromText(v.Str, lt, loc)
	default:
		return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: errLeafNotScalar}
	}
}

func parseFixedOrTemporalNumber(numText string, lt LogicalType, loc *time.Location) (any, error) {
	switch lt.Kind {
	case kind.Fixed:
		return parseFixedText(numText, lt.Scale)
	case kind.Date:
		days, err := strconv.ParseInt(numText, 10, 64)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		return ConvertDate(int32(days)), nil
	case kind.Time, kind.TimestampNtz, kind.TimestampLtz:
		raw, err := strconv.ParseInt(numText, 10, 64)
		if err != nil {
			return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
		}
		if lt.Kind == kind.Time {
			return ConvertTime(raw, lt.Scale), nil
		}
		if lt.Kind == kind.TimestampNtz {
			return ConvertTimestampNtz(raw, lt.Scale), nil
		}
		return ConvertTimestampLtz(raw, lt.Scale, loc), nil
	default:
		return nil, &DecodeError{Kind: ErrUnsupportedType, Cause: unsupportedKindError(lt.Kind)}
	}
}

var errLeafNotScalar = errorString("structured leaf value is not a scalar JSON value")

func utf8ValidationWanted(ctx context.Context) bool {
	return decodeopts.Utf8ValidationEnabled(ctx)
}

func toValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
