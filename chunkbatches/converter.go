package chunkbatches

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"

	coldwave "github.com/coldwavehq/go-coldwave"
	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
)

// normalizeRecord rewrites one raw arrow.Record, as the warehouse encodes
// it (decimal128/256 for FIXED, struct-of-int for timestamps, nested
// struct/list/map for structured columns), into an arrow.Record built from
// standard Arrow types a generic Arrow consumer can read without knowing
// about the warehouse's conventions.
func normalizeRecord(ctx context.Context, record arrow.Record, pool memory.Allocator, cols []coldwave.LogicalType, loc *time.Location) (arrow.Record, error) {
	timestampOption := decodeopts.TimestampOptionFrom(ctx)
	higherPrecision := decodeopts.HigherPrecisionEnabled(ctx)

	s := recordToSchema(record.Schema(), cols, loc, timestampOption, higherPrecision)

	numRows := record.NumRows()
	ctxAlloc := compute.WithAllocator(ctx, pool)

	newCols := make([]arrow.Array, len(record.Columns()))
	for i, col := range record.Columns() {
		newCol, err := normalizeColumn(ctxAlloc, s.Field(i), col, cols[i], higherPrecision, timestampOption, pool, loc, numRows)
		if err != nil {
			return nil, err
		}
		newCols[i] = newCol
		defer newCol.Release()
	}
	return array.NewRecord(s, newCols, numRows), nil
}

func normalizeColumn(ctx context.Context, field arrow.Field, col arrow.Array, lt coldwave.LogicalType, higherPrecisionEnabled bool, timestampOption decodeopts.TimestampOption, pool memory.Allocator, loc *time.Location, numRows int64) (arrow.Array, error) {
	var err error
	newCol := col
	k := lt.Kind
	switch k {
	case kind.Fixed:
		switch {
		case higherPrecisionEnabled:
			col.Retain()
		case col.DataType().ID() == arrow.DECIMAL || col.DataType().ID() == arrow.DECIMAL256:
			var toType arrow.DataType
			if lt.Scale == 0 {
				toType = arrow.PrimitiveTypes.Int64
			} else {
				toType = arrow.PrimitiveTypes.Float64
			}
			newCol, err = compute.CastArray(ctx, col, compute.UnsafeCastOptions(toType))
			if err != nil {
				return nil, err
			}
		case lt.Scale != 0 && col.DataType().ID() != arrow.INT64:
			result, err := compute.Divide(ctx, compute.ArithmeticOptions{NoCheckOverflow: true},
				&compute.ArrayDatum{Value: newCol.Data()},
				compute.NewDatum(pow10Float(lt.Scale)))
			if err != nil {
				return nil, err
			}
			defer result.Release()
			newCol = result.(*compute.ArrayDatum).MakeArray()
		case lt.Scale != 0 && col.DataType().ID() == arrow.INT64:
			values := col.(*array.Int64).Int64Values()
			floatValues := make([]float64, len(values))
			for i, val := range values {
				floatValues[i], _ = intToBigFloat(val, int64(lt.Scale)).Float64()
			}
			builder := array.NewFloat64Builder(pool)
			builder.AppendValues(floatValues, nil)
			newCol = builder.NewArray()
			builder.Release()
		default:
			col.Retain()
		}
	case kind.Time:
		if i32, ok := col.(*array.Int32); ok {
			// cast_time64 accepts Int64 but not Int32 input, so widen first.
			widened, err := compute.CastArray(ctx, i32, compute.SafeCastOptions(arrow.PrimitiveTypes.Int64))
			if err != nil {
				return nil, err
			}
			defer widened.Release()
			col = widened
		}
		newCol, err = compute.CastArray(ctx, col, compute.SafeCastOptions(arrow.FixedWidthTypes.Time64ns))
		if err != nil {
			return nil, err
		}
	case kind.TimestampNtz, kind.TimestampLtz, kind.TimestampTz:
		if timestampOption == decodeopts.UseOriginalTimestamp {
			col.Retain()
			break
		}
		var unit arrow.TimeUnit
		switch timestampOption {
		case decodeopts.UseMicrosecondTimestamp:
			unit = arrow.Microsecond
		case decodeopts.UseMillisecondTimestamp:
			unit = arrow.Millisecond
		case decodeopts.UseSecondTimestamp:
			unit = arrow.Second
		default:
			unit = arrow.Nanosecond
		}
		var tb *array.TimestampBuilder
		if k == kind.TimestampLtz {
			tb = array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: unit, TimeZone: loc.String()})
		} else {
			tb = array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: unit})
		}
		defer tb.Release()

		for i := 0; i < int(numRows); i++ {
			ts := instantFromColumn(col, k, int(lt.Scale), i, loc)
			if ts == nil {
				tb.AppendNull()
				continue
			}
			var ar arrow.Timestamp
			switch timestampOption {
			case decodeopts.UseMicrosecondTimestamp:
				ar = arrow.Timestamp(ts.UnixMicro())
			case decodeopts.UseMillisecondTimestamp:
				ar = arrow.Timestamp(ts.UnixMilli())
			case decodeopts.UseSecondTimestamp:
				ar = arrow.Timestamp(ts.Unix())
			default:
				ar = arrow.Timestamp(ts.UnixNano())
				if ts.UTC().Year() != ar.ToTime(arrow.Nanosecond).Year() {
					return nil, &coldwave.DecodeError{
						Kind:  coldwave.ErrOverflow,
						Cause: fmt.Errorf("timestamp %v in column %q too high precision for nanosecond arrow.Timestamp; use WithTimestampOption(UseOriginalTimestamp)", ts.UTC(), field.Name),
					}
				}
			}
			tb.Append(ar)
		}
		newCol = tb.NewArray()
	case kind.Text:
		if stringCol, ok := col.(*array.String); ok {
			newCol = normalizeStringColumn(ctx, stringCol, pool, numRows)
		}
	case kind.StructuredObject:
		switch c := col.(type) {
		case *array.Struct:
			internalCols := make([]arrow.Array, c.NumField())
			st := field.Type.(*arrow.StructType)
			fieldNames := make([]string, c.NumField())
			for i := 0; i < c.NumField(); i++ {
				newInternalCol, err := normalizeColumn(ctx, st.Field(i), c.Field(i), lt.Fields[i].Type, higherPrecisionEnabled, timestampOption, pool, loc, numRows)
				if err != nil {
					return nil, err
				}
				internalCols[i] = newInternalCol
				fieldNames[i] = st.Field(i).Name
				defer newInternalCol.Release()
			}
			nullBitmap := memory.NewBufferBytes(c.NullBitmapBytes())
			return array.NewStructArrayWithNulls(internalCols, fieldNames, nullBitmap, c.NullN(), 0)
		case *array.String:
			newCol = normalizeStringColumn(ctx, c, pool, numRows)
		}
	case kind.StructuredArray:
		switch c := col.(type) {
		case *array.List:
			elemType, err := lt.ElementOf()
			if err != nil {
				return nil, err
			}
			elemCol, err := normalizeColumn(ctx, field.Type.(*arrow.ListType).ElemField(), c.ListValues(), elemType, higherPrecisionEnabled, timestampOption, pool, loc, numRows)
			if err != nil {
				return nil, err
			}
			defer elemCol.Release()
			newData := array.NewData(arrow.ListOf(elemCol.DataType()), c.Len(), c.Data().Buffers(), []arrow.ArrayData{elemCol.Data()}, c.NullN(), 0)
			defer newData.Release()
			return array.NewListData(newData), nil
		case *array.String:
			newCol = normalizeStringColumn(ctx, c, pool, numRows)
		}
	case kind.StructuredMap:
		switch c := col.(type) {
		case *array.Map:
			mt := field.Type.(*arrow.MapType)
			keyType, valueType, err := lt.KeyValueOf()
			if err != nil {
				return nil, err
			}
			keyCol, err := normalizeColumn(ctx, mt.KeyField(), c.Keys(), keyType, higherPrecisionEnabled, timestampOption, pool, loc, numRows)
			if err != nil {
				return nil, err
			}
			defer keyCol.Release()
			valueCol, err := normalizeColumn(ctx, mt.ItemField(), c.Items(), valueType, higherPrecisionEnabled, timestampOption, pool, loc, numRows)
			if err != nil {
				return nil, err
			}
			defer valueCol.Release()
			structArr, err := array.NewStructArray([]arrow.Array{keyCol, valueCol}, []string{"key", "value"})
			if err != nil {
				return nil, err
			}
			defer structArr.Release()
			newData := array.NewData(arrow.MapOf(keyCol.DataType(), valueCol.DataType()), c.Len(), c.Data().Buffers(), []arrow.ArrayData{structArr.Data()}, c.NullN(), 0)
			defer newData.Release()
			return array.NewMapData(newData), nil
		case *array.String:
			newCol = normalizeStringColumn(ctx, c, pool, numRows)
		}
	default:
		col.Retain()
	}
	return newCol, nil
}

func normalizeStringColumn(ctx context.Context, stringCol *array.String, mem memory.Allocator, numRows int64) arrow.Array {
	if !decodeopts.Utf8ValidationEnabled(ctx) || stringCol.DataType().ID() != arrow.STRING {
		stringCol.Retain()
		return stringCol
	}
	tb := array.NewStringBuilder(mem)
	defer tb.Release()
	for i := 0; i < int(numRows); i++ {
		if !stringCol.IsValid(i) {
			tb.AppendNull()
			continue
		}
		v := stringCol.Value(i)
		if !utf8.ValidString(v) {
			v = strings.ToValidUTF8(v, "�")
		}
		tb.Append(v)
	}
	return tb.NewArray()
}

func intToBigFloat(val int64, scale int64) *big.Float {
	f := new(big.Float).SetInt64(val)
	s := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(scale), nil))
	return new(big.Float).Quo(f, s)
}

func pow10Float(scale int) float64 {
	r := 1.0
	for i := 0; i < scale; i++ {
		r *= 10
	}
	return r
}

// instantFromColumn reads the warehouse's native timestamp encoding
// (struct-of-epoch-plus-fraction, or a single packed int64) out of column
// at recIdx and renders it as a time.Time. Returns nil for a null cell.
func instantFromColumn(column arrow.Array, k kind.Kind, scale int, recIdx int, loc *time.Location) *time.Time {
	if column.IsNull(recIdx) {
		return nil
	}
	var ret time.Time
	switch k {
	case kind.TimestampNtz:
		if column.DataType().ID() == arrow.STRUCT {
			s := column.(*array.Struct)
			epoch := s.Field(0).(*array.Int64).Value(recIdx)
			frac := s.Field(1).(*array.Int32).Value(recIdx)
			ret = time.Unix(epoch, int64(frac)).UTC()
		} else {
			v := column.(*array.Int64).Value(recIdx)
			ret = time.Unix(extractEpoch(v, scale), extractFraction(v, scale)).UTC()
		}
	case kind.TimestampLtz:
		if column.DataType().ID() == arrow.STRUCT {
			s := column.(*array.Struct)
			epoch := s.Field(0).(*array.Int64).Value(recIdx)
			frac := s.Field(1).(*array.Int32).Value(recIdx)
			ret = time.Unix(epoch, int64(frac)).In(loc)
		} else {
			v := column.(*array.Int64).Value(recIdx)
			ret = time.Unix(extractEpoch(v, scale), extractFraction(v, scale)).In(loc)
		}
	case kind.TimestampTz:
		s := column.(*array.Struct)
		if s.NumField() == 2 {
			value := s.Field(0).(*array.Int64).Value(recIdx)
			offset := s.Field(1).(*array.Int32).Value(recIdx)
			ret = time.Unix(extractEpoch(value, scale), extractFraction(value, scale)).In(coldwave.FixedOffsetLocation(int(offset) - 1440))
		} else {
			epoch := s.Field(0).(*array.Int64).Value(recIdx)
			frac := s.Field(1).(*array.Int32).Value(recIdx)
			offset := s.Field(2).(*array.Int32).Value(recIdx)
			ret = time.Unix(epoch, int64(frac)).In(coldwave.FixedOffsetLocation(int(offset) - 1440))
		}
	}
	return &ret
}

func extractEpoch(value int64, scale int) int64 {
	return value / int64(pow10Float(scale))
}

func extractFraction(value int64, scale int) int64 {
	return (value % int64(pow10Float(scale))) * int64(pow10Float(9-scale))
}
