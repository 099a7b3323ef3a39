package chunkbatches

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	coldwave "github.com/coldwavehq/go-coldwave"
	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
)

func recordToSchema(sc *arrow.Schema, cols []coldwave.LogicalType, loc *time.Location, timestampOption decodeopts.TimestampOption, withHigherPrecision bool) *arrow.Schema {
	outFields := recordToSchemaRecursive(sc.Fields(), cols, loc, timestampOption, withHigherPrecision)
	meta := sc.Metadata()
	return arrow.NewSchema(outFields, &meta)
}

func recordToSchemaRecursive(inFields []arrow.Field, cols []coldwave.LogicalType, loc *time.Location, timestampOption decodeopts.TimestampOption, withHigherPrecision bool) []arrow.Field {
	outFields := make([]arrow.Field, len(inFields))
	for i, f := range inFields {
		converted, t := recordToSchemaSingleField(cols[i], f, withHigherPrecision, timestampOption, loc)
		if converted {
			outFields[i] = arrow.Field{
				Name:     f.Name,
				Type:     t,
				Nullable: f.Nullable,
				Metadata: f.Metadata,
			}
		} else {
			outFields[i] = f
		}
	}
	return outFields
}

func recordToSchemaSingleField(lt coldwave.LogicalType, f arrow.Field, withHigherPrecision bool, timestampOption decodeopts.TimestampOption, loc *time.Location) (bool, arrow.DataType) {
	t := f.Type
	converted := true
	switch lt.Kind {
	case kind.Fixed:
		switch f.Type.ID() {
		case arrow.DECIMAL, arrow.DECIMAL256:
			if withHigherPrecision {
				converted = false
			} else if lt.Scale == 0 {
				t = &arrow.Int64Type{}
			} else {
				t = &arrow.Float64Type{}
			}
		default:
			if withHigherPrecision {
				converted = false
			} else if lt.Scale != 0 {
				t = &arrow.Float64Type{}
			} else {
				converted = false
			}
		}
	case kind.Time:
		t = &arrow.Time64Type{Unit: arrow.Nanosecond}
	case kind.TimestampNtz, kind.TimestampTz:
		switch timestampOption {
		case decodeopts.UseOriginalTimestamp:
			converted = false
		case decodeopts.UseMicrosecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Microsecond}
		case decodeopts.UseMillisecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Millisecond}
		case decodeopts.UseSecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Second}
		default:
			t = &arrow.TimestampType{Unit: arrow.Nanosecond}
		}
	case kind.TimestampLtz:
		switch timestampOption {
		case decodeopts.UseOriginalTimestamp:
			converted = false
		case decodeopts.UseMicrosecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: loc.String()}
		case decodeopts.UseMillisecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: loc.String()}
		case decodeopts.UseSecondTimestamp:
			t = &arrow.TimestampType{Unit: arrow.Second, TimeZone: loc.String()}
		default:
			t = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: loc.String()}
		}
	case kind.StructuredObject:
		converted = false
		if f.Type.ID() == arrow.STRUCT {
			st := f.Type.(*arrow.StructType)
			internalFields := make([]arrow.Field, st.NumFields())
			for idx, internalField := range st.Fields() {
				internalConverted, convertedDataType := recordToSchemaSingleField(lt.Fields[idx].Type, internalField, withHigherPrecision, timestampOption, loc)
				converted = converted || internalConverted
				if internalConverted {
					internalFields[idx] = arrow.Field{
						Name:     internalField.Name,
						Type:     convertedDataType,
						Metadata: internalField.Metadata,
						Nullable: internalField.Nullable,
					}
				} else {
					internalFields[idx] = internalField
				}
			}
			t = arrow.StructOf(internalFields...)
		}
	case kind.StructuredArray:
		if lst, ok := f.Type.(*arrow.ListType); ok {
			elem, err := lt.ElementOf()
			if err != nil {
				converted = false
				break
			}
			elemConverted, dataType := recordToSchemaSingleField(elem, lst.ElemField(), withHigherPrecision, timestampOption, loc)
			converted = elemConverted
			if elemConverted {
				t = arrow.ListOf(dataType)
			}
		} else {
			converted = false
		}
	case kind.StructuredMap:
		mt, ok := f.Type.(*arrow.MapType)
		if !ok {
			converted = false
			break
		}
		keyType, valueType, err := lt.KeyValueOf()
		if err != nil {
			converted = false
			break
		}
		convertedKey, keyDataType := recordToSchemaSingleField(keyType, mt.KeyField(), withHigherPrecision, timestampOption, loc)
		convertedValue, valueDataType := recordToSchemaSingleField(valueType, mt.ItemField(), withHigherPrecision, timestampOption, loc)
		converted = convertedKey || convertedValue
		if converted {
			t = arrow.MapOf(keyDataType, valueDataType)
		}
	default:
		converted = false
	}
	return converted, t
}
