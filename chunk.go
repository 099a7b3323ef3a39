package coldwave

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
	"github.com/coldwavehq/go-coldwave/internal/kind"
	"github.com/coldwavehq/go-coldwave/internal/obslog"
)

// physicalKind tags which physical encoding a ResultChunk owns.
type physicalKind int

const (
	physicalArrow physicalKind = iota
	physicalJSON
)

// ResultChunk is immutable after construction. It owns either an ordered
// sequence of Arrow record batches sharing one schema, or an ordered
// sequence of JSON row arrays, never both — the chunk downloader decides
// the encoding once, up front.
type ResultChunk struct {
	physical    physicalKind
	arrowBatches []arrow.Record
	jsonBatches []jsonBatch
	schema      []LogicalType
	chunkIndex  int
	rowCount    int
	columnCount int
	loc         *time.Location
}

// jsonBatch is one decoded JSON row array: a sequence of rows, each row a
// JSONArray of per-column cell values.
type jsonBatch struct {
	rows []JSONValue
}

// NewArrowResultChunk builds a ResultChunk over already-parsed Arrow
// record batches sharing schema. loc is the session time zone used to
// render TimestampLtz.
func NewArrowResultChunk(chunkIndex int, schema []LogicalType, batches []arrow.Record, loc *time.Location) *ResultChunk {
	rc := &ResultChunk{
		physical:     physicalArrow,
		arrowBatches: batches,
		schema:       schema,
		chunkIndex:   chunkIndex,
		columnCount:  len(schema),
		loc:          loc,
	}
	for _, b := range batches {
		rc.rowCount += int(b.NumRows())
	}
	return rc
}

// NewJSONResultChunk parses one or more raw JSON row-array documents into
// a ResultChunk. Each document must have the shape `[[cell, cell, ...], ...]`
// with column_count cells per row; this is the wire shape the warehouse
// sends for row-array chunks, every scalar pre-stringified server-side.
// Scalar cells are JSON null or a JSON string; structured cells may also be
// nested JSON. Cell values are not checked here but when extracted.
func NewJSONResultChunk(chunkIndex int, schema []LogicalType, documents [][]byte, loc *time.Location) (*ResultChunk, error) {
	rc := &ResultChunk{
		physical:    physicalJSON,
		schema:      schema,
		chunkIndex:  chunkIndex,
		columnCount: len(schema),
		loc:         loc,
	}
	for _, doc := range documents {
		v, err := ParseJSON(doc)
		if err != nil {
			return nil, newDecodeError(chunkIndex, -1, -1, ErrInvalidEncoding, err)
		}
		if v.Kind != JSONArray {
			return nil, newDecodeError(chunkIndex, -1, -1, ErrInvalidEncoding, errChunkShapeNotArray)
		}
		for _, row := range v.Elems {
			if row.Kind != JSONArray {
				return nil, newDecodeError(chunkIndex, -1, -1, ErrInvalidEncoding, errRowShapeNotArray)
			}
			if len(row.Elems) != len(schema) {
				return nil, newDecodeError(chunkIndex, -1, -1, ErrInvalidEncoding, errRowColumnCountMismatch)
			}
		}
		rc.jsonBatches = append(rc.jsonBatches, jsonBatch{rows: v.Elems})
		rc.rowCount += len(v.Elems)
	}
	return rc, nil
}

// RawArrowBatches exposes a chunk's underlying Arrow record batches
// unconverted, for callers that want to read the warehouse's native Arrow
// encoding directly (decimal128/256 for FIXED, struct-of-int for
// timestamps) rather than go through the per-cell Iterator. ok is false
// for a JSON-physical chunk, which has no Arrow batches to expose.
func (rc *ResultChunk) RawArrowBatches() (batches []arrow.Record, schema []LogicalType, loc *time.Location, ok bool) {
	if rc.physical != physicalArrow {
		return nil, nil, nil, false
	}
	return rc.arrowBatches, rc.schema, rc.loc, true
}

func (rc *ResultChunk) batchCount() int {
	if rc.physical == physicalArrow {
		return len(rc.arrowBatches)
	}
	return len(rc.jsonBatches)
}

func (rc *ResultChunk) batchLen(batchIndex int) int {
	if rc.physical == physicalArrow {
		return int(rc.arrowBatches[batchIndex].NumRows())
	}
	return len(rc.jsonBatches[batchIndex].rows)
}

var (
	errChunkShapeNotArray     = errorString("json chunk document is not an array of rows")
	errRowShapeNotArray       = errorString("json chunk row is not an array of cells")
	errRowColumnCountMismatch = errorString("json chunk row does not have column_count cells")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// columnCache holds the per-column, per-batch materialized native arrays
// for the Arrow path. It is sized column_count and fully dropped whenever
// the iterator's batch changes; there is no multi-batch cache.
type columnCache struct {
	slots []columnSlot
}

// columnSlot is a tagged cache entry: either not yet materialized, or a
// flattened native array with one entry per row of the current batch.
type columnSlot struct {
	materialized bool
	values       []any
}

func newColumnCache(columnCount int) columnCache {
	return columnCache{slots: make([]columnSlot, columnCount)}
}

func (c *columnCache) reset() {
	for i := range c.slots {
		c.slots[i] = columnSlot{}
	}
}

// Iterator advances a logical cursor through a ResultChunk's physical
// batches. Reads are row-major and forward-biased; concurrent use of one
// Iterator is not supported, but independent Iterators over disjoint
// chunks may run in parallel.
type Iterator struct {
	chunk      *ResultChunk
	batchIndex int
	rowIndex   int
	cache      columnCache
}

// NewIterator positions a fresh Iterator before the first row of chunk.
func NewIterator(chunk *ResultChunk) *Iterator {
	return &Iterator{
		chunk:      chunk,
		batchIndex: 0,
		rowIndex:   -1,
		cache:      newColumnCache(chunk.columnCount),
	}
}

// Next advances the cursor by one row, crossing batch boundaries (and
// dropping the column cache) as needed. It returns false exactly when
// both cursors are exhausted.
func (it *Iterator) Next() bool {
	for {
		if it.batchIndex >= it.chunk.batchCount() {
			return false
		}
		if it.rowIndex+1 < it.chunk.batchLen(it.batchIndex) {
			it.rowIndex++
			return true
		}
		it.batchIndex++
		it.rowIndex = -1
		it.cache.reset()
		if it.batchIndex >= it.chunk.batchCount() {
			return false
		}
		// loop again: the new batch may itself be empty.
		it.rowIndex = -1
		if it.chunk.batchLen(it.batchIndex) > 0 {
			it.rowIndex = 0
			return true
		}
	}
}

// Rewind steps the cursor back by one row and reports whether it is now
// on a row. Stepping back from the first row leaves the cursor at the
// pre-first position and returns false; at the pre-first position it
// returns false without moving. After Next has run past the last row,
// Rewind steps back onto the last row.
func (it *Iterator) Rewind() bool {
	if it.rowIndex > 0 {
		it.rowIndex--
		return true
	}
	if it.rowIndex < 0 && it.batchIndex < it.chunk.batchCount() {
		return false
	}
	// rowIndex == 0, or past the end: walk back over batches, skipping any
	// that are empty.
	for it.batchIndex > 0 {
		it.batchIndex--
		it.cache.reset()
		n := it.chunk.batchLen(it.batchIndex)
		if n > 0 {
			it.rowIndex = n - 1
			return true
		}
	}
	it.rowIndex = -1
	return false
}

// BatchIndex and RowIndex expose the current cursor position, mainly for
// error reporting.
func (it *Iterator) BatchIndex() int { return it.batchIndex }
func (it *Iterator) RowIndex() int   { return it.rowIndex }
func (it *Iterator) ChunkIndex() int { return it.chunk.chunkIndex }

// ExtractCell materializes column c of the current row. For Arrow
// batches, it uses the cached column array if present, materializing it
// on first access; for JSON batches, it parses the current row directly.
func (it *Iterator) ExtractCell(ctx context.Context, c int) (any, error) {
	if it.rowIndex < 0 || it.batchIndex >= it.chunk.batchCount() {
		return nil, newDecodeError(it.chunk.chunkIndex, it.rowIndex, c, ErrCacheInvariantViolated, errIteratorNotPositioned)
	}
	if c < 0 || c >= it.chunk.columnCount {
		return nil, newDecodeError(it.chunk.chunkIndex, it.rowIndex, c, ErrUnsupportedType, errColumnIndexOutOfRange)
	}
	lt := it.chunk.schema[c]

	if it.chunk.physical == physicalJSON {
		return it.extractJSONCell(ctx, c, lt)
	}
	return it.extractArrowCell(ctx, c, lt)
}

var errIteratorNotPositioned = errorString("extract_cell called before next() positioned the iterator on a row")
var errColumnIndexOutOfRange = errorString("column index out of range")

func (it *Iterator) extractJSONCell(ctx context.Context, c int, lt LogicalType) (any, error) {
	row := it.chunk.jsonBatches[it.batchIndex].rows[it.rowIndex]
	cell := row.Elems[c]
	v, err := decodeJSONScalarOrStructured(ctx, cell, lt, it.chunk.loc)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.ChunkIndex, de.RowIndex, de.ColumnIndex = it.chunk.chunkIndex, it.rowIndex, c
			obslog.CellError(ctx, de.ChunkIndex, de.RowIndex, de.ColumnIndex, de)
			return nil, de
		}
		de := newDecodeError(it.chunk.chunkIndex, it.rowIndex, c, ErrInvalidEncoding, err)
		obslog.CellError(ctx, it.chunk.chunkIndex, it.rowIndex, c, de)
		return nil, de
	}
	return v, nil
}

func (it *Iterator) extractArrowCell(ctx context.Context, c int, lt LogicalType) (any, error) {
	slot := &it.cache.slots[c]
	if !slot.materialized {
		col := it.chunk.arrowBatches[it.batchIndex].Column(c)
		values, err := materializeArrowColumn(ctx, col, lt, it.chunk.loc)
		if err != nil {
			de, ok := err.(*DecodeError)
			if ok {
				de.ChunkIndex, de.RowIndex, de.ColumnIndex = it.chunk.chunkIndex, it.rowIndex, c
			} else {
				de = newDecodeError(it.chunk.chunkIndex, it.rowIndex, c, ErrUnsupportedType, err)
			}
			obslog.CellError(ctx, de.ChunkIndex, de.RowIndex, de.ColumnIndex, de)
			return nil, de
		}
		slot.values = values
		slot.materialized = true
	}
	if it.rowIndex >= len(slot.values) {
		de := newDecodeError(it.chunk.chunkIndex, it.rowIndex, c, ErrCacheInvariantViolated, errCacheRowOutOfRange)
		obslog.CellError(ctx, de.ChunkIndex, de.RowIndex, de.ColumnIndex, de)
		return nil, de
	}
	return slot.values[it.rowIndex], nil
}

var errCacheRowOutOfRange = errorString("column cache row index out of range for current batch")

// materializeArrowColumn decodes an entire Arrow column into a dense
// native slice, one entry per row, applying the Scalar Converter (or,
// for structured kinds carried as JSON text over Arrow, deferring to the
// JSON decode path on the cell's string content).
func materializeArrowColumn(ctx context.Context, col arrow.Array, lt LogicalType, loc *time.Location) ([]any, error) {
	n := col.Len()
	out := make([]any, n)

	if lt.IsContainer() {
		strCol, ok := col.(*array.String)
		if !ok {
			return nil, unsupportedKindError(lt.Kind)
		}
		structuredEnabled := decodeopts.StructuredTypesEnabled(ctx)
		for i := 0; i < n; i++ {
			if strCol.IsNull(i) {
				continue
			}
			if !structuredEnabled {
				out[i] = strCol.Value(i)
				continue
			}
			v, err := ParseJSON([]byte(strCol.Value(i)))
			if err != nil {
				return nil, &DecodeError{Kind: ErrInvalidEncoding, Cause: err}
			}
			decoded, err := decodeStructured(ctx, v, lt, loc)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}

	if err := assertKindSupported(lt.Kind); err != nil {
		return nil, err
	}

	switch lt.Kind {
	case kind.Fixed:
		return materializeFixedColumn(ctx, col, lt)
	case kind.Real:
		arr, ok := col.(*array.Float64)
		if !ok {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = arr.Value(i)
			}
		}
	case kind.Boolean:
		arr, ok := col.(*array.Boolean)
		if !ok {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = arr.Value(i)
			}
		}
	case kind.Text:
		switch arr := col.(type) {
		case *array.String:
			for i := 0; i < n; i++ {
				if !arr.IsNull(i) {
					out[i] = decodeText(ctx, arr.Value(i))
				}
			}
		case *array.LargeString:
			for i := 0; i < n; i++ {
				if !arr.IsNull(i) {
					out[i] = decodeText(ctx, arr.Value(i))
				}
			}
		default:
			return nil, unsupportedKindError(lt.Kind)
		}
	case kind.Binary:
		arr, ok := col.(*array.Binary)
		if !ok {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = append([]byte(nil), arr.Value(i)...)
			}
		}
	case kind.Date:
		arr, ok := col.(*array.Date32)
		if !ok {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = ConvertDate(int32(arr.Value(i)))
			}
		}
	case kind.Time:
		switch arr := col.(type) {
		case *array.Int64:
			for i := 0; i < n; i++ {
				if !arr.IsNull(i) {
					out[i] = ConvertTime(arr.Value(i), lt.Scale)
				}
			}
		case *array.Int32:
			for i := 0; i < n; i++ {
				if !arr.IsNull(i) {
					out[i] = ConvertTime(int64(arr.Value(i)), lt.Scale)
				}
			}
		default:
			return nil, unsupportedKindError(lt.Kind)
		}
	case kind.TimestampNtz:
		return materializeTimestampColumn(col, lt, nil)
	case kind.TimestampLtz:
		return materializeTimestampColumn(col, lt, loc)
	case kind.TimestampTz:
		return materializeTimestampTzColumn(col, lt)
	}
	return out, nil
}

func decodeText(ctx context.Context, s string) string {
	if !utf8ValidationWanted(ctx) {
		return s
	}
	return toValidUTF8(s)
}

func materializeFixedColumn(ctx context.Context, col arrow.Array, lt LogicalType) ([]any, error) {
	n := col.Len()
	out := make([]any, n)
	switch arr := col.(type) {
	case *array.Int8:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				v, err := ConvertFixedInt64(int64(arr.Value(i)), lt.Scale)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
	case *array.Int16:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				v, err := ConvertFixedInt64(int64(arr.Value(i)), lt.Scale)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
	case *array.Int32:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				v, err := ConvertFixedInt64(int64(arr.Value(i)), lt.Scale)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
	case *array.Int64:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				v, err := ConvertFixedInt64(arr.Value(i), lt.Scale)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
	case *array.Decimal128:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = NewDecimal(arr.Value(i).BigInt(), lt.Scale)
			}
		}
	case *array.Decimal256:
		for i := 0; i < n; i++ {
			if !arr.IsNull(i) {
				out[i] = NewDecimal(arr.Value(i).BigInt(), lt.Scale)
			}
		}
	default:
		return nil, unsupportedKindError(lt.Kind)
	}
	return out, nil
}

func materializeTimestampColumn(col arrow.Array, lt LogicalType, loc *time.Location) ([]any, error) {
	n := col.Len()
	out := make([]any, n)
	render := func(epoch, frac int64) time.Time {
		if loc != nil {
			return ConvertTimestampLtzStruct(epoch, frac, loc)
		}
		return ConvertTimestampNtzStruct(epoch, frac)
	}
	if structArr, ok := col.(*array.Struct); ok {
		epochField, ok1 := structArr.Field(0).(*array.Int64)
		fracField, ok2 := structArr.Field(1).(*array.Int32)
		if !ok1 || !ok2 {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !structArr.IsNull(i) {
				out[i] = render(epochField.Value(i), int64(fracField.Value(i)))
			}
		}
		return out, nil
	}
	arr, ok := col.(*array.Int64)
	if !ok {
		return nil, unsupportedKindError(lt.Kind)
	}
	for i := 0; i < n; i++ {
		if !arr.IsNull(i) {
			epoch, frac := SplitEpochFraction(arr.Value(i), lt.Scale)
			out[i] = render(epoch, frac)
		}
	}
	return out, nil
}

func materializeTimestampTzColumn(col arrow.Array, lt LogicalType) ([]any, error) {
	structArr, ok := col.(*array.Struct)
	if !ok {
		return nil, unsupportedKindError(lt.Kind)
	}
	n := structArr.Len()
	out := make([]any, n)
	switch structArr.NumField() {
	case 2:
		valueField, ok1 := structArr.Field(0).(*array.Int64)
		offsetField, ok2 := structArr.Field(1).(*array.Int32)
		if !ok1 || !ok2 {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !structArr.IsNull(i) {
				out[i] = ConvertTimestampTz2Field(valueField.Value(i), offsetField.Value(i), lt.Scale)
			}
		}
	case 3:
		epochField, ok1 := structArr.Field(0).(*array.Int64)
		fracField, ok2 := structArr.Field(1).(*array.Int32)
		offsetField, ok3 := structArr.Field(2).(*array.Int32)
		if !ok1 || !ok2 || !ok3 {
			return nil, unsupportedKindError(lt.Kind)
		}
		for i := 0; i < n; i++ {
			if !structArr.IsNull(i) {
				out[i] = ConvertTimestampTz3Field(epochField.Value(i), int64(fracField.Value(i)), offsetField.Value(i))
			}
		}
	default:
		return nil, newDecodeError(0, 0, 0, ErrInvalidEncoding, errTimestampTzArity)
	}
	return out, nil
}

var errTimestampTzArity = errorString("TIMESTAMP_TZ struct column must have 2 or 3 fields")
