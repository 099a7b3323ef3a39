// Package chunkbatches is the escape hatch onto a result chunk's raw
// Arrow record batches, for callers that want vectorized, columnar access
// instead of going through the per-cell Iterator. It normalizes the
// warehouse's native Arrow encoding (decimal128/256 for FIXED,
// struct-of-int for timestamps, nested struct/list/map for structured
// columns) into an arrow.Record built from standard Arrow types.
package chunkbatches

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	coldwave "github.com/coldwavehq/go-coldwave"
)

// Batch is one raw Arrow record batch of a chunk, paired with the schema
// and session time zone needed to normalize it.
type Batch struct {
	raw       arrow.Record
	schema    []coldwave.LogicalType
	loc       *time.Location
	allocator memory.Allocator
}

// FromChunk returns the raw Arrow batches of chunk, ready to normalize.
// ok is false if chunk's physical encoding is JSON, not Arrow.
func FromChunk(chunk *coldwave.ResultChunk, allocator memory.Allocator) ([]*Batch, bool) {
	records, schema, loc, ok := chunk.RawArrowBatches()
	if !ok {
		return nil, false
	}
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	batches := make([]*Batch, len(records))
	for i, r := range records {
		batches[i] = &Batch{raw: r, schema: schema, loc: loc, allocator: allocator}
	}
	return batches, true
}

// NumRows reports the batch's row count without normalizing it.
func (b *Batch) NumRows() int64 {
	return b.raw.NumRows()
}

// Normalize rewrites the batch's columns into standard Arrow types,
// honoring the timestamp unit, higher-precision, and UTF-8 validation
// options carried on ctx (see WithTimestampOption, WithHigherPrecision,
// WithUtf8Validation). The caller owns the returned record and must
// Release it.
func (b *Batch) Normalize(ctx context.Context) (arrow.Record, error) {
	return normalizeRecord(ctx, b.raw, b.allocator, b.schema, b.loc)
}
