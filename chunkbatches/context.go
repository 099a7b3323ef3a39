package chunkbatches

import (
	"context"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
)

// Timestamp option constants, re-exported for callers that don't want to
// import internal/decodeopts directly.
const (
	UseNanosecondTimestamp  = decodeopts.UseNanosecondTimestamp
	UseMicrosecondTimestamp = decodeopts.UseMicrosecondTimestamp
	UseMillisecondTimestamp = decodeopts.UseMillisecondTimestamp
	UseSecondTimestamp      = decodeopts.UseSecondTimestamp
	UseOriginalTimestamp    = decodeopts.UseOriginalTimestamp
)

// WithTimestampOption returns a context that sets the Arrow timestamp unit
// Normalize converts TimestampNtz/Ltz/Tz columns to.
func WithTimestampOption(ctx context.Context, option decodeopts.TimestampOption) context.Context {
	return decodeopts.WithTimestampOption(ctx, option)
}

// WithHigherPrecision returns a context that leaves FIXED columns as Arrow
// decimal128/decimal256 instead of narrowing them to int64/float64.
func WithHigherPrecision(ctx context.Context) context.Context {
	return decodeopts.WithHigherPrecision(ctx, true)
}

// WithUtf8Validation returns a context that enables UTF-8 re-validation for
// string columns.
func WithUtf8Validation(ctx context.Context) context.Context {
	return decodeopts.WithUtf8Validation(ctx, true)
}
