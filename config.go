package coldwave

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
)

// DecodeOptions are the connection-scoped configuration knobs recognized
// by the decoding core. They are loaded once per connection, not per
// chunk, and threaded through context.Context for the lifetime of the
// session.
type DecodeOptions struct {
	StructuredTypesEnabled    bool
	DefaultBinderStrategy     decodeopts.BinderStrategy
	DecimalWideningPolicy     decodeopts.DecimalWideningPolicy
	CaseInsensitiveFieldMatch bool
	HigherPrecisionEnabled    bool
	Utf8ValidationEnabled     bool
}

// DefaultDecodeOptions returns the options recognized by the core at
// their documented defaults.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		StructuredTypesEnabled:    true,
		DefaultBinderStrategy:     decodeopts.PropertiesNames,
		DecimalWideningPolicy:     decodeopts.LosslessOnly,
		CaseInsensitiveFieldMatch: true,
	}
}

// WithContext threads the options onto ctx via the internal/decodeopts
// accessors, so every downstream decode call in this session sees them.
func (o DecodeOptions) WithContext(ctx context.Context) context.Context {
	ctx = decodeopts.WithStructuredTypes(ctx, o.StructuredTypesEnabled)
	ctx = decodeopts.WithBinderStrategy(ctx, o.DefaultBinderStrategy)
	ctx = decodeopts.WithDecimalWideningPolicy(ctx, o.DecimalWideningPolicy)
	ctx = decodeopts.WithCaseInsensitiveFieldMatch(ctx, o.CaseInsensitiveFieldMatch)
	ctx = decodeopts.WithHigherPrecision(ctx, o.HigherPrecisionEnabled)
	ctx = decodeopts.WithUtf8Validation(ctx, o.Utf8ValidationEnabled)
	return ctx
}

// decodeOptionsFile mirrors the on-disk [decode] table shape.
type decodeOptionsFile struct {
	Decode struct {
		StructuredTypesEnabled    *bool   `toml:"structured_types_enabled"`
		DefaultBinderStrategy     *string `toml:"default_binder_strategy"`
		DecimalWideningPolicy     *string `toml:"decimal_widening_policy"`
		CaseInsensitiveFieldMatch *bool   `toml:"case_insensitive_field_match"`
		HigherPrecisionEnabled    *bool   `toml:"higher_precision_enabled"`
		Utf8ValidationEnabled     *bool   `toml:"utf8_validation_enabled"`
	} `toml:"decode"`
}

// LoadDecodeOptions reads a TOML options file, shaped like:
//
//	[decode]
//	structured_types_enabled = true
//	default_binder_strategy = "properties_names"
//	decimal_widening_policy = "lossless_only"
//	case_insensitive_field_match = true
//
// and overlays it on DefaultDecodeOptions. A human-editable local file
// read once at connection startup, never on the hot path — mirroring
// how the surrounding driver reads its own connections.toml.
func LoadDecodeOptions(path string) (DecodeOptions, error) {
	opts := DefaultDecodeOptions()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("coldwave: reading decode options: %w", err)
	}
	var file decodeOptionsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return opts, fmt.Errorf("coldwave: parsing decode options: %w", err)
	}
	if file.Decode.StructuredTypesEnabled != nil {
		opts.StructuredTypesEnabled = *file.Decode.StructuredTypesEnabled
	}
	if file.Decode.CaseInsensitiveFieldMatch != nil {
		opts.CaseInsensitiveFieldMatch = *file.Decode.CaseInsensitiveFieldMatch
	}
	if file.Decode.HigherPrecisionEnabled != nil {
		opts.HigherPrecisionEnabled = *file.Decode.HigherPrecisionEnabled
	}
	if file.Decode.Utf8ValidationEnabled != nil {
		opts.Utf8ValidationEnabled = *file.Decode.Utf8ValidationEnabled
	}
	if file.Decode.DefaultBinderStrategy != nil {
		strategy, err := parseBinderStrategy(*file.Decode.DefaultBinderStrategy)
		if err != nil {
			return opts, err
		}
		opts.DefaultBinderStrategy = strategy
	}
	if file.Decode.DecimalWideningPolicy != nil {
		policy, err := parseDecimalWideningPolicy(*file.Decode.DecimalWideningPolicy)
		if err != nil {
			return opts, err
		}
		opts.DecimalWideningPolicy = policy
	}
	return opts, nil
}

func parseBinderStrategy(s string) (decodeopts.BinderStrategy, error) {
	switch strings.ToLower(s) {
	case "properties_names":
		return decodeopts.PropertiesNames, nil
	case "properties_order":
		return decodeopts.PropertiesOrder, nil
	case "constructor":
		return decodeopts.Constructor, nil
	default:
		return 0, fmt.Errorf("coldwave: unknown default_binder_strategy %q", s)
	}
}

func parseDecimalWideningPolicy(s string) (decodeopts.DecimalWideningPolicy, error) {
	switch strings.ToLower(s) {
	case "lossless_only":
		return decodeopts.LosslessOnly, nil
	case "allow_double_fallback":
		return decodeopts.AllowDoubleFallback, nil
	default:
		return 0, fmt.Errorf("coldwave: unknown decimal_widening_policy %q", s)
	}
}
