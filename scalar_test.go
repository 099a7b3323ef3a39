package coldwave

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/coldwavehq/go-coldwave/internal/decodeopts"
)

// Scenario 1: Fixed-point with scale.
func TestConvertFixedInt64WithScale(t *testing.T) {
	v, err := ConvertFixedInt64(12345, 2)
	if err != nil {
		t.Fatalf("ConvertFixedInt64: %v", err)
	}
	d, ok := v.(Decimal)
	if !ok {
		t.Fatalf("expected Decimal, got %T", v)
	}
	if got, want := d.String(), "123.45"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Scenario 6: Time, scale=6.
func TestConvertTimeScale6(t *testing.T) {
	d := ConvertTime(51_605_000_000, 6)
	want := 14*time.Hour + 20*time.Minute + 5*time.Second
	if d != want {
		t.Fatalf("got %v, want %v", d, want)
	}
}

// Scenario 2: TimestampTz 2-field struct.
func TestConvertTimestampTz2FieldScenario(t *testing.T) {
	got := ConvertTimestampTz2Field(1_720_705_205_000_000_000, 1740, 9)
	want := time.Date(2024, 7, 11, 18, 40, 5, 0, FixedOffsetLocation(300))
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if name := got.Location().String(); name != "+05:00" {
		t.Fatalf("unexpected zone name %q", name)
	}
}

func TestEpochFractionRoundTrip(t *testing.T) {
	for _, scale := range []int{0, 3, 6, 9} {
		for _, raw := range []int64{0, 1, 1_234_567_890, -1} {
			epoch, frac := SplitEpochFraction(raw, scale)
			got := PackEpochFraction(epoch, frac, scale)
			if got != raw {
				t.Fatalf("scale=%d raw=%d: round-trip got %d", scale, raw, got)
			}
		}
	}
}

func TestConvertFixedExactDecimalAcrossScales(t *testing.T) {
	x := big.NewInt(123456789)
	for scale := 0; scale <= 18; scale++ {
		v, err := ConvertFixed(x, scale)
		if err != nil {
			t.Fatalf("scale=%d: %v", scale, err)
		}
		if scale == 0 {
			if v.(int64) != 123456789 {
				t.Fatalf("scale=0: got %v", v)
			}
			continue
		}
		d := v.(Decimal)
		want := new(big.Rat).SetFrac(x, pow10Big(scale))
		if d.Rat().Cmp(want) != 0 {
			t.Fatalf("scale=%d: got %v, want exact %v", scale, d.Rat(), want)
		}
	}
}

func pow10Big(scale int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
}

func TestWidenFixedLosslessOnlyFailsOnFraction(t *testing.T) {
	d := NewDecimal(big.NewInt(1), 1) // 0.1, not integral
	ctx := decodeopts.WithDecimalWideningPolicy(context.Background(), decodeopts.LosslessOnly)
	if _, err := WidenFixed(ctx, d); err == nil {
		t.Fatal("expected an error under LosslessOnly for a non-integral decimal")
	}
}

func TestWidenFixedAllowsDoubleFallback(t *testing.T) {
	d := NewDecimal(big.NewInt(1), 1) // 0.1
	ctx := decodeopts.WithDecimalWideningPolicy(context.Background(), decodeopts.AllowDoubleFallback)
	v, err := WidenFixed(ctx, d)
	if err != nil {
		t.Fatalf("WidenFixed: %v", err)
	}
	if _, ok := v.(float64); !ok {
		t.Fatalf("expected float64 fallback, got %T", v)
	}
}

func TestConvertDateIsUTCMidnight(t *testing.T) {
	got := ConvertDate(0)
	want := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFixedOffsetLocationZoneName(t *testing.T) {
	cases := map[int]string{
		0:    "+00:00",
		300:  "+05:00",
		-480: "-08:00",
	}
	for offset, want := range cases {
		loc := FixedOffsetLocation(offset)
		if got := loc.String(); got != want {
			t.Fatalf("offset=%d: got %q, want %q", offset, got, want)
		}
	}
}
