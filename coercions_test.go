package coldwave

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCoerceUUIDParsesText(t *testing.T) {
	v, err := CoerceUUID("7b80be82-cbf2-4c2f-8b4b-9e3f9f6bca4c")
	if err != nil {
		t.Fatalf("CoerceUUID: %v", err)
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		t.Fatalf("expected uuid.UUID, got %T", v)
	}
	if id.String() != "7b80be82-cbf2-4c2f-8b4b-9e3f9f6bca4c" {
		t.Fatalf("unexpected uuid: %v", id)
	}
}

func TestCoerceUUIDNilPassesThrough(t *testing.T) {
	v, err := CoerceUUID(nil)
	assertNilF(t, err, "CoerceUUID(nil) error")
	assertNilF(t, v, "CoerceUUID(nil) value")
}

func TestCoerceUUIDRejectsMalformedText(t *testing.T) {
	if _, err := CoerceUUID("not-a-uuid"); err == nil {
		t.Fatal("expected an error for malformed uuid text")
	}
}

func TestCoerceUUIDRejectsNonText(t *testing.T) {
	if _, err := CoerceUUID(42); err == nil {
		t.Fatal("expected an error coercing a non-string value")
	}
}

func TestCoerceIntegerTextParsesInt64(t *testing.T) {
	v, err := CoerceIntegerText("-12345")
	if err != nil {
		t.Fatalf("CoerceIntegerText: %v", err)
	}
	if v.(int64) != -12345 {
		t.Fatalf("got %v, want -12345", v)
	}
}

func TestCoerceIntegerTextRejectsNonInteger(t *testing.T) {
	if _, err := CoerceIntegerText("12.5"); err == nil {
		t.Fatal("expected an error parsing a fractional value as an integer")
	}
}

func TestCoerceDecimalTextInfersScaleFromText(t *testing.T) {
	v, err := CoerceDecimalText("123.45")
	if err != nil {
		t.Fatalf("CoerceDecimalText: %v", err)
	}
	d, ok := v.(Decimal)
	if !ok {
		t.Fatalf("expected Decimal, got %T", v)
	}
	if got := d.String(); got != "123.45" {
		t.Fatalf("got %q, want %q", got, "123.45")
	}
}

func TestCoerceDecimalTextIntegerHasZeroScale(t *testing.T) {
	v, err := CoerceDecimalText("7")
	if err != nil {
		t.Fatalf("CoerceDecimalText: %v", err)
	}
	d, ok := v.(Decimal)
	if !ok {
		t.Fatalf("expected Decimal, got %T", v)
	}
	if got := d.String(); got != "7" {
		t.Fatalf("got %q, want %q", got, "7")
	}
}

func TestCoerceInstantConvertsZone(t *testing.T) {
	naive := time.Date(2024, 7, 11, 14, 20, 5, 0, time.UTC)
	coerce := CoerceInstant(FixedOffsetLocation(300))
	v, err := coerce(naive)
	if err != nil {
		t.Fatalf("CoerceInstant: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", v)
	}
	if !got.Equal(naive) {
		t.Fatalf("instant changed: got %v, want %v", got, naive)
	}
	if got.Location().String() != "+05:00" {
		t.Fatalf("unexpected zone: %v", got.Location())
	}
}

func TestCoerceInstantRejectsNonTime(t *testing.T) {
	coerce := CoerceInstant(time.UTC)
	if _, err := coerce("not a time"); err == nil {
		t.Fatal("expected an error coercing a non-time.Time value")
	}
}
