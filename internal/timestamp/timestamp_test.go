package timestamp

import (
	"errors"
	"testing"
	"time"
)

func TestEncode_ConvertsToUTC(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2026-01-22 09:30 EST = 14:30 UTC
	in := time.Date(2026, 1, 22, 9, 30, 0, 0, newYork)

	got, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	stored, ok := got.(time.Time)
	if !ok {
		t.Fatalf("Encode() returned %T, want time.Time", got)
	}

	want := time.Date(2026, 1, 22, 14, 30, 0, 0, time.UTC)
	if !stored.Equal(want) {
		t.Errorf("stored = %v, want %v", stored, want)
	}
	if stored.Location() != time.UTC {
		t.Errorf("stored location = %v, want UTC", stored.Location())
	}
}

func TestEncode_Nil(t *testing.T) {
	var nilTime *time.Time

	testCases := []struct {
		name  string
		input any
	}{
		{name: "untyped nil", input: nil},
		{name: "nil pointer", input: nilTime},
		{name: "invalid UTC", input: UTC{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.input)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != nil {
				t.Errorf("Encode() = %v, want nil", got)
			}
		})
	}
}

func TestEncode_RejectsNaiveText(t *testing.T) {
	testCases := []string{
		"2026-01-22T09:30:00",
		"2026-01-22 09:30:00",
		"2026-01-22T09:30:00.123456",
	}

	for _, input := range testCases {
		t.Run(input, func(t *testing.T) {
			got, err := Encode(input)
			if !errors.Is(err, ErrNaive) {
				t.Fatalf("Encode(%q) error = %v, want ErrNaive", input, err)
			}
			if got != nil {
				t.Errorf("Encode(%q) = %v, want nothing written", input, got)
			}
		})
	}
}

func TestEncode_AcceptsAwareText(t *testing.T) {
	got, err := Encode("2026-01-22T09:30:00-05:00")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := time.Date(2026, 1, 22, 14, 30, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Errorf("Encode() = %v, want %v", got, want)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	if _, err := Encode(42); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Encode(42) error = %v, want ErrUnsupported", err)
	}
}

func TestDecode_ReattachesUTC(t *testing.T) {
	// Drivers may attach their own zone to a naive column; the wall clock wins.
	stored := time.Date(2026, 7, 4, 12, 0, 0, 0, time.FixedZone("driver", 3*3600))

	got, ok, err := Decode(stored)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}

	want := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Decode() = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
}

func TestDecode_Text(t *testing.T) {
	want := time.Date(2026, 7, 4, 12, 0, 5, 250000000, time.UTC)

	testCases := []string{
		"2026-07-04 12:00:05.25",
		"2026-07-04 12:00:05.25+00:00",
		"2026-07-04T12:00:05.25Z",
	}

	for _, input := range testCases {
		t.Run(input, func(t *testing.T) {
			got, ok, err := Decode(input)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !ok || !got.Equal(want) {
				t.Errorf("Decode() = %v, %v, want %v, true", got, ok, want)
			}
		})
	}
}

func TestDecode_Nil(t *testing.T) {
	got, ok, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ok || !got.IsZero() {
		t.Errorf("Decode(nil) = %v, %v, want zero, false", got, ok)
	}
}

func TestRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 8, 6, 59, 59, 999999000, time.UTC)

	stored, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, ok, err := Decode(stored)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !ok {
		t.Fatal("Decode() ok = false")
	}
	if !got.Equal(original) || got.Location() != time.UTC {
		t.Errorf("round trip = %v (%v), want %v (UTC)", got, got.Location(), original)
	}
}

func TestUTC_ValueAndScan(t *testing.T) {
	original := From(time.Date(2026, 10, 15, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600)))

	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var scanned UTC
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if !scanned.Equal(original) {
		t.Errorf("scanned = %v, want %v", scanned.Time, original.Time)
	}
	if scanned.Time.Hour() != 6 {
		t.Errorf("scanned hour = %d, want 6 (UTC)", scanned.Time.Hour())
	}

	var null UTC
	if err := null.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if null.Valid {
		t.Error("Scan(nil) produced a valid value")
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("2026-10-15T08:00:00"); !errors.Is(err, ErrNaive) {
		t.Errorf("Parse(naive) error = %v, want ErrNaive", err)
	}

	u, err := Parse("2026-10-15T08:00:00+02:00")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !u.Valid || u.Time.Hour() != 6 {
		t.Errorf("Parse() = %+v, want 06:00 UTC", u)
	}
}
