package coerce

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/errs"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		typ   catalog.Type
		value any
	}{
		{"text", catalog.Text, "motor"},
		{"text null", catalog.Text, nil},
		{"float", catalog.Float, 1234.5},
		{"float negative", catalog.Float, -0.25},
		{"float null", catalog.Float, nil},
		{"date", catalog.Date, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"date null", catalog.Date, nil},
		{"datetime", catalog.DateTime, time.Date(2024, 1, 1, 13, 45, 7, 0, time.UTC)},
		{"datetime null", catalog.DateTime, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := In(tt.typ, tt.value)
			if err != nil {
				t.Fatalf("In failed: %v", err)
			}
			native, err := Out(tt.typ, wire)
			if err != nil {
				t.Fatalf("Out failed: %v", err)
			}
			if !equal(native, tt.value) {
				t.Errorf("Out(In(%v)) = %v", tt.value, native)
			}

			again, err := In(tt.typ, native)
			if err != nil {
				t.Fatalf("In (second pass) failed: %v", err)
			}
			if again != wire {
				t.Errorf("In(Out(%v)) = %v, want %v", wire, again, wire)
			}
		})
	}
}

func TestInNormalisesMissing(t *testing.T) {
	tests := []struct {
		name  string
		typ   catalog.Type
		value any
	}{
		{"empty text", catalog.Text, ""},
		{"nan float", catalog.Float, math.NaN()},
		{"empty date string", catalog.Date, ""},
		{"zero time", catalog.DateTime, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := In(tt.typ, tt.value)
			if err != nil {
				t.Fatalf("In failed: %v", err)
			}
			if got != nil {
				t.Errorf("In(%v) = %v, want nil", tt.value, got)
			}
		})
	}
}

func TestOutReadsEmptyTextAsNull(t *testing.T) {
	got, err := Out(catalog.Text, "")
	if err != nil {
		t.Fatalf("Out failed: %v", err)
	}
	if got != nil {
		t.Errorf("Out(\"\") = %q, want nil", got)
	}

	got, err = Out(catalog.Text, []byte("abc"))
	if err != nil {
		t.Fatalf("Out failed: %v", err)
	}
	if got != "abc" {
		t.Errorf("Out([]byte) = %v, want abc", got)
	}
}

func TestDateTimeWireFormat(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 8, 7, 654321000, time.UTC)

	wire, err := In(catalog.DateTime, ts)
	if err != nil {
		t.Fatalf("In failed: %v", err)
	}
	if wire != "2024-03-05T09:08:07" {
		t.Errorf("wire = %v, want second precision without zone", wire)
	}

	wire, err = In(catalog.Date, ts)
	if err != nil {
		t.Fatalf("In failed: %v", err)
	}
	if wire != "2024-03-05" {
		t.Errorf("wire = %v, want 2024-03-05", wire)
	}
}

func TestUnknownTypeIsConfigError(t *testing.T) {
	bogus := catalog.Type("BLOB")

	if _, err := In(bogus, "x"); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("In: expected ErrConfig, got %v", err)
	}
	if _, err := Out(bogus, "x"); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("Out: expected ErrConfig, got %v", err)
	}
	if _, err := Parse(bogus, "x"); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("Parse: expected ErrConfig, got %v", err)
	}
}

func TestWrongNativeTypeIsValidationError(t *testing.T) {
	if _, err := In(catalog.Float, "twelve"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := In(catalog.Date, "01/02/2023"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		typ   catalog.Type
		input string
		want  any
	}{
		{catalog.Text, "hello", "hello"},
		{catalog.Text, "n/a", nil},
		{catalog.Float, "3.5", 3.5},
		{catalog.Float, "NaN", nil},
		{catalog.Date, "2020-02-29", time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{catalog.DateTime, "2020-02-29T10:00:00", time.Date(2020, 2, 29, 10, 0, 0, 0, time.UTC)},
		{catalog.DateTime, "  ", nil},
	}
	for _, tt := range tests {
		got, err := Parse(tt.typ, tt.input)
		if err != nil {
			t.Errorf("Parse(%s, %q) failed: %v", tt.typ, tt.input, err)
			continue
		}
		if !equal(got, tt.want) {
			t.Errorf("Parse(%s, %q) = %v, want %v", tt.typ, tt.input, got, tt.want)
		}
	}

	if _, err := Parse(catalog.Float, "abc"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(catalog.Float, 2.5); got != "2.5" {
		t.Errorf("Format float = %q", got)
	}
	if got := Format(catalog.Date, time.Date(2021, 7, 9, 0, 0, 0, 0, time.UTC)); got != "2021-07-09" {
		t.Errorf("Format date = %q", got)
	}
	if got := Format(catalog.Text, nil); got != "" {
		t.Errorf("Format nil = %q", got)
	}
}

func TestMissing(t *testing.T) {
	if f, ok := Missing(catalog.Float).(float64); !ok || !math.IsNaN(f) {
		t.Errorf("Missing(FLOAT) = %v, want NaN", Missing(catalog.Float))
	}
	if Missing(catalog.Text) != "" {
		t.Errorf("Missing(TEXT) = %v, want empty", Missing(catalog.Text))
	}
	for _, v := range []any{nil, "", math.NaN(), time.Time{}} {
		if !IsMissing(v) {
			t.Errorf("IsMissing(%v) = false", v)
		}
	}
	if IsMissing(0.0) {
		t.Error("zero is a value, not missing")
	}
}

func equal(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}
	return a == b
}
