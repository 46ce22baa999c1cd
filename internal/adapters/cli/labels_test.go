package cli

import (
	"math"
	"testing"
	"time"
)

func TestSessionLabel(t *testing.T) {
	day := time.Date(2021, 3, 9, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		session  string
		start    time.Time
		strength string
		number   float64
		created  time.Time
		want     string
	}{
		{"iemu with date", "IEMU", day, "", math.NaN(), time.Time{}, "IEMU (09 Mar 2021)"},
		{"or without date", "OR", time.Time{}, "", math.NaN(), time.Time{}, "OR (unknown date)"},
		{"mri with strength", "MRI", day, "3T", math.NaN(), time.Time{}, "3T MRI (09 Mar 2021)"},
		{"mri without strength", "MRI", day, "", math.NaN(), time.Time{}, "MRI (09 Mar 2021)"},
		{"bci numbered", "BCI", time.Time{}, "", 4, day, "BCI # 4 (09 Mar 2021)"},
		{"bci unnumbered", "BCI", time.Time{}, "", math.NaN(), time.Time{}, "BCI # ? (unknown date)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionLabel(tt.session, tt.start, tt.strength, tt.number, tt.created)
			if got != tt.want {
				t.Errorf("SessionLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProtocolLabel(t *testing.T) {
	tests := []struct {
		metc   string
		signed time.Time
		want   string
	}{
		{"14-090", time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC), "14-090 (02 Jan 2015)"},
		{"14-090", time.Time{}, "14-090 (unknown date)"},
		{"Request from clinic", time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC), "Request from clinic"},
		{"", time.Time{}, "(untitled) (unknown date)"},
	}

	for _, tt := range tests {
		if got := ProtocolLabel(tt.metc, tt.signed); got != tt.want {
			t.Errorf("ProtocolLabel(%q) = %q, want %q", tt.metc, got, tt.want)
		}
	}
}

func TestRunLabel(t *testing.T) {
	if got := RunLabel(3, "motor"); got != "#  3: motor" {
		t.Errorf("RunLabel() = %q", got)
	}
	if got := RunLabel(120, "rest"); got != "#120: rest" {
		t.Errorf("RunLabel() = %q", got)
	}
}
