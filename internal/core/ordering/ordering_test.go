package ordering

import (
	"slices"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestByTimeMissingLastAndStable(t *testing.T) {
	items := []Timed[string]{
		{Item: "first-none", At: time.Time{}},
		{Item: "2024", At: day("2024-01-01")},
		{Item: "second-none", At: time.Time{}},
		{Item: "2023", At: day("2023-06-01")},
	}

	got := ByTime(items)
	want := []string{"2023", "2024", "first-none", "second-none"}
	if !slices.Equal(got, want) {
		t.Errorf("ByTime = %v, want %v", got, want)
	}

	// Input untouched.
	if items[0].Item != "first-none" {
		t.Error("ByTime mutated its input")
	}
}

func TestByTimeReversedKeepsMissingLast(t *testing.T) {
	items := []Timed[int]{
		{Item: 1},
		{Item: 2, At: day("2020-01-01")},
		{Item: 3, At: day("2022-01-01")},
		{Item: 4},
	}
	got := ByTimeReversed(items)
	want := []int{3, 2, 1, 4}
	if !slices.Equal(got, want) {
		t.Errorf("ByTimeReversed = %v, want %v", got, want)
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []int
	}{
		{"alphabetical", []string{"ieeg", "T1w", "bold"}, []int{2, 0, 1}},
		{"case insensitive", []string{"b", "A", "c"}, []int{1, 0, 2}},
		{"empty last and stable", []string{"", "x", "", "a"}, []int{3, 1, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]Named[int], len(tt.keys))
			for i, k := range tt.keys {
				items[i] = Named[int]{Item: i, Key: k}
			}
			got := ByName(items)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ByName(%v) = %v, want %v", tt.keys, got, tt.want)
			}
		})
	}
}

func TestByNameReversed(t *testing.T) {
	items := []Named[string]{{Item: "a", Key: "a"}, {Item: "none"}, {Item: "c", Key: "c"}}
	got := ByNameReversed(items)
	want := []string{"c", "a", "none"}
	if !slices.Equal(got, want) {
		t.Errorf("ByNameReversed = %v, want %v", got, want)
	}
}

func TestEarliestLatest(t *testing.T) {
	a, b := day("2021-01-01"), day("2022-01-01")

	if got := Earliest(time.Time{}, b, a); !got.Equal(a) {
		t.Errorf("Earliest = %v, want %v", got, a)
	}
	if got := Latest(a, time.Time{}, b); !got.Equal(b) {
		t.Errorf("Latest = %v, want %v", got, b)
	}
	if !Earliest().IsZero() || !Latest(time.Time{}).IsZero() {
		t.Error("no times should yield zero")
	}
}
