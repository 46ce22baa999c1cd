package modality

import "testing"

func TestGuess(t *testing.T) {
	tests := []struct {
		task    string
		session string
		want    string
	}{
		{"t1_anatomy_scan", "MRI", "T1w"},
		{"MP2RAGE", "MRI", "T1w"},
		{"t2star_anatomy_scan", "MRI", "T2star"},
		{"ct_anatomy_scan", "CT", "ct"},
		{"top_up", "MRI", "epi"},
		{"DTI", "MRI", "dwi"},
		{"motor", "IEMU", "ieeg"},
		{"motor", "OR", "ieeg"},
		{"bair_hrfpattern", "MRI", "bold"},
		{"motor", "BCI", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Guess(tt.task, tt.session); got != tt.want {
			t.Errorf("Guess(%q, %q) = %q, want %q", tt.task, tt.session, got, tt.want)
		}
	}
}

func TestAnatomical(t *testing.T) {
	if !Anatomical("t1_anatomy_scan") || !Anatomical("MP2RAGE") {
		t.Error("structural scans should be anatomical")
	}
	if Anatomical("motor") || Anatomical("top_up") {
		t.Error("functional tasks are not anatomical")
	}
}
