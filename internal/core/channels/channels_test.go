package channels

import (
	"slices"
	"testing"
)

func TestDerive(t *testing.T) {
	labels := []string{"LA1", "LA2", "LB1", "MKR1+", "EOGL1"}

	types, groups := Derive(labels)

	wantTypes := []string{ECOG, ECOG, ECOG, TRIG, EOG}
	wantGroups := []string{"LA", "LA", "LB", NotApplicable, NotApplicable}
	if !slices.Equal(types, wantTypes) {
		t.Errorf("types = %v, want %v", types, wantTypes)
	}
	if !slices.Equal(groups, wantGroups) {
		t.Errorf("groups = %v, want %v", groups, wantGroups)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"", OTHER},
		{"R1", MISC},
		{"r5", MISC},
		{"R0", ECOG},
		{"MKR1+", TRIG},
		{"MKR2+", TRIG},
		{"MKR3+", OTHER},
		{"A...", OTHER},
		{"WANGL", MISC},
		{"wangr", MISC},
		{"AH1", ECG},
		{"ECG", ECG},
		{"EKG2", ECG},
		{"KIN1", EMG},
		{"EMGR", EMG},
		{"ARM", EMG},
		{"NEK1", EMG},
		{"MOND", EMG},
		{"ORBL", EOG},
		{"eog2", EOG},
		{"el12", OTHER},
		{"x3", OTHER},
		{"C3-", OTHER},
		{"C4+", OTHER},
		{"D12", SEEG},
		{"Dx", SEEG},
		{"GR12", ECOG},
		{"L A3", ECOG},
		{"Fz", OTHER},
		{"12", OTHER},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := Classify(tt.label); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestGroupsSharePrefixAcrossTypes(t *testing.T) {
	labels := []string{"DA1", "DA2", "GR1", "Dx", "ECG1"}
	types := []string{SEEG, ECOG, ECOG, SEEG, ECG}

	got := Groups(labels, types)
	want := []string{"DA", "DA", "GR", NotApplicable, NotApplicable}
	if !slices.Equal(got, want) {
		t.Errorf("Groups = %v, want %v", got, want)
	}
}

func TestDeriveIsOrderIndependent(t *testing.T) {
	labels := []string{"LA1", "EOGL1", "LB2", "MKR1+", "LA2", "D3"}
	types, groups := Derive(labels)

	perm := []int{5, 3, 1, 4, 0, 2}
	shuffled := make([]string, len(labels))
	for i, p := range perm {
		shuffled[i] = labels[p]
	}
	sTypes, sGroups := Derive(shuffled)

	for i, p := range perm {
		if sTypes[i] != types[p] || sGroups[i] != groups[p] {
			t.Errorf("label %q: got (%s, %s) shuffled, (%s, %s) in order",
				labels[p], sTypes[i], sGroups[i], types[p], groups[p])
		}
	}
}

func TestPrefix(t *testing.T) {
	tests := map[string]string{
		"LA12":  "LA",
		"L A3":  "L A",
		"Dx":    "",
		"12":    "",
		"GR1a2": "GR",
	}
	for label, want := range tests {
		if got := Prefix(label); got != want {
			t.Errorf("Prefix(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestBackfillNames(t *testing.T) {
	got := BackfillNames([]string{"LA1", "", "  ", "LB1"})
	want := []string{"LA1", "chan2", "chan3", "LB1"}
	if !slices.Equal(got, want) {
		t.Errorf("BackfillNames = %v, want %v", got, want)
	}
}
