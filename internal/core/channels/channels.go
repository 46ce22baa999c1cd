// Package channels derives physiological channel types and contact groups
// from vendor channel labels.
// This is part of the Functional Core - no I/O, only pure functions.
package channels

import (
	"fmt"
	"regexp"
	"strings"
)

// Channel types.
const (
	ECOG  = "ECOG"
	SEEG  = "SEEG"
	ECG   = "ECG"
	EMG   = "EMG"
	EOG   = "EOG"
	MISC  = "MISC"
	TRIG  = "TRIG"
	OTHER = "OTHER"
)

// NotApplicable is the group of channels that belong to no contact group.
const NotApplicable = "n/a"

var (
	contactPattern   = regexp.MustCompile(`^([A-Za-z ]+)\d+`)
	referencePattern = regexp.MustCompile(`^[Rr][1-9]`)
)

var triggerLabels = map[string]bool{"MKR1+": true, "MKR2+": true}

var gazeLabels = map[string]bool{"wangl": true, "wangr": true}

var emgPrefixes = []string{"kin", "emg", "arm", "nek"}

// Classify returns the physiological type of one label. Rules are evaluated
// top to bottom and the first match wins.
func Classify(label string) string {
	lower := strings.ToLower(label)

	switch {
	case label == "":
		return OTHER
	case referencePattern.MatchString(label):
		return MISC
	case triggerLabels[label]:
		return TRIG
	case strings.Contains(label, "..."):
		return OTHER
	case gazeLabels[lower]:
		return MISC
	case strings.HasPrefix(lower, "ah"), strings.HasPrefix(lower, "ecg"), strings.HasPrefix(lower, "ekg"):
		return ECG
	case hasAnyPrefix(lower, emgPrefixes), label == "MOND":
		return EMG
	case strings.HasPrefix(lower, "orb"), strings.HasPrefix(lower, "eog"):
		return EOG
	case strings.HasPrefix(label, "el"), strings.HasPrefix(label, "x"):
		return OTHER
	case strings.HasSuffix(label, "+"), strings.HasSuffix(label, "-"):
		return OTHER
	case strings.HasPrefix(label, "D"):
		return SEEG
	case contactPattern.MatchString(label):
		return ECOG
	}
	return OTHER
}

// ClassifyAll classifies every label.
func ClassifyAll(labels []string) []string {
	types := make([]string, len(labels))
	for i, l := range labels {
		types[i] = Classify(l)
	}
	return types
}

// Groupable reports whether channels of this type are clustered into groups.
func Groupable(chanType string) bool {
	return chanType == ECOG || chanType == SEEG
}

// Prefix returns the alphabetic prefix of a contact label, "" when the label
// does not have the prefix-plus-number shape.
func Prefix(label string) string {
	m := contactPattern.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return m[1]
}

// Groups assigns each label to a contact group. Every groupable label whose
// prefix is shared lands in the same group; everything else gets
// NotApplicable. types must be parallel to labels.
func Groups(labels, types []string) []string {
	names := make(map[string]bool)
	for i, label := range labels {
		if Groupable(types[i]) {
			if p := Prefix(label); p != "" {
				names[p] = true
			}
		}
	}

	groups := make([]string, len(labels))
	for i, label := range labels {
		groups[i] = NotApplicable
		if !Groupable(types[i]) {
			continue
		}
		if p := Prefix(label); names[p] {
			groups[i] = p
		}
	}
	return groups
}

// Derive classifies labels and groups them in one step.
func Derive(labels []string) (types, groups []string) {
	types = ClassifyAll(labels)
	return types, Groups(labels, types)
}

// BackfillNames gives every empty label a synthetic chan<N> name, N being the
// 1-based position.
func BackfillNames(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			l = fmt.Sprintf("chan%d", i+1)
		}
		out[i] = l
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
