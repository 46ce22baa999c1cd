// Package bids builds BIDS-style export names.
// This is part of the Functional Core - no I/O, only pure functions.
package bids

import (
	"fmt"
	"strings"
)

// Level selects which entities a file name carries and its suffix.
type Level string

// Export levels.
const (
	Base        Level = ""
	Channels    Level = "channels"
	Electrodes  Level = "electrodes"
	Coordsystem Level = "coordsystem"
	Events      Level = "events"
	IEEG        Level = "ieeg"
	EEG         Level = "eeg"
	Physio      Level = "physio"
)

// Name holds the entity values of a BIDS file name. Empty fields are omitted.
type Name struct {
	Sub       string
	Ses       string
	Task      string
	Acq       string
	Rec       string
	Dir       string
	Run       string
	Space     string
	Recording string
}

type entity struct {
	key   string
	value string
}

func (n Name) entities() []entity {
	return []entity{
		{"sub", n.Sub},
		{"ses", n.Ses},
		{"task", n.Task},
		{"acq", n.Acq},
		{"rec", n.Rec},
		{"dir", n.Dir},
		{"run", n.Run},
		{"space", n.Space},
		{"recording", n.Recording},
	}
}

var levels = map[Level]struct {
	keys   []string
	suffix string
}{
	Base:        {[]string{"sub", "ses", "task", "acq", "rec", "dir", "run"}, ""},
	Channels:    {[]string{"sub", "ses", "task", "acq", "run"}, "_channels.tsv"},
	Events:      {[]string{"sub", "ses", "task", "acq", "run"}, "_events.tsv"},
	Electrodes:  {[]string{"sub", "ses", "acq", "space"}, "_electrodes.tsv"},
	Coordsystem: {[]string{"sub", "ses", "acq", "space"}, "_coordsystem.json"},
	IEEG:        {[]string{"sub", "ses", "task", "acq", "run"}, "_ieeg.eeg"},
	EEG:         {[]string{"sub", "ses", "task", "acq", "run"}, "_eeg.eeg"},
	Physio:      {[]string{"sub", "ses", "task", "run", "recording"}, "_physio.tsv.gz"},
}

// Make renders the file name for level.
func (n Name) Make(level Level) (string, error) {
	layout, ok := levels[level]
	if !ok {
		return "", fmt.Errorf("unknown BIDS level %q", level)
	}

	allowed := make(map[string]bool, len(layout.keys))
	for _, k := range layout.keys {
		allowed[k] = true
	}

	var parts []string
	for _, e := range n.entities() {
		if e.value == "" || !allowed[e.key] {
			continue
		}
		parts = append(parts, e.key+"-"+e.value)
	}
	return strings.Join(parts, "_") + layout.suffix, nil
}

// Folder returns the sub-<x>/ses-<y> directory of the name.
func (n Name) Folder() string {
	if n.Ses == "" {
		return "sub-" + n.Sub
	}
	return "sub-" + n.Sub + "/ses-" + n.Ses
}

// RenameTask turns an archive task name into a BIDS label: the "bair_"
// prefix is dropped along with every underscore.
func RenameTask(task string) string {
	task = strings.TrimPrefix(task, "bair_")
	return strings.ReplaceAll(task, "_", "")
}

// Label strips characters BIDS does not allow in entity values.
func Label(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TaskDescription folds the free-text run fields into one description.
func TaskDescription(description, performance, acquisition string) string {
	var parts []string
	for _, s := range []string{description, performance, acquisition} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}
