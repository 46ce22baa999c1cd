// Package modality guesses the recording modality of a run.
// This is part of the Functional Core - no I/O, only pure functions.
package modality

var byTask = map[string]string{
	"t1_anatomy_scan":     "T1w",
	"MP2RAGE":             "T1w",
	"t2_anatomy_scan":     "T2w",
	"t2star_anatomy_scan": "T2star",
	"pd_anatomy_scan":     "PD",
	"ct_anatomy_scan":     "ct",
	"flair_anatomy_scan":  "FLAIR",
	"angiography_scan":    "angio",
	"top_up":              "epi",
	"DTI":                 "dwi",
}

var bySession = map[string]string{
	"IEMU": "ieeg",
	"OR":   "ieeg",
	"MRI":  "bold",
}

// Guess returns the most likely modality for a run of task in a session of
// the given type. The task decides first; the session type is the fallback.
// An empty result means no guess.
func Guess(task, session string) string {
	if m, ok := byTask[task]; ok {
		return m
	}
	return bySession[session]
}

// Anatomical reports whether a task is a structural scan, which is listed
// with its task name rather than a run number.
func Anatomical(task string) bool {
	switch task {
	case "ct_anatomy_scan", "flair_anatomy_scan", "t1_anatomy_scan", "t2_anatomy_scan", "t2star_anatomy_scan", "pd_anatomy_scan", "MP2RAGE":
		return true
	}
	return false
}
