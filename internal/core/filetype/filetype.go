// Package filetype maps file paths to the archive's data-type tags.
// This is part of the Functional Core - no I/O, only pure functions.
package filetype

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/example/aspen/internal/errs"
)

// Data-type tags.
const (
	ParRec     = "parrec"
	Nifti      = "nifti"
	BCI2000    = "bci2000"
	Micromed   = "micromed"
	Palmtree   = "palmtree"
	Blackrock  = "blackrock"
	PDF        = "pdf"
	Image      = "image"
	Docx       = "docx"
	Dicom      = "dicom"
	Wave       = "wave"
	Electrodes = "electrodes"
	Cortex     = "cortex"
)

// compound suffixes are checked before the single extension.
var compound = map[string]string{
	".nii.gz": Nifti,
}

var byExtension = map[string]string{
	".par":  ParRec,
	".rec":  ParRec,
	".nii":  Nifti,
	".img":  Nifti,
	".dat":  BCI2000,
	".trc":  Micromed,
	".src":  Palmtree,
	".nev":  Blackrock,
	".ccf":  Blackrock,
	".pdf":  PDF,
	".jpg":  Image,
	".jpeg": Image,
	".png":  Image,
	".doc":  Docx,
	".docx": Docx,
	".wav":  Wave,
}

// matMarkers pick the tag of a .mat file from its name, first match wins.
var matMarkers = []struct {
	marker string
	tag    string
}{
	{"electrodes", Electrodes},
	{"cortex", Cortex},
}

// Vocabulary lists every tag Classify can return.
func Vocabulary() []string {
	return []string{ParRec, Nifti, BCI2000, Micromed, Palmtree, Blackrock, PDF, Image, Docx, Dicom, Wave, Electrodes, Cortex}
}

// Classify returns the data-type tag of path. The extension is matched
// case-insensitively; unknown extensions are a validation error.
func Classify(path string) (string, error) {
	name := strings.ToLower(filepath.Base(path))

	for suffix, tag := range compound {
		if strings.HasSuffix(name, suffix) {
			return tag, nil
		}
	}

	ext := filepath.Ext(name)
	if tag, ok := byExtension[ext]; ok {
		return tag, nil
	}

	switch ext {
	case ".mat":
		for _, m := range matMarkers {
			if strings.Contains(name, m.marker) {
				return m.tag, nil
			}
		}
		return Electrodes, nil
	case "":
		return Dicom, nil
	}

	return "", &errs.ValidationError{
		Kind:      "file",
		Attribute: "path",
		Value:     path,
		Reason:    "unrecognized file type " + strings.TrimPrefix(ext, "."),
	}
}

// SignalFormats are the recording formats whose headers list channels.
func SignalFormats() []string {
	return []string{Blackrock, Micromed, BCI2000}
}

// IsSignal reports whether a tag is a recording format with a readable header.
func IsSignal(tag string) bool {
	return slices.Contains(SignalFormats(), tag)
}
