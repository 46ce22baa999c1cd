package cli

import (
	"fmt"
	"math"
	"time"
)

// requestFromClinic is the METC value that stands for an ad-hoc clinical
// request; it has no signature date worth showing.
const requestFromClinic = "Request from clinic"

const labelDate = "02 Jan 2006"

// SessionLabel renders a session as shown in lists: MRI sessions lead with
// the field strength, BCI sessions show their number and creation date, all
// others show their start date.
func SessionLabel(name string, start time.Time, fieldStrength string, bciNumber float64, bciCreated time.Time) string {
	if name == "BCI" {
		number := "?"
		if !math.IsNaN(bciNumber) {
			number = fmt.Sprintf("%g", bciNumber)
		}
		return fmt.Sprintf("%s # %s (%s)", name, number, dateOrUnknown(bciCreated))
	}

	extra := ""
	if name == "MRI" && fieldStrength != "" {
		extra = fieldStrength + " "
	}
	return fmt.Sprintf("%s%s (%s)", extra, name, dateOrUnknown(start))
}

// ProtocolLabel renders a protocol as "METC (date)".
func ProtocolLabel(metc string, signed time.Time) string {
	if metc == requestFromClinic {
		return metc
	}
	if metc == "" {
		metc = "(untitled)"
	}
	return fmt.Sprintf("%s (%s)", metc, dateOrUnknown(signed))
}

// RunLabel renders the n-th run of a session.
func RunLabel(n int, task string) string {
	return fmt.Sprintf("#%3d: %s", n, task)
}

func dateOrUnknown(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Format(labelDate)
}
