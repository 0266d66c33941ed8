package metadata

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatISODuration renders an ISO 8601 duration such as "PT1H2M3S" as
// "1:02:03" ("4:05" when under an hour).
func FormatISODuration(iso string) (string, bool) {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil || iso == "P" || iso == "PT" {
		return "", false
	}

	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	hours := part(m[1])*24 + part(m[2])
	minutes := part(m[3])
	seconds := part(m[4])

	// Normalise values like PT90S.
	minutes += seconds / 60
	seconds %= 60
	hours += minutes / 60
	minutes %= 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds), true
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds), true
}
