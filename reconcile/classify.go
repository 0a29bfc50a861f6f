package reconcile

import (
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// ShortMaxDuration is the longest video still counted as a Short.
const ShortMaxDuration = 60 * time.Second

// Classify maps an ISO-8601 duration such as "PT1M5S" to a Kind.
// It never fails: anything that does not parse is treated as a regular video.
func Classify(durationISO string) Kind {
	d, err := ParseDuration(durationISO)
	if err != nil {
		return KindLong
	}
	if d <= ShortMaxDuration {
		return KindShort
	}
	return KindLong
}

// ParseDuration parses an ISO-8601 duration into a time.Duration.
func ParseDuration(s string) (time.Duration, error) {
	d, err := duration.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return d.ToTimeDuration(), nil
}
