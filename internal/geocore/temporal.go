package geocore

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

func parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", s)
}

// collectionExtent converts an interval whose bounds may be open ("") into a
// temporal extent with sentinels. Reversed bounds are swapped.
func collectionExtent(begin, end string) (TemporalExtent, error) {
	ext := TemporalExtent{Begin: UnknownBegin, End: OpenEnd}

	var b, e time.Time
	var err error

	if begin != "" {
		if b, err = parseDatetime(begin); err != nil {
			return ext, fmt.Errorf("temporal extent begin: %w", err)
		}
		ext.Begin = b.Format(dateLayout)
	}

	if end != "" {
		if e, err = parseDatetime(end); err != nil {
			return ext, fmt.Errorf("temporal extent end: %w", err)
		}
		ext.End = e.Format(dateLayout)
	}

	if begin != "" && end != "" && b.After(e) {
		ext.Begin, ext.End = ext.End, ext.Begin
	}

	return ext, nil
}
