// Package marker extracts reminder markers of the form
// "@[DD.MM[.YYYY] ]HH:MM" from free-form messages and resolves them
// into absolute minute-granularity timestamps.
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout renders a resolved timestamp as "DD.MM.YYYY HH:MM".
const TimeLayout = "02.01.2006 15:04"

const (
	dateLayout  = "02.01.2006"
	parseLayout = "02.01.2006 15:04:05"
)

// markerRe matches the first marker in a message: an optional date token
// (day.month with an optional year) followed by a mandatory HH:MM time.
var markerRe = regexp.MustCompile(`@(?:(\d{2}\.\d{2}(?:\.\d{4})?)\s+)?(\d{2}:\d{2})`)

// ErrInvalidTimestamp reports a marker that matched the grammar but does not
// resolve to a real calendar date and time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Event is a reminder extracted from a message. Text keeps the full original
// message; Date is empty when the marker carried no date token.
type Event struct {
	Text string
	Time string
	Date string
}

// Parse extracts the first marker from text. The match is purely syntactic:
// values like "31.02" or "25:99" pass here and fail later in Resolve.
// A message without a marker is not an error, it is plain chat.
func Parse(text string) (Event, bool) {
	m := markerRe.FindStringSubmatch(text)
	if m == nil {
		return Event{}, false
	}
	return Event{Text: text, Time: m[2], Date: m[1]}, true
}

// Resolve turns a parsed event into an absolute timestamp, filling in an
// absent date with now's calendar date and an absent year with now's year.
// It returns the timestamp both rendered in TimeLayout and as a local time
// truncated to the minute.
func Resolve(ev Event, now time.Time) (string, time.Time, error) {
	date := ev.Date
	switch {
	case date == "":
		date = now.Format(dateLayout)
	case strings.Count(date, ".") == 1:
		date = fmt.Sprintf("%s.%d", date, now.Year())
	}

	composed := fmt.Sprintf("%s %s:00", date, ev.Time)
	due, err := time.ParseInLocation(parseLayout, composed, now.Location())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %s %s", ErrInvalidTimestamp, date, ev.Time)
	}
	return due.Format(TimeLayout), due, nil
}
