package gaps

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseDate parses a calendar date. Empty input is not an error, it is an
// absent date; ok distinguishes the two.
func parseDate(raw string) (t time.Time, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// YearMonth is a whole-month calendar difference.
type YearMonth struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// dateGap returns the calendar difference between the end of the previous
// stage and the start of the next one.
//
// Returns (nil, false) when either date is absent or the end is
// chronologically after the start: a negative gap is not an error, it is
// reported as no gap. Returns (nil, true) only when a present date fails to
// parse. The difference is a proper calendar subtraction: if the start's
// day-of-month is before the end's, one month is borrowed.
func dateGap(endOfPrevious, startOfNext string) (gap *YearMonth, invalid bool) {
	end, endOK, endErr := parseDate(endOfPrevious)
	start, startOK, startErr := parseDate(startOfNext)
	if endErr != nil || startErr != nil {
		return nil, true
	}
	if !endOK || !startOK {
		return nil, false
	}
	if end.After(start) {
		return nil, false
	}

	years := start.Year() - end.Year()
	months := int(start.Month()) - int(end.Month())
	if start.Day() < end.Day() {
		months--
	}
	if months < 0 {
		months += 12
		years--
	}
	return &YearMonth{Years: years, Months: months}, false
}

// calendarDiff is the verbose year/month/day difference from one date to a
// later one. Whole months are counted with day-of-month clamping (Jan 31
// plus one month lands on the last day of February), and the day component
// is the remainder past the last whole month, so it is never negative.
func calendarDiff(from, to time.Time) (years, months, days int) {
	total := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if addMonths(from, total).After(to) {
		total--
	}
	days = int(to.Sub(addMonths(from, total)).Hours() / 24)
	return total / 12, total % 12, days
}

// addMonths advances by whole months, clamping the day to the target
// month's length.
func addMonths(t time.Time, n int) time.Time {
	year := t.Year()
	month := int(t.Month()) + n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	day := t.Day()
	if last := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// verboseGap renders "<Y> year(s) <M> month(s) <D> day(s)" omitting
// zero-valued components.
func verboseGap(years, months, days int) string {
	var parts []string
	if years > 0 {
		parts = append(parts, fmt.Sprintf("%d year(s)", years))
	}
	if months > 0 {
		parts = append(parts, fmt.Sprintf("%d month(s)", months))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d day(s)", days))
	}
	if len(parts) == 0 {
		return NoGap
	}
	return strings.Join(parts, " ")
}
