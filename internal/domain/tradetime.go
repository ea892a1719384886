package domain

import "time"

// Date and time-of-day layouts accepted from execution sources.
var (
	dayLayouts   = []string{"2006-01-02", "2006/01/02"}
	clockLayouts = []string{"15:04:05", "15:04"}
)

// TradeTime is a calendar day with an optional time-of-day. Either part may
// be unknown: sources often omit the time, and unparsable fields degrade to
// "unknown" instead of failing the batch. Matching then falls back to
// input-order sorting and omits durations — it never errors on a bad
// timestamp.
type TradeTime struct {
	Day      time.Time     // UTC midnight; zero when the date is unknown
	Clock    time.Duration // offset from midnight; meaningful only when HasClock
	HasClock bool
}

// ParseTradeTime builds a TradeTime from raw date and time-of-day strings.
// It is tolerant: a field that is empty or matches no known layout is left
// unknown rather than reported as an error.
func ParseTradeTime(day, clock string) TradeTime {
	var t TradeTime

	for _, layout := range dayLayouts {
		d, err := time.Parse(layout, day)
		if err != nil {
			continue
		}
		t.Day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		break
	}

	if clock != "" {
		for _, layout := range clockLayouts {
			c, err := time.Parse(layout, clock)
			if err != nil {
				continue
			}
			t.Clock = time.Duration(c.Hour())*time.Hour +
				time.Duration(c.Minute())*time.Minute +
				time.Duration(c.Second())*time.Second
			t.HasClock = true
			break
		}
	}

	return t
}

// HasDay reports whether the calendar day is known.
func (t TradeTime) HasDay() bool {
	return !t.Day.IsZero()
}

// Instant returns the full timestamp when both the day and the time-of-day
// are known. Callers must not conflate a missing instant with midnight.
func (t TradeTime) Instant() (time.Time, bool) {
	if !t.HasDay() || !t.HasClock {
		return time.Time{}, false
	}
	return t.Day.Add(t.Clock), true
}

// DayString returns the day as "2006-01-02", or "" when unknown.
func (t TradeTime) DayString() string {
	if !t.HasDay() {
		return ""
	}
	return t.Day.Format("2006-01-02")
}

// ClockString returns the time-of-day as "15:04:05", or "" when unknown.
func (t TradeTime) ClockString() string {
	if !t.HasClock {
		return ""
	}
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(t.Clock).Format("15:04:05")
}

// String renders the known parts, e.g. "2024-03-05 14:30:00".
func (t TradeTime) String() string {
	switch {
	case t.HasDay() && t.HasClock:
		return t.DayString() + " " + t.ClockString()
	case t.HasDay():
		return t.DayString()
	case t.HasClock:
		return t.ClockString()
	}
	return "unknown"
}
