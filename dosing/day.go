package dosing

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar date value (the key type for all per-day usage maps)
// =============================================================================

// Day is an immutable calendar date. It is a plain (year, month, day) tuple
// so it can be used directly as a map key; two Days constructed from the same
// calendar date always compare equal with ==, regardless of the time zone the
// source timestamp carried.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	// Normalize through time.Date so NewDay(2024, time.January, 32) means Feb 1.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DayOf extracts the calendar date a timestamp falls on, in the timestamp's
// own location. A reading taken at 23:30 local time belongs to that local
// calendar day even if it is already "tomorrow" in UTC.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func Today() Day { return DayOf(time.Now()) }

// ParseDay parses the wire/storage form "2006-01-02".
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns the day as a UTC midnight instant, for arithmetic and storage.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Day) Before(other Day) bool        { return d.Time().Before(other.Time()) }
func (d Day) After(other Day) bool         { return d.Time().After(other.Time()) }
func (d Day) Equal(other Day) bool         { return d == other }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d == other }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d == other }
func (d Day) IsZero() bool                 { return d == Day{} }

// Arithmetic
func (d Day) AddDays(n int) Day   { return DayOf(d.Time().AddDate(0, 0, n)) }
func (d Day) AddMonths(n int) Day { return DayOf(d.Time().AddDate(0, n, 0)) }

func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Day) String() string { return d.Time().Format("2006-01-02") }

// DaysBetween returns the whole days from one date to another (negative when
// to precedes from). Both ends are UTC midnights so the division is exact.
func DaysBetween(from, to Day) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

// =============================================================================
// MONTH KEY - Reporting period boundary
// =============================================================================

// MonthKey identifies one calendar month. Like Day it is a comparable tuple,
// used as the key for monthly report rows and snapshots.
type MonthKey struct {
	Year  int
	Month time.Month
}

func NewMonthKey(year int, month time.Month) MonthKey {
	d := NewDay(year, month, 1)
	return MonthKey{Year: d.Year, Month: d.Month}
}

func MonthOf(d Day) MonthKey { return MonthKey{Year: d.Year, Month: d.Month} }

func (m MonthKey) Start() Day { return NewDay(m.Year, m.Month, 1) }

// End returns the last day of the month.
func (m MonthKey) End() Day { return NewDay(m.Year, m.Month+1, 1).AddDays(-1) }

// DaysIn returns the number of calendar days in the month.
func (m MonthKey) DaysIn() int { return m.End().Day }

// Days enumerates every calendar day of the month in order.
func (m MonthKey) Days() []Day {
	out := make([]Day, 0, m.DaysIn())
	for d := m.Start(); d.Month == m.Month; d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (m MonthKey) Contains(d Day) bool { return d.Year == m.Year && d.Month == m.Month }
func (m MonthKey) Next() MonthKey      { return NewMonthKey(m.Year, m.Month+1) }
func (m MonthKey) Prev() MonthKey      { return NewMonthKey(m.Year, m.Month-1) }

func (m MonthKey) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// =============================================================================
// WEEK WINDOW - Half-open [start, start+7) range
// =============================================================================

// WeekWindow is the seven-day half-open range used by weekly parameter
// records and weekly usage rollups. A day d is covered when
// start <= d < start+7.
type WeekWindow struct {
	Start Day
}

func (w WeekWindow) End() Day { return w.Start.AddDays(7) }

func (w WeekWindow) Contains(d Day) bool {
	return d.AfterOrEqual(w.Start) && d.Before(w.End())
}

// Days enumerates the seven covered days in order.
func (w WeekWindow) Days() []Day {
	out := make([]Day, 0, 7)
	for d := w.Start; d.Before(w.End()); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
