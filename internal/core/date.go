package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

var errZeroDate = errors.New("date cannot be zero")

type (
	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	// Month identifies one calendar month.
	Month struct {
		Year  int
		Month int // 1-12
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDay)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (used for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as "YYYY-MM-DD", or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// CalendarMonth returns the month the date falls in.
func (d Date) CalendarMonth() Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// AddDays moves the date by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonthsClamped moves the date by n months keeping the day of month,
// clamped to the last day of the target month (Jan 31 + 1 -> Feb 28/29).
func (d Date) AddMonthsClamped(n int) Date {
	target := Month{Year: d.Year(), Month: d.Month()}.Add(n)
	day := d.Day()
	if last := target.Days(); day > last {
		day = last
	}
	return NewDate(target.Year, target.Month, day)
}

// DaysUntil returns the number of days from d to other, inclusive of both ends.
func (d Date) DaysUntil(other Date) int {
	if other.Before(d.Time) {
		return 0
	}
	return int(other.Sub(d.Time).Hours()/24) + 1
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthOf builds a Month, normalizing out-of-range months.
func MonthOf(year, month int) Month {
	return Month{Year: year, Month: 1}.Add(month - 1)
}

// Add moves the month by n (which may be negative).
func (m Month) Add(n int) Month {
	idx := m.Year*12 + (m.Month - 1) + n
	y, mo := idx/12, idx%12
	if mo < 0 {
		mo += 12
		y--
	}
	return Month{Year: y, Month: mo + 1}
}

// Next returns the following month.
func (m Month) Next() Month {
	return m.Add(1)
}

// Start is the first day of the month.
func (m Month) Start() Date {
	return NewDate(m.Year, m.Month, 1)
}

// End is the last day of the month.
func (m Month) End() Date {
	return NewDate(m.Year, m.Month+1, 0)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.End().Day()
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}
