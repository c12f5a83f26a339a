package model

import (
	"database/sql/driver"
	"fmt"
	"time"
	"venue/shared/constant"
)

// Date is a calendar day with no time zone attached.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(constant.DateOnlyFormat, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	return Date{t: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return d.t.Format(constant.DateOnlyFormat)
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

func (d Date) AddDays(days int) Date {
	return Date{t: d.t.AddDate(0, 0, days)}
}

// At combines the date with a time of day.
func (d Date) At(clock Clock) time.Time {
	return d.t.Add(time.Duration(clock))
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}

	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)

		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}

		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(value string) error {
	if len(value) > len(constant.DateOnlyFormat) {
		value = value[:len(constant.DateOnlyFormat)]
	}

	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Clock is a naive time of day, stored as the offset from midnight.
type Clock time.Duration

const (
	clockStorageFormat = "15:04:05"
	day                = 24 * time.Hour
)

func NewClock(hour, minute int) Clock {
	return Clock(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockOf keeps the wall clock of t and drops its date.
func ClockOf(t time.Time) Clock {
	return Clock(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

func ParseClock(value string) (Clock, error) {
	for _, layout := range []string{constant.ClockFormat, clockStorageFormat} {
		if t, err := time.Parse(layout, value); err == nil {
			return ClockOf(t), nil
		}
	}

	return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
}

func (c Clock) String() string {
	return time.Time{}.Add(time.Duration(c)).Format(constant.ClockFormat)
}

func (c Clock) Valid() bool {
	return c >= 0 && time.Duration(c) < day
}

func (c Clock) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("time of day out of range: %d", int64(c))
	}

	return time.Time{}.Add(time.Duration(c)).Format(clockStorageFormat), nil
}

func (c *Clock) Scan(src any) error {
	var raw string

	switch v := src.(type) {
	case time.Time:
		*c = ClockOf(v)

		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Clock", src)
	}

	if len(raw) > len(clockStorageFormat) {
		raw = raw[:len(clockStorageFormat)]
	}

	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}
