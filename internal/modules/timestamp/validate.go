package timestamp

import (
	"errors"
	"fmt"
	"time"

	// Embedded zoneinfo so validation does not depend on the host's tzdata
	_ "time/tzdata"
)

const (
	dateLayout = "2006-1-2"
	timeLayout = "15:4"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidFormat   = errors.New("invalid format")
)

// ValidationError is a rejected command argument. Kind is one of the ErrInvalid* values.
type ValidationError struct {
	Kind  error
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Result is a validated timestamp ready for display
type Result struct {
	Unix   int64
	Format string
}

// Markup returns the Discord dynamic timestamp markup, e.g. <t:1752589200:f>
func (r Result) Markup() string {
	return fmt.Sprintf("<t:%d:%s>", r.Unix, r.Format)
}

// Validate checks the arguments in the order date, clock, zone, format and
// reports the first defect. On success it returns the epoch seconds of the
// wall-clock moment date+clock in zone.
func Validate(date, clock, zone, format string) (Result, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return Result{}, &ValidationError{Kind: ErrInvalidDate, Value: date}
	}

	hm, err := time.Parse(timeLayout, clock)
	if err != nil {
		return Result{}, &ValidationError{Kind: ErrInvalidTime, Value: clock}
	}

	loc, err := LoadZone(zone)
	if err != nil {
		return Result{}, &ValidationError{Kind: ErrInvalidTimezone, Value: zone}
	}

	if !IsFormat(format) {
		return Result{}, &ValidationError{Kind: ErrInvalidFormat, Value: format}
	}

	unix := resolveWallClock(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), loc)
	return Result{Unix: unix, Format: format}, nil
}

// resolveWallClock returns the epoch seconds of a wall-clock time in loc.
// A time repeated by a backward transition resolves to the standard offset.
// A time skipped by a forward transition is read with the offset in force
// before the transition, which for a DST start is standard time.
func resolveWallClock(year int, month time.Month, day, hour, minute int, loc *time.Location) int64 {
	naive := time.Date(year, month, day, hour, minute, 0, 0, time.UTC).Unix()
	before := time.Unix(naive-24*60*60, 0).In(loc)
	after := time.Unix(naive+24*60*60, 0).In(loc)

	var valid []time.Time
	for _, side := range []time.Time{before, after} {
		_, offset := side.Zone()
		candidate := time.Unix(naive-int64(offset), 0).In(loc)
		if _, got := candidate.Zone(); got != offset {
			continue
		}
		if len(valid) == 1 && valid[0].Equal(candidate) {
			continue
		}
		valid = append(valid, candidate)
	}

	switch len(valid) {
	case 0:
		_, offset := before.Zone()
		if before.IsDST() && !after.IsDST() {
			_, offset = after.Zone()
		}
		return naive - int64(offset)
	case 1:
		return valid[0].Unix()
	default:
		for _, t := range valid {
			if !t.IsDST() {
				return t.Unix()
			}
		}
		return valid[len(valid)-1].Unix()
	}
}

// LoadZone loads an IANA zone by name. Names that depend on the host or
// only exist in a host's zoneinfo tree are rejected.
func LoadZone(name string) (*time.Location, error) {
	if !IsZoneName(name) {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return time.LoadLocation(name)
}
