// Package timefmt renders notification timestamps as relative ("3 hours ago")
// and absolute ("15 Oct 2026, 03:04 pm") labels.
package timefmt

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
)

// Formatter renders labels for one locale and time zone. The zero value uses
// day-first ordering in UTC.
type Formatter struct {
	loc        *time.Location
	monthFirst bool
}

// regions that write the month before the day.
var monthFirstRegions = map[string]bool{
	"US": true, "PH": true, "CA": true, "FM": true, "MH": true, "PW": true,
}

// NewFormatter builds a Formatter for a BCP 47 locale (e.g. "en-IN") and an
// IANA zone name. Empty values fall back to en-IN and UTC.
func NewFormatter(locale, zone string) (*Formatter, error) {
	f := &Formatter{loc: time.UTC}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", zone, err)
		}
		f.loc = loc
	}
	if locale == "" {
		locale = "en-IN"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	region, _ := tag.Region()
	f.monthFirst = monthFirstRegions[region.String()]
	return f, nil
}

// Default is the en-IN formatter in UTC.
var Default = &Formatter{loc: time.UTC}

func (f *Formatter) location() *time.Location {
	if f == nil || f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// RelativeLabel describes how long before now ts happened. Timestamps in the
// future read as "Just now".
func (f *Formatter) RelativeLabel(ts, now time.Time) string {
	diff := now.Sub(ts)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return f.ShortDate(ts)
}

// ShortDate renders day and abbreviated month, e.g. "15 Oct".
func (f *Formatter) ShortDate(ts time.Time) string {
	t := ts.In(f.location())
	if f != nil && f.monthFirst {
		return t.Format("Jan 2")
	}
	return t.Format("2 Jan")
}

// AbsoluteLabel renders the full date and 12-hour clock time.
func (f *Formatter) AbsoluteLabel(ts time.Time) string {
	t := ts.In(f.location())
	if f != nil && f.monthFirst {
		return t.Format("Jan 2, 2006, 03:04 PM")
	}
	return t.Format("2 Jan 2006, 03:04 pm")
}

// RelativeLabel formats with the Default formatter.
func RelativeLabel(ts, now time.Time) string { return Default.RelativeLabel(ts, now) }

// AbsoluteLabel formats with the Default formatter.
func AbsoluteLabel(ts time.Time) string { return Default.AbsoluteLabel(ts) }
