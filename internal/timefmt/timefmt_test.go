package timefmt

import (
	"testing"
	"time"
)

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "Just now"},
		{"future", -5 * time.Minute, "Just now"},
		{"one minute", time.Minute, "1 minutes ago"},
		{"minutes", 59 * time.Minute, "59 minutes ago"},
		{"hour boundary", 60 * time.Minute, "1 hours ago"},
		{"hours", 23*time.Hour + 59*time.Minute, "23 hours ago"},
		{"yesterday", 24 * time.Hour, "Yesterday"},
		{"yesterday upper", 47 * time.Hour, "Yesterday"},
		{"days", 2 * 24 * time.Hour, "2 days ago"},
		{"six days", 6*24*time.Hour + 23*time.Hour, "6 days ago"},
		{"week old", 7 * 24 * time.Hour, "8 Oct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeLabel(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("RelativeLabel(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}

func TestAbsoluteLabel(t *testing.T) {
	ts := time.Date(2026, time.October, 15, 15, 4, 0, 0, time.UTC)
	if got := AbsoluteLabel(ts); got != "15 Oct 2026, 03:04 pm" {
		t.Errorf("AbsoluteLabel() = %q", got)
	}
	morning := time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC)
	if got := AbsoluteLabel(morning); got != "5 Jan 2026, 09:30 am" {
		t.Errorf("AbsoluteLabel() = %q", got)
	}
}

func TestNewFormatter_Locale(t *testing.T) {
	us, err := NewFormatter("en-US", "UTC")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	ts := time.Date(2026, time.October, 15, 15, 4, 0, 0, time.UTC)
	if got := us.ShortDate(ts); got != "Oct 15" {
		t.Errorf("en-US ShortDate() = %q, want Oct 15", got)
	}
	if got := us.AbsoluteLabel(ts); got != "Oct 15, 2026, 03:04 PM" {
		t.Errorf("en-US AbsoluteLabel() = %q", got)
	}

	in, err := NewFormatter("", "")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if got := in.ShortDate(ts); got != "15 Oct" {
		t.Errorf("default ShortDate() = %q, want 15 Oct", got)
	}
}

func TestNewFormatter_Timezone(t *testing.T) {
	f, err := NewFormatter("en-IN", "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	// 20:00 UTC is 01:30 the next day in IST.
	ts := time.Date(2026, time.October, 15, 20, 0, 0, 0, time.UTC)
	if got := f.AbsoluteLabel(ts); got != "16 Oct 2026, 01:30 am" {
		t.Errorf("AbsoluteLabel() = %q", got)
	}
}

func TestNewFormatter_Invalid(t *testing.T) {
	if _, err := NewFormatter("en-IN", "Mars/Olympus"); err == nil {
		t.Error("expected error for unknown zone")
	}
	if _, err := NewFormatter("not a locale!!", ""); err == nil {
		t.Error("expected error for malformed locale")
	}
}

func TestNilFormatter(t *testing.T) {
	var f *Formatter
	ts := time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)
	if got := f.ShortDate(ts); got != "1 Oct" {
		t.Errorf("nil ShortDate() = %q", got)
	}
}
