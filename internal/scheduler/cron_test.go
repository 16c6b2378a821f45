package scheduler

import (
	"testing"
	"time"
)

func TestParsePassSchedule(t *testing.T) {
	valid := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 3 * * 1",
		"30 12 1 6 *",
	}
	for _, expr := range valid {
		if _, err := ParsePassSchedule(expr); err != nil {
			t.Errorf("expected %q to parse, got %v", expr, err)
		}
	}

	invalid := []string{
		"",
		"* * * *",        // too few fields
		"* * * * * *",    // seconds field is not accepted
		"61 * * * *",     // minute out of range
		"@every banana",  // malformed descriptor
		"not a schedule",
	}
	for _, expr := range invalid {
		if _, err := ParsePassSchedule(expr); err == nil {
			t.Errorf("expected %q to be rejected", expr)
		}
	}
}

func TestParsePassSchedule_NextTick(t *testing.T) {
	schedule, err := ParsePassSchedule("*/15 * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from := time.Date(2025, 6, 1, 12, 7, 30, 0, time.UTC)
	next := schedule.Next(from)
	want := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected next tick %v, got %v", want, next)
	}
}

func TestValidatePassSchedule(t *testing.T) {
	if err := ValidatePassSchedule("*/10 * * * *"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePassSchedule("no"); err == nil {
		t.Error("expected validation error")
	}
}

func TestNewRunner_BadExpression(t *testing.T) {
	s := New(Config{})
	if _, err := NewRunner(s, "* * *", nil); err == nil {
		t.Error("expected error for malformed cron expression")
	}
}
