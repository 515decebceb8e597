package jobs

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestMonthlyGrantPeriod(t *testing.T) {
	if got := MonthlyGrantPeriod(date(2026, time.March, 1)); got != "2026-03" {
		t.Errorf("first of month: got %q", got)
	}
	if got := MonthlyGrantPeriod(date(2026, time.March, 2)); got != "" {
		t.Errorf("mid-month should not be due, got %q", got)
	}
}

func TestCarryoverResetPeriod(t *testing.T) {
	if got := CarryoverResetPeriod(date(2026, time.July, 1)); got != "2026" {
		t.Errorf("july 1: got %q", got)
	}
	if got := CarryoverResetPeriod(date(2026, time.June, 1)); got != "" {
		t.Errorf("june 1 should not be due, got %q", got)
	}
	if got := CarryoverResetPeriod(date(2026, time.July, 2)); got != "" {
		t.Errorf("july 2 should not be due, got %q", got)
	}
}

func TestYearRolloverPeriod(t *testing.T) {
	if got := YearRolloverPeriod(date(2027, time.January, 1)); got != "2026" {
		t.Errorf("jan 1 names the closed year: got %q", got)
	}
	if got := YearRolloverPeriod(date(2027, time.December, 31)); got != "" {
		t.Errorf("dec 31 should not be due, got %q", got)
	}
}
