package dayoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeOracle map[string]Kind

func (f fakeOracle) Declared(_ context.Context, date time.Time) (Kind, error) {
	return f[date.Format("2006-01-02")], nil
}

func TestCheckLeaveDateDeclaredDayOff(t *testing.T) {
	oracle := fakeOracle{"2025-09-02": KindOff}
	date := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	err := CheckLeaveDate(context.Background(), oracle, date)
	if !errors.Is(err, ErrDayOffViolation) {
		t.Fatalf("expected day off violation, got %v", err)
	}
}

func TestCheckLeaveDateWeekend(t *testing.T) {
	date := time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC) // Saturday
	err := CheckLeaveDate(context.Background(), fakeOracle{}, date)
	if !errors.Is(err, ErrWeekendViolation) {
		t.Fatalf("expected weekend violation, got %v", err)
	}
}

func TestCheckLeaveDateMakeupWeekendAllowed(t *testing.T) {
	oracle := fakeOracle{"2025-09-06": KindMakeup}
	date := time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC)

	if err := CheckLeaveDate(context.Background(), oracle, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckLeaveDateOrdinaryWeekday(t *testing.T) {
	date := time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC) // Wednesday
	if err := CheckLeaveDate(context.Background(), fakeOracle{}, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
