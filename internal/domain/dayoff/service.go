package dayoff

import (
	"context"
	"errors"
	"time"
)

// Oracle answers the leave lifecycle's calendar questions. Satisfied by
// *Service; an in-memory fake stands in for it in tests.
type Oracle interface {
	Declared(ctx context.Context, date time.Time) (Kind, error)
}

var (
	ErrDayOffViolation  = errors.New("requested date is a declared day off")
	ErrWeekendViolation = errors.New("requested date falls on a weekend")
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) ListByYear(ctx context.Context, year int) ([]DayOff, error) {
	return s.Store.ListByYear(ctx, year)
}

func (s *Service) Get(ctx context.Context, id string) (DayOff, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, title, description string, dates []time.Time, kind Kind) ([]string, error) {
	ids := make([]string, 0, len(dates))
	for _, date := range dates {
		id, err := s.Store.Create(ctx, title, description, date, kind)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) Update(ctx context.Context, id, title, description string, date time.Time, kind Kind) error {
	return s.Store.Update(ctx, id, title, description, date, kind)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) Declared(ctx context.Context, date time.Time) (Kind, error) {
	return s.Store.Declared(ctx, date)
}

// CheckLeaveDate enforces the calendar rules for a requested leave date: a
// declared day off is never chargeable, and weekends are only chargeable
// when declared as make-up working days.
func CheckLeaveDate(ctx context.Context, oracle Oracle, date time.Time) error {
	kind, err := oracle.Declared(ctx, date)
	if err != nil {
		return err
	}
	switch kind {
	case KindOff:
		return ErrDayOffViolation
	case KindMakeup:
		return nil
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return ErrWeekendViolation
	}
	return nil
}
