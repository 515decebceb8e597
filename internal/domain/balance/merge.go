package balance

import "errors"

// Conflict errors returned by ResolveMergeConflict. Morning and afternoon
// duplicates are distinct so the API can report which half is taken.
var (
	ErrShiftExistsOnDay    = errors.New("an all-day leave already exists on this day")
	ErrMorningShiftTaken   = errors.New("a morning leave already exists on this day")
	ErrAfternoonShiftTaken = errors.New("an afternoon leave already exists on this day")
)

// ResolveMergeConflict decides whether a second request may join an existing
// approved leave on the same day. It returns nil exactly when the two are
// complementary half days.
func ResolveMergeConflict(existing, requested Shift) error {
	if existing == ShiftAllDay {
		return ErrShiftExistsOnDay
	}
	if requested == existing {
		if requested == ShiftMorning {
			return ErrMorningShiftTaken
		}
		return ErrAfternoonShiftTaken
	}
	return nil
}

// MergeInput describes the approved first half-day leave and the employee's
// state at the moment the complementary half is approved.
type MergeInput struct {
	Employment  Employment
	Balance     Balance
	FirstPay    PayKind
	FirstSource TimeSource
}

// MergeDecision is the recomputed state of the first leave after it absorbs
// the second half of the day.
type MergeDecision struct {
	Pay      PayKind
	Source   TimeSource
	Debited  float64
	Refunded float64
	Balance  Balance
}

// DecideMerge folds a complementary half-day request into an existing
// approved leave, recomputing pay for the combined day against the current
// total balance rather than the balance at first approval.
//
// Pay rules for official employees:
//   - first half unpaid: the combined day becomes paid only when the total
//     balance exceeds one half day, and then charges the full day;
//   - first half paid: the day stays paid when the total balance still
//     covers one half day, charging only the additional half; otherwise the
//     combined day downgrades to unpaid.
//
// Non-official employees always merge to unpaid.
//
// When the first half was paid but the merged day cannot stay paid for that
// charge (balance exhausted, or the employee is no longer official), the
// first half's charge is returned to the bucket it was drawn from. The
// downgrade branch for an official employee with a short balance does not
// re-credit the earlier charge; that asymmetry is inherited behavior kept
// under product review. See DESIGN.md.
func DecideMerge(in MergeInput) MergeDecision {
	total := in.Balance.Total()
	newSource := ResolveSource(in.Balance, HoursHalfDay)

	decision := MergeDecision{
		Pay:     PayUnpaid,
		Source:  in.FirstSource,
		Balance: in.Balance,
	}

	if in.Employment == EmploymentOfficial {
		if in.FirstPay == PayUnpaid {
			if total > HoursHalfDay {
				decision.Pay = PayPaid
				decision.Balance = Debit(decision.Balance, HoursAllDay)
				decision.Debited = HoursAllDay
			}
		} else {
			if total >= HoursHalfDay {
				decision.Pay = PayPaid
				decision.Balance = Debit(decision.Balance, HoursHalfDay)
				decision.Debited = HoursHalfDay
			}
		}
	}

	if in.FirstPay == PayPaid {
		if total == 0 {
			decision.Balance = Credit(decision.Balance, HoursHalfDay, in.FirstSource)
			decision.Refunded += HoursHalfDay
		}
		if total >= HoursHalfDay && in.Employment != EmploymentOfficial {
			decision.Balance = Credit(decision.Balance, HoursHalfDay, in.FirstSource)
			decision.Refunded += HoursHalfDay
		}
	}

	if newSource != in.FirstSource {
		decision.Source = SourceBoth
	}
	return decision
}
