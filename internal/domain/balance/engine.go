package balance

// ResolveSource labels which bucket(s) a charge of the given hours would
// draw from, without mutating the balance. Carried-over hours are always
// spent before current-year hours.
func ResolveSource(b Balance, hours float64) TimeSource {
	switch {
	case b.LastYear == 0:
		return SourceCurrentYear
	case b.LastYear >= hours:
		return SourceLastYear
	default:
		return SourceBoth
	}
}

// Debit removes hours from the balance, draining the last-year bucket first.
// The current-year bucket is clamped at zero: an overdraw is silently
// discarded rather than signalled, matching the accounting rules this
// system inherited. See DESIGN.md.
func Debit(b Balance, hours float64) Balance {
	switch {
	case b.LastYear == 0:
		b.CurrentYear -= hours
	case b.LastYear >= hours:
		b.LastYear -= hours
	default:
		remainder := hours - b.LastYear
		b.LastYear = 0
		b.CurrentYear -= remainder
	}
	if b.CurrentYear < 0 {
		b.CurrentYear = 0
	}
	return b
}

// Credit returns hours to the bucket(s) named by source. A charge recorded
// against both buckets is refunded in even halves.
func Credit(b Balance, hours float64, source TimeSource) Balance {
	switch source {
	case SourceCurrentYear:
		b.CurrentYear += hours
	case SourceLastYear:
		b.LastYear += hours
	case SourceBoth:
		b.CurrentYear += hours / 2
		b.LastYear += hours / 2
	}
	return b
}

// Decision is the outcome of approving a leave that stands alone on its day.
type Decision struct {
	Pay     PayKind
	Source  TimeSource
	Debited float64
	Balance Balance
}

// DecideNewLeave computes pay kind, funding source and the resulting balance
// for a leave with no approved counterpart on the same day. Non-official
// employees and requests exceeding the combined balance resolve to unpaid
// with no debit.
func DecideNewLeave(emp Employment, b Balance, shift Shift) Decision {
	hours := shift.Hours()
	decision := Decision{
		Pay:     PayUnpaid,
		Source:  ResolveSource(b, hours),
		Balance: b,
	}
	if emp == EmploymentOfficial && b.Total() >= hours {
		decision.Pay = PayPaid
		decision.Balance = Debit(b, hours)
		decision.Debited = hours
	}
	return decision
}

// CancelDecision is the outcome of rejecting a previously approved leave.
type CancelDecision struct {
	Credited float64
	Balance  Balance
}

// DecideCancellation refunds an approved leave's charge to the bucket(s) it
// was drawn from. A leave that never charged the balance (unpaid, or still
// pending when cancelled) produces no change.
func DecideCancellation(shift Shift, pay *PayKind, source *TimeSource, b Balance) CancelDecision {
	decision := CancelDecision{Balance: b}
	if pay == nil || *pay != PayPaid || source == nil {
		return decision
	}
	hours := shift.Hours()
	decision.Balance = Credit(b, hours, *source)
	decision.Credited = hours
	return decision
}
