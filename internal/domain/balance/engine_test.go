package balance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NguyenToan3107/hrm-backend/internal/domain/balance"
)

func pay(p balance.PayKind) *balance.PayKind       { return &p }
func src(s balance.TimeSource) *balance.TimeSource { return &s }

// =============================================================================
// SOURCE RESOLUTION
// =============================================================================

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name  string
		b     balance.Balance
		hours float64
		want  balance.TimeSource
	}{
		{"no carryover", balance.Balance{CurrentYear: 16, LastYear: 0}, 8, balance.SourceCurrentYear},
		{"carryover covers request", balance.Balance{CurrentYear: 2, LastYear: 8}, 8, balance.SourceLastYear},
		{"carryover exactly covers", balance.Balance{CurrentYear: 0, LastYear: 4}, 4, balance.SourceLastYear},
		{"request straddles buckets", balance.Balance{CurrentYear: 6, LastYear: 2}, 8, balance.SourceBoth},
		{"empty balance", balance.Balance{}, 4, balance.SourceCurrentYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, balance.ResolveSource(tt.b, tt.hours))
		})
	}
}

// =============================================================================
// DEBIT / CREDIT
// =============================================================================

func TestDebitDrainsCarryoverFirst(t *testing.T) {
	b := balance.Debit(balance.Balance{CurrentYear: 2, LastYear: 6}, 8)
	assert.Equal(t, 0.0, b.LastYear)
	assert.Equal(t, 0.0, b.CurrentYear)
}

func TestDebitLeavesCarryoverRemainder(t *testing.T) {
	b := balance.Debit(balance.Balance{CurrentYear: 8, LastYear: 12}, 4)
	assert.Equal(t, 8.0, b.LastYear)
	assert.Equal(t, 8.0, b.CurrentYear)
}

func TestDebitClampsCurrentYearAtZero(t *testing.T) {
	b := balance.Debit(balance.Balance{CurrentYear: 2, LastYear: 0}, 8)
	assert.Equal(t, 0.0, b.CurrentYear)
	assert.Equal(t, 0.0, b.LastYear)
}

func TestDebitNeverGoesNegative(t *testing.T) {
	for _, start := range []balance.Balance{
		{CurrentYear: 0, LastYear: 0},
		{CurrentYear: 4, LastYear: 0},
		{CurrentYear: 0, LastYear: 4},
		{CurrentYear: 2, LastYear: 2},
		{CurrentYear: 12, LastYear: 6},
	} {
		for _, hours := range []float64{4, 8} {
			b := balance.Debit(start, hours)
			assert.GreaterOrEqual(t, b.CurrentYear, 0.0, "start=%+v hours=%v", start, hours)
			assert.GreaterOrEqual(t, b.LastYear, 0.0, "start=%+v hours=%v", start, hours)
		}
	}
}

func TestDebitCreditRoundTrip(t *testing.T) {
	// Debiting h hours and crediting them back to the recorded source must
	// restore the balance exactly whenever h fits in the combined balance.
	starts := []balance.Balance{
		{CurrentYear: 8, LastYear: 0},
		{CurrentYear: 0, LastYear: 8},
		{CurrentYear: 2, LastYear: 6},
		{CurrentYear: 6, LastYear: 4},
	}
	for _, start := range starts {
		for _, hours := range []float64{4, 8} {
			if hours > start.Total() {
				continue
			}
			source := balance.ResolveSource(start, hours)
			debited := balance.Debit(start, hours)
			restored := balance.Credit(debited, hours, source)
			if source == balance.SourceBoth {
				// An even split restores the total; the per-bucket shape can
				// shift when the straddle was uneven.
				assert.Equal(t, start.Total(), restored.Total(), "start=%+v hours=%v", start, hours)
				continue
			}
			assert.Equal(t, start, restored, "start=%+v hours=%v source=%v", start, hours, source)
		}
	}
}

func TestCreditBothSplitsEvenly(t *testing.T) {
	b := balance.Credit(balance.Balance{}, 8, balance.SourceBoth)
	assert.Equal(t, 4.0, b.CurrentYear)
	assert.Equal(t, 4.0, b.LastYear)
}

// =============================================================================
// New leave decisions.
// =============================================================================

func TestDecideNewLeave_FullDayFromCurrentYear(t *testing.T) {
	// Official employee, 8h current-year, all-day request.
	d := balance.DecideNewLeave(balance.EmploymentOfficial, balance.Balance{CurrentYear: 8}, balance.ShiftAllDay)

	assert.Equal(t, balance.PayPaid, d.Pay)
	assert.Equal(t, balance.SourceCurrentYear, d.Source)
	assert.Equal(t, 8.0, d.Debited)
	assert.Equal(t, balance.Balance{}, d.Balance)
}

func TestDecideNewLeave_StraddlesBothBuckets(t *testing.T) {
	// 2h current + 6h carryover, all-day request: drain carryover, then rest.
	d := balance.DecideNewLeave(balance.EmploymentOfficial, balance.Balance{CurrentYear: 2, LastYear: 6}, balance.ShiftAllDay)

	assert.Equal(t, balance.PayPaid, d.Pay)
	assert.Equal(t, balance.SourceBoth, d.Source)
	assert.Equal(t, balance.Balance{}, d.Balance)
}

func TestDecideNewLeave_NonOfficialAlwaysUnpaid(t *testing.T) {
	for _, emp := range []balance.Employment{balance.EmploymentIntern, balance.EmploymentProbation} {
		start := balance.Balance{CurrentYear: 40, LastYear: 16}
		d := balance.DecideNewLeave(emp, start, balance.ShiftAllDay)

		assert.Equal(t, balance.PayUnpaid, d.Pay, "employment=%v", emp)
		assert.Equal(t, start, d.Balance, "employment=%v", emp)
		assert.Zero(t, d.Debited, "employment=%v", emp)
	}
}

func TestDecideNewLeave_InsufficientBalanceDowngradesToUnpaid(t *testing.T) {
	start := balance.Balance{CurrentYear: 4}
	d := balance.DecideNewLeave(balance.EmploymentOfficial, start, balance.ShiftAllDay)

	assert.Equal(t, balance.PayUnpaid, d.Pay)
	assert.Equal(t, start, d.Balance)

	// The same balance still funds a half day.
	d = balance.DecideNewLeave(balance.EmploymentOfficial, start, balance.ShiftMorning)
	assert.Equal(t, balance.PayPaid, d.Pay)
	assert.Equal(t, 0.0, d.Balance.CurrentYear)
}

func TestDecideNewLeave_RecordsSourceEvenWhenUnpaid(t *testing.T) {
	d := balance.DecideNewLeave(balance.EmploymentProbation, balance.Balance{LastYear: 8}, balance.ShiftMorning)
	assert.Equal(t, balance.PayUnpaid, d.Pay)
	assert.Equal(t, balance.SourceLastYear, d.Source)
}

// =============================================================================
// CANCELLATION DECISIONS
// =============================================================================

func TestDecideCancellation_RefundsPaidAllDay(t *testing.T) {
	d := balance.DecideCancellation(balance.ShiftAllDay, pay(balance.PayPaid), src(balance.SourceCurrentYear), balance.Balance{})

	assert.Equal(t, 8.0, d.Credited)
	assert.Equal(t, 8.0, d.Balance.CurrentYear)
	assert.Equal(t, 0.0, d.Balance.LastYear)
}

func TestDecideCancellation_SplitsBothSourceRefund(t *testing.T) {
	d := balance.DecideCancellation(balance.ShiftAllDay, pay(balance.PayPaid), src(balance.SourceBoth), balance.Balance{})

	require.Equal(t, 8.0, d.Credited)
	assert.Equal(t, 4.0, d.Balance.CurrentYear)
	assert.Equal(t, 4.0, d.Balance.LastYear)
}

func TestDecideCancellation_HalfDayRefund(t *testing.T) {
	d := balance.DecideCancellation(balance.ShiftAfternoon, pay(balance.PayPaid), src(balance.SourceLastYear), balance.Balance{CurrentYear: 2})

	assert.Equal(t, 4.0, d.Credited)
	assert.Equal(t, balance.Balance{CurrentYear: 2, LastYear: 4}, d.Balance)
}

func TestDecideCancellation_NeverChargedIsIdempotent(t *testing.T) {
	start := balance.Balance{CurrentYear: 6, LastYear: 2}

	d := balance.DecideCancellation(balance.ShiftAllDay, nil, nil, start)
	assert.Zero(t, d.Credited)
	assert.Equal(t, start, d.Balance)

	d = balance.DecideCancellation(balance.ShiftAllDay, pay(balance.PayUnpaid), src(balance.SourceCurrentYear), start)
	assert.Zero(t, d.Credited)
	assert.Equal(t, start, d.Balance)
}
