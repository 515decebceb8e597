package reports

import "github.com/NguyenToan3107/hrm-backend/internal/domain/balance"

// MonthlyRow aggregates one employee's approved leave hours for a month.
type MonthlyRow struct {
	IDKey       string             `json:"idkey"`
	FullName    string             `json:"fullname"`
	Employment  balance.Employment `json:"-"`
	PaidHours   float64            `json:"paidHours"`
	UnpaidHours float64            `json:"unpaidHours"`
	Remaining   balance.Balance    `json:"remaining"`
}

type MonthlySummary struct {
	Year        int          `json:"year"`
	Month       int          `json:"month"`
	Rows        []MonthlyRow `json:"rows"`
	TotalPaid   float64      `json:"totalPaid"`
	TotalUnpaid float64      `json:"totalUnpaid"`
}
