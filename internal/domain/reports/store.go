package reports

import (
	"context"
	"time"

	"github.com/NguyenToan3107/hrm-backend/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// MonthlyRows sums approved leave hours per employee over one calendar
// month. Soft-deleted records (absorbed merge halves) are excluded, so a
// merged day counts once as the surviving all-day record.
func (s *Store) MonthlyRows(ctx context.Context, year int, month time.Month) ([]MonthlyRow, error) {
	query := `
    SELECT u.idkey, u.fullname, u.status_working,
           COALESCE(SUM(CASE WHEN l.pay = 1 THEN CASE WHEN l.shift = 0 THEN 8 ELSE 4 END ELSE 0 END), 0) AS paid_hours,
           COALESCE(SUM(CASE WHEN l.pay = 0 THEN CASE WHEN l.shift = 0 THEN 8 ELSE 4 END ELSE 0 END), 0) AS unpaid_hours,
           u.time_off_hours, u.last_year_time_off
    FROM users u
    JOIN leaves l ON l.user_id = u.id
    WHERE u.deleted = false AND l.deleted = false
      AND l.status = 1
      AND l.leave_date >= $1 AND l.leave_date < $2
    GROUP BY u.idkey, u.fullname, u.status_working, u.time_off_hours, u.last_year_time_off
    ORDER BY u.idkey`

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.DB.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyRow
	for rows.Next() {
		var r MonthlyRow
		if err := rows.Scan(&r.IDKey, &r.FullName, &r.Employment, &r.PaidHours, &r.UnpaidHours,
			&r.Remaining.CurrentYear, &r.Remaining.LastYear); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
