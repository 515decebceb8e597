package jobs

import (
	"fmt"
	"time"
)

// Period functions map a wall-clock instant to the period key a job should
// run for, or "" when the job is not due. The scheduler records the key in
// job_runs so a restart on the trigger day does not re-run the batch.

func MonthlyGrantPeriod(now time.Time) string {
	if now.Day() != 1 {
		return ""
	}
	return now.Format("2006-01")
}

func CarryoverResetPeriod(now time.Time) string {
	if now.Month() != time.July || now.Day() != 1 {
		return ""
	}
	return fmt.Sprintf("%d", now.Year())
}

func YearRolloverPeriod(now time.Time) string {
	if now.Month() != time.January || now.Day() != 1 {
		return ""
	}
	// the rollover moves the previous year's remainder into the carried
	// bucket, so the period is named after the year being closed
	return fmt.Sprintf("%d", now.Year()-1)
}
