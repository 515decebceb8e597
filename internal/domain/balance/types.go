package balance

// Standard leave duration units, in hours.
const (
	HoursAllDay  = 8.0
	HoursHalfDay = 4.0
)

// Shift is the portion of a day a leave covers.
type Shift int8

const (
	ShiftAllDay    Shift = 0
	ShiftMorning   Shift = 1
	ShiftAfternoon Shift = 2
)

// Hours returns the chargeable duration of the shift.
func (s Shift) Hours() float64 {
	if s == ShiftAllDay {
		return HoursAllDay
	}
	return HoursHalfDay
}

func (s Shift) Valid() bool {
	return s == ShiftAllDay || s == ShiftMorning || s == ShiftAfternoon
}

func (s Shift) String() string {
	switch s {
	case ShiftAllDay:
		return "all-day"
	case ShiftMorning:
		return "morning"
	case ShiftAfternoon:
		return "afternoon"
	}
	return "unknown"
}

// Status is the approval state of a leave request.
type Status int8

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	}
	return "unknown"
}

// PayKind marks whether a leave draws from the employee's balance. A leave
// record carries *PayKind: nil until approved, and cleared again on refund.
type PayKind int8

const (
	PayUnpaid PayKind = 0
	PayPaid   PayKind = 1
)

func (p PayKind) String() string {
	if p == PayPaid {
		return "paid"
	}
	return "unpaid"
}

// TimeSource names the bucket(s) a paid leave was funded from. Recorded at
// approval time so a later refund can route hours back correctly.
type TimeSource int8

const (
	SourceCurrentYear TimeSource = 1
	SourceLastYear    TimeSource = 2
	SourceBoth        TimeSource = 3
)

func (t TimeSource) String() string {
	switch t {
	case SourceCurrentYear:
		return "current-year"
	case SourceLastYear:
		return "last-year"
	case SourceBoth:
		return "both"
	}
	return "unknown"
}

// CancelState is the side channel tracking an employee's request to cancel
// an already-submitted leave.
type CancelState int8

const (
	CancelNone       CancelState = 0
	CancelRequesting CancelState = 1
	CancelSkipped    CancelState = 2
	CancelConfirmed  CancelState = 3
)

func (c CancelState) String() string {
	switch c {
	case CancelNone:
		return "none"
	case CancelRequesting:
		return "requesting"
	case CancelSkipped:
		return "cancelled-by-admin"
	case CancelConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// Employment is the working status of an employee. Only official employees
// draw paid leave from their balance.
type Employment int8

const (
	EmploymentIntern    Employment = 1
	EmploymentProbation Employment = 2
	EmploymentOfficial  Employment = 3
)

func (e Employment) Valid() bool {
	return e >= EmploymentIntern && e <= EmploymentOfficial
}

func (e Employment) String() string {
	switch e {
	case EmploymentIntern:
		return "intern"
	case EmploymentProbation:
		return "probation"
	case EmploymentOfficial:
		return "official"
	}
	return "unknown"
}

// Balance is an employee's two PTO buckets, in hours. It is passed by value
// into the decision functions; callers persist the returned snapshot.
type Balance struct {
	CurrentYear float64 `json:"currentYear"`
	LastYear    float64 `json:"lastYear"`
}

// Total is the combined hours available across both buckets.
func (b Balance) Total() float64 {
	return b.CurrentYear + b.LastYear
}
