package dayoff

import "time"

// Kind classifies a declared calendar entry: a company day off, or a
// make-up working day falling on a weekend.
type Kind int8

const (
	KindNone   Kind = 0
	KindOff    Kind = 1
	KindMakeup Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindOff:
		return "off"
	case KindMakeup:
		return "make-up"
	}
	return "none"
}

type DayOff struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Kind        Kind      `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
