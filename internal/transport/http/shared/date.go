package shared

import "time"

// ParseDate accepts RFC3339, DD/MM/YYYY, or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("02/01/2006", value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseTimestamp parses the concurrency token clients echo back from
// list/detail responses.
func ParseTimestamp(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
