package model

import "time"

// Course and CourseLevel are owned by the content service; this backend only
// reads the columns it needs to price and label an enrollment.
type Course struct {
	ID   string // UUID
	Name string
}

type CourseLevel struct {
	ID             string // UUID
	CourseID       string
	Name           string
	PriceMinor     int64 // minor currency units
	DurationMonths int   // length of one paid access window
}

// AccessDuration returns the plan window as a duration. Months are fixed at
// 30 days so a renewal always extends by the same amount regardless of the
// calendar month it lands in.
func (l CourseLevel) AccessDuration() time.Duration {
	months := l.DurationMonths
	if months <= 0 {
		months = 6
	}
	return time.Duration(months) * 30 * 24 * time.Hour
}
