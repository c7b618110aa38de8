package domain

import "time"

// WorkingHours defines a branch's opening window for one day of the week
// (0=Sunday .. 6=Saturday). Times are "HH:MM" local to the branch.
type WorkingHours struct {
	ID        string
	BranchID  string
	DayOfWeek int
	OpenTime  string
	CloseTime string
	IsClosed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Holiday marks a fully non-working date. BranchID nil means the holiday
// applies organization-wide. Recurring holidays repeat every year on the
// same month and day.
type Holiday struct {
	ID          string
	BranchID    *string
	Name        string
	Date        time.Time
	IsRecurring bool
	CreatedAt   time.Time
}
