package jobs

import "time"

// StatusActive is the default status for new jobs.
const StatusActive = "active"

type Job struct {
	ID          string
	Title       string
	Description string
	Company     string
	Location    string
	SalaryMin   *int
	SalaryMax   *int
	JobType     string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput describes a new job. Status defaults to active.
type CreateInput struct {
	Title       string
	Description string
	Company     string
	Location    string
	SalaryMin   *int
	SalaryMax   *int
	JobType     string
	Status      string
}

// UpdateInput is a partial edit. Nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Company     *string
	Location    *string
	SalaryMin   *int
	SalaryMax   *int
	JobType     *string
	Status      *string
}
