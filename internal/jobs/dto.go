package jobs

import "time"

type JobResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	SalaryMin   *int      `json:"salaryMin"`
	SalaryMax   *int      `json:"salaryMax"`
	JobType     string    `json:"jobType"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type listQuery struct {
	Status string `form:"status" binding:"omitempty,max=50"`
}

type createJobRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Company     string `json:"company" binding:"omitempty,max=255"`
	Location    string `json:"location" binding:"omitempty,max=255"`
	SalaryMin   *int   `json:"salaryMin" binding:"omitempty,min=0,max=2147483647"`
	SalaryMax   *int   `json:"salaryMax" binding:"omitempty,min=0,max=2147483647"`
	JobType     string `json:"jobType" binding:"omitempty,max=50"`
	Status      string `json:"status" binding:"omitempty,max=50"`
}

type updateJobRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Company     *string `json:"company" binding:"omitempty,max=255"`
	Location    *string `json:"location" binding:"omitempty,max=255"`
	SalaryMin   *int    `json:"salaryMin" binding:"omitempty,min=0,max=2147483647"`
	SalaryMax   *int    `json:"salaryMax" binding:"omitempty,min=0,max=2147483647"`
	JobType     *string `json:"jobType" binding:"omitempty,max=50"`
	Status      *string `json:"status" binding:"omitempty,max=50"`
}

func ToResponse(j Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Company:     j.Company,
		Location:    j.Location,
		SalaryMin:   j.SalaryMin,
		SalaryMax:   j.SalaryMax,
		JobType:     j.JobType,
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
