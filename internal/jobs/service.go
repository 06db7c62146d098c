package jobs

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"ui-agent-backend/internal/shared/telemetry"
)

const (
	maxTitleLen  = 255
	maxStatusLen = 50
)

// MaxSalary is the largest salary the integer columns can hold.
const MaxSalary = math.MaxInt32

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) List(ctx context.Context, status string) ([]Job, error) {
	return s.Repo.List(ctx, strings.TrimSpace(status))
}

func (s *Service) Get(ctx context.Context, id string) (Job, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Job{}, invalidInput("id must be a UUID")
	}
	return s.Repo.GetByID(ctx, parsed.String())
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Job, error) {
	now := s.now()
	job := Job{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		SalaryMin:   in.SalaryMin,
		SalaryMax:   in.SalaryMax,
		JobType:     strings.TrimSpace(in.JobType),
		Status:      strings.TrimSpace(in.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if job.Status == "" {
		job.Status = StatusActive
	}
	if err := validate(job); err != nil {
		return Job{}, err
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("jobs.create", map[string]any{"job_id": job.ID, "status": job.Status})
	return job, nil
}

// Update applies the non-nil fields of in. The merged job is validated as a whole.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	setTrimmed(&job.Title, in.Title)
	setTrimmed(&job.Description, in.Description)
	setTrimmed(&job.Company, in.Company)
	setTrimmed(&job.Location, in.Location)
	setTrimmed(&job.JobType, in.JobType)
	setTrimmed(&job.Status, in.Status)
	if in.SalaryMin != nil {
		job.SalaryMin = in.SalaryMin
	}
	if in.SalaryMax != nil {
		job.SalaryMax = in.SalaryMax
	}
	if err := validate(job); err != nil {
		return Job{}, err
	}
	if now := s.now(); now.After(job.UpdatedAt) {
		job.UpdatedAt = now
	}
	if err := s.Repo.Update(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Delete removes the job permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return invalidInput("id must be a UUID")
	}
	id = parsed.String()
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	telemetry.Info("jobs.delete", map[string]any{"job_id": id})
	return nil
}

func validate(job Job) error {
	switch {
	case job.Title == "":
		return invalidInput("title is required")
	case len(job.Title) > maxTitleLen:
		return invalidInput("title must be at most %d characters", maxTitleLen)
	case job.Status == "":
		return invalidInput("status must not be blank")
	case len(job.Status) > maxStatusLen:
		return invalidInput("status must be at most %d characters", maxStatusLen)
	case job.SalaryMin != nil && *job.SalaryMin < 0:
		return invalidInput("salaryMin must not be negative")
	case job.SalaryMax != nil && *job.SalaryMax < 0:
		return invalidInput("salaryMax must not be negative")
	case job.SalaryMin != nil && *job.SalaryMin > MaxSalary:
		return invalidInput("salaryMin must be at most %d", MaxSalary)
	case job.SalaryMax != nil && *job.SalaryMax > MaxSalary:
		return invalidInput("salaryMax must be at most %d", MaxSalary)
	case job.SalaryMin != nil && job.SalaryMax != nil && *job.SalaryMin > *job.SalaryMax:
		return invalidInput("salaryMin must not exceed salaryMax")
	}
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
