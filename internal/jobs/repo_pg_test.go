package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var jobCols = []string{"id", "title", "description", "company", "location", "salary_min", "salary_max", "job_type", "status", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &PGRepo{DB: conn}, mock
}

func TestPGRepoCreateWritesNullsForEmptyFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	min := 50000
	job := Job{ID: "j-1", Title: "Engineer", SalaryMin: &min, Status: StatusActive, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("j-1", "Engineer", nil, nil, nil, int64(50000), nil, nil, "active", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(jobCols).
		AddRow("j-1", "Engineer", nil, "Acme", nil, nil, int64(90000), "full-time", "active", now, now)
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id = \\$1").WithArgs("j-1").WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Company != "Acme" || job.Description != "" || job.SalaryMin != nil {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.SalaryMax == nil || *job.SalaryMax != 90000 {
		t.Fatalf("expected salary max 90000, got %v", job.SalaryMax)
	}
}

func TestPGRepoGetMissingIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id").WithArgs("nope").WillReturnRows(sqlmock.NewRows(jobCols))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE status = \\$1 ORDER BY created_at, id").
		WithArgs("closed").
		WillReturnRows(sqlmock.NewRows(jobCols).
			AddRow("j-2", "Analyst", nil, nil, nil, nil, nil, nil, "closed", now, now))
	mock.ExpectQuery("SELECT (.+) FROM jobs ORDER BY created_at, id").
		WillReturnRows(sqlmock.NewRows(jobCols))

	list, err := repo.List(context.Background(), "closed")
	if err != nil || len(list) != 1 || list[0].Status != "closed" {
		t.Fatalf("unexpected filtered list %+v %v", list, err)
	}
	all, err := repo.List(context.Background(), "")
	if err != nil || all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil list, got %+v %v", all, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoUpdateAndDeleteMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE jobs SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM jobs WHERE id = \\$1").WithArgs("j-9").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), Job{ID: "j-9", Title: "x", Status: "active"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := repo.Delete(context.Background(), "j-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}
