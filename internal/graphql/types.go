package graphql

import (
	graphqlgo "github.com/graph-gophers/graphql-go"

	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/users"
)

type userResolver struct {
	u users.User
}

func (r *userResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.u.ID) }
func (r *userResolver) Email() string             { return r.u.Email }
func (r *userResolver) ExternalID() *string       { return optional(r.u.ExternalID) }
func (r *userResolver) FirstName() *string        { return optional(r.u.GivenName) }
func (r *userResolver) LastName() *string         { return optional(r.u.FamilyName) }
func (r *userResolver) FullName() string          { return r.u.FullName() }
func (r *userResolver) Nickname() *string         { return optional(r.u.Nickname) }
func (r *userResolver) Picture() *string          { return optional(r.u.Picture) }
func (r *userResolver) EmailVerified() bool       { return r.u.EmailVerified }
func (r *userResolver) IsActive() bool            { return r.u.Active }
func (r *userResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.u.CreatedAt} }
func (r *userResolver) UpdatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.u.UpdatedAt} }

func (r *userResolver) LastLogin() *graphqlgo.Time {
	if r.u.LastLogin == nil {
		return nil
	}
	return &graphqlgo.Time{Time: *r.u.LastLogin}
}

type jobResolver struct {
	j jobs.Job
}

func (r *jobResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.j.ID) }
func (r *jobResolver) Title() string             { return r.j.Title }
func (r *jobResolver) Description() *string      { return optional(r.j.Description) }
func (r *jobResolver) Company() *string          { return optional(r.j.Company) }
func (r *jobResolver) Location() *string         { return optional(r.j.Location) }
func (r *jobResolver) SalaryMin() *int32         { return toInt32(r.j.SalaryMin) }
func (r *jobResolver) SalaryMax() *int32         { return toInt32(r.j.SalaryMax) }
func (r *jobResolver) JobType() *string          { return optional(r.j.JobType) }
func (r *jobResolver) Status() string            { return r.j.Status }
func (r *jobResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.j.CreatedAt} }
func (r *jobResolver) UpdatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.j.UpdatedAt} }

type userCreateInput struct {
	Email      string
	ExternalID *string
	FirstName  *string
	LastName   *string
	Nickname   *string
	Picture    *string
}

type userUpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Nickname  *string
	Picture   *string
	IsActive  *bool
}

type jobCreateInput struct {
	Title       string
	Description *string
	Company     *string
	Location    *string
	SalaryMin   *int32
	SalaryMax   *int32
	JobType     *string
	Status      *string
}

type jobUpdateInput struct {
	Title       *string
	Description *string
	Company     *string
	Location    *string
	SalaryMin   *int32
	SalaryMax   *int32
	JobType     *string
	Status      *string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
