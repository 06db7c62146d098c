package graphql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	graphqlgo "github.com/graph-gophers/graphql-go"

	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/users"
)

// AdminRole guards user mutations, matching the REST surface.
const AdminRole = users.AdminRole

// Error carries a machine-readable code in the GraphQL error extensions.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

var (
	errUnauthenticated = &Error{Code: "unauthorized", Message: "authentication required"}
	errForbidden       = &Error{Code: "forbidden", Message: "insufficient role"}
)

// Resolver is the root for queries and mutations.
type Resolver struct {
	userSvc *users.Service
	jobSvc  *jobs.Service
}

func NewResolver(userSvc *users.Service, jobSvc *jobs.Service) *Resolver {
	return &Resolver{userSvc: userSvc, jobSvc: jobSvc}
}

func (r *Resolver) Hello() string { return "Hello, GraphQL!" }

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	list, err := r.userSvc.ListAll(ctx)
	if err != nil {
		return nil, toGraphQLError(err)
	}
	out := make([]*userResolver, 0, len(list))
	for _, u := range list {
		out = append(out, &userResolver{u: u})
	}
	return out, nil
}

func (r *Resolver) User(ctx context.Context, args struct{ ID graphqlgo.ID }) (*userResolver, error) {
	if !knownID(args.ID) {
		return nil, nil
	}
	u, err := r.userSvc.Get(ctx, string(args.ID))
	if err != nil {
		return nil, nullOnMissing(err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) Jobs(ctx context.Context, args struct{ Status *string }) ([]*jobResolver, error) {
	list, err := r.jobSvc.List(ctx, deref(args.Status))
	if err != nil {
		return nil, toGraphQLError(err)
	}
	out := make([]*jobResolver, 0, len(list))
	for _, j := range list {
		out = append(out, &jobResolver{j: j})
	}
	return out, nil
}

func (r *Resolver) Job(ctx context.Context, args struct{ ID graphqlgo.ID }) (*jobResolver, error) {
	if !knownID(args.ID) {
		return nil, nil
	}
	j, err := r.jobSvc.Get(ctx, string(args.ID))
	if err != nil {
		return nil, nullOnMissing(err)
	}
	return &jobResolver{j: j}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ UserData userCreateInput }) (*userResolver, error) {
	if err := requireRole(ctx, AdminRole); err != nil {
		return nil, err
	}
	in := args.UserData
	u, err := r.userSvc.Create(ctx, users.CreateInput{
		Email:      in.Email,
		ExternalID: deref(in.ExternalID),
		GivenName:  deref(in.FirstName),
		FamilyName: deref(in.LastName),
		Nickname:   deref(in.Nickname),
		Picture:    deref(in.Picture),
	})
	if err != nil {
		return nil, toGraphQLError(err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	ID       graphqlgo.ID
	UserData userUpdateInput
}) (*userResolver, error) {
	if err := requireRole(ctx, AdminRole); err != nil {
		return nil, err
	}
	if !knownID(args.ID) {
		return nil, nil
	}
	in := args.UserData
	u, err := r.userSvc.Update(ctx, string(args.ID), users.UpdateInput{
		Email:      in.Email,
		GivenName:  in.FirstName,
		FamilyName: in.LastName,
		Nickname:   in.Nickname,
		Picture:    in.Picture,
		Active:     in.IsActive,
	})
	if err != nil {
		return nil, nullOnMissing(err)
	}
	return &userResolver{u: u}, nil
}

// DeleteUser deactivates the user; it reports false when no such user exists.
func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphqlgo.ID }) (bool, error) {
	if err := requireRole(ctx, AdminRole); err != nil {
		return false, err
	}
	if !knownID(args.ID) {
		return false, nil
	}
	if _, err := r.userSvc.Deactivate(ctx, string(args.ID)); err != nil {
		return false, nullOnMissing(err)
	}
	return true, nil
}

func (r *Resolver) CreateJob(ctx context.Context, args struct{ JobData jobCreateInput }) (*jobResolver, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	in := args.JobData
	j, err := r.jobSvc.Create(ctx, jobs.CreateInput{
		Title:       in.Title,
		Description: deref(in.Description),
		Company:     deref(in.Company),
		Location:    deref(in.Location),
		SalaryMin:   fromInt32(in.SalaryMin),
		SalaryMax:   fromInt32(in.SalaryMax),
		JobType:     deref(in.JobType),
		Status:      deref(in.Status),
	})
	if err != nil {
		return nil, toGraphQLError(err)
	}
	return &jobResolver{j: j}, nil
}

func (r *Resolver) UpdateJob(ctx context.Context, args struct {
	ID      graphqlgo.ID
	JobData jobUpdateInput
}) (*jobResolver, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	if !knownID(args.ID) {
		return nil, nil
	}
	in := args.JobData
	j, err := r.jobSvc.Update(ctx, string(args.ID), jobs.UpdateInput{
		Title:       in.Title,
		Description: in.Description,
		Company:     in.Company,
		Location:    in.Location,
		SalaryMin:   fromInt32(in.SalaryMin),
		SalaryMax:   fromInt32(in.SalaryMax),
		JobType:     in.JobType,
		Status:      in.Status,
	})
	if err != nil {
		return nil, nullOnMissing(err)
	}
	return &jobResolver{j: j}, nil
}

func (r *Resolver) DeleteJob(ctx context.Context, args struct{ ID graphqlgo.ID }) (bool, error) {
	if err := requireAuth(ctx); err != nil {
		return false, err
	}
	if !knownID(args.ID) {
		return false, nil
	}
	if err := r.jobSvc.Delete(ctx, string(args.ID)); err != nil {
		return false, nullOnMissing(err)
	}
	return true, nil
}

func requireAuth(ctx context.Context) error {
	if _, ok := auth.PrincipalFrom(ctx); !ok {
		return errUnauthenticated
	}
	return nil
}

func requireRole(ctx context.Context, role string) error {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return errUnauthenticated
	}
	if !p.HasRole(role) {
		return errForbidden
	}
	return nil
}

func isMissing(err error) bool {
	return errors.Is(err, users.ErrNotFound) || errors.Is(err, jobs.ErrNotFound)
}

// nullOnMissing turns a not-found into a null result.
func nullOnMissing(err error) error {
	if isMissing(err) {
		return nil
	}
	return toGraphQLError(err)
}

// knownID reports whether id could name a stored entity.
func knownID(id graphqlgo.ID) bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

func toGraphQLError(err error) error {
	var invalid *users.InvalidClaimsError
	var conflict *users.ConflictError
	switch {
	case errors.As(err, &invalid), errors.Is(err, users.ErrInvalidInput), errors.Is(err, jobs.ErrInvalidInput):
		return &Error{Code: "validation_error", Message: err.Error()}
	case errors.As(err, &conflict):
		return &Error{Code: "conflict", Message: conflict.Error()}
	case isMissing(err):
		return &Error{Code: "not_found", Message: err.Error()}
	default:
		return &Error{Code: "internal_error", Message: "internal error"}
	}
}
