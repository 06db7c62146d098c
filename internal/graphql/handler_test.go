package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/shared/server/middleware"
	"ui-agent-backend/internal/users"
)

type tokenTable map[string]auth.Principal

func (t tokenTable) Verify(ctx context.Context, token string) (auth.Principal, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return auth.Principal{}, errors.New("unknown token")
}

var testTokens = tokenTable{
	"member": {Subject: "auth0|member"},
	"admin":  {Subject: "auth0|root", Roles: []string{"admin"}},
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h, err := NewHandler(users.NewService(users.NewMemoryRepo()), jobs.NewService(jobs.NewMemoryRepo()))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	r := gin.New()
	r.Use(middleware.Auth(testTokens))
	h.RegisterRoutes(&r.RouterGroup)
	return r
}

func query(t *testing.T, r *gin.Engine, token, q string, vars map[string]any) gqlResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"query": q, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out gqlResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestHello(t *testing.T) {
	r := newTestRouter(t)
	out := query(t, r, "", `{ hello }`, nil)
	if string(out.Data["hello"]) != `"Hello, GraphQL!"` {
		t.Fatalf("unexpected hello %s", out.Data["hello"])
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	r := newTestRouter(t)
	out := query(t, r, "", `mutation { createJob(jobData: {title: "x"}) { id } }`, nil)
	if len(out.Errors) == 0 || out.Errors[0].Extensions["code"] != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %+v", out.Errors)
	}

	out = query(t, r, "member", `mutation { createUser(userData: {email: "a@example.com"}) { id } }`, nil)
	if len(out.Errors) == 0 || out.Errors[0].Extensions["code"] != "forbidden" {
		t.Fatalf("expected forbidden error, got %+v", out.Errors)
	}
}

func TestJobLifecycle(t *testing.T) {
	r := newTestRouter(t)

	out := query(t, r, "member", `mutation($in: JobCreateInput!) { createJob(jobData: $in) { id status salaryMax } }`,
		map[string]any{"in": map[string]any{"title": "Engineer", "salaryMin": 10, "salaryMax": 20}})
	if len(out.Errors) != 0 {
		t.Fatalf("createJob errors: %+v", out.Errors)
	}
	var created struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		SalaryMax int    `json:"salaryMax"`
	}
	_ = json.Unmarshal(out.Data["createJob"], &created)
	if created.Status != "active" || created.SalaryMax != 20 {
		t.Fatalf("unexpected job %+v", created)
	}

	out = query(t, r, "member", `mutation($id: ID!) { updateJob(id: $id, jobData: {status: "closed"}) { status company } }`,
		map[string]any{"id": created.ID})
	if string(out.Data["updateJob"]) != `{"status":"closed","company":null}` {
		t.Fatalf("unexpected update %s %+v", out.Data["updateJob"], out.Errors)
	}

	out = query(t, r, "", `{ jobs(status: "closed") { id } active: jobs(status: "active") { id } }`, nil)
	if string(out.Data["active"]) != `[]` || string(out.Data["jobs"]) != `[{"id":"`+created.ID+`"}]` {
		t.Fatalf("unexpected filter result %+v", out.Data)
	}

	out = query(t, r, "member", `mutation($id: ID!) { deleteJob(id: $id) }`, map[string]any{"id": created.ID})
	if string(out.Data["deleteJob"]) != "true" {
		t.Fatalf("expected deleteJob true, got %s", out.Data["deleteJob"])
	}
	out = query(t, r, "member", `mutation($id: ID!) { deleteJob(id: $id) }`, map[string]any{"id": created.ID})
	if string(out.Data["deleteJob"]) != "false" {
		t.Fatalf("expected deleteJob false on missing job, got %s", out.Data["deleteJob"])
	}
	out = query(t, r, "", `query($id: ID!) { job(id: $id) { id } }`, map[string]any{"id": created.ID})
	if string(out.Data["job"]) != "null" {
		t.Fatalf("expected null job, got %s", out.Data["job"])
	}
}

func TestUserMutationsAndMissingEntities(t *testing.T) {
	r := newTestRouter(t)

	out := query(t, r, "admin", `mutation { createUser(userData: {email: "Ada@Example.com", firstName: "Ada"}) { id email fullName isActive } }`, nil)
	var created struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		IsActive bool   `json:"isActive"`
	}
	_ = json.Unmarshal(out.Data["createUser"], &created)
	if created.Email != "ada@example.com" || created.FullName != "Ada" || !created.IsActive {
		t.Fatalf("unexpected user %+v %+v", created, out.Errors)
	}

	out = query(t, r, "admin", `mutation { createUser(userData: {email: "ada@example.com"}) { id } }`, nil)
	if len(out.Errors) == 0 || out.Errors[0].Extensions["code"] != "conflict" {
		t.Fatalf("expected conflict, got %+v", out.Errors)
	}

	out = query(t, r, "admin", `mutation($id: ID!) { deleteUser(id: $id) }`, map[string]any{"id": created.ID})
	if string(out.Data["deleteUser"]) != "true" {
		t.Fatalf("expected deleteUser true, got %s", out.Data["deleteUser"])
	}
	out = query(t, r, "", `query($id: ID!) { user(id: $id) { isActive } }`, map[string]any{"id": created.ID})
	if string(out.Data["user"]) != `{"isActive":false}` {
		t.Fatalf("expected soft-deleted user, got %s", out.Data["user"])
	}

	out = query(t, r, "", `{ user(id: "nope") { id } users { email } }`, nil)
	if string(out.Data["user"]) != "null" || len(out.Errors) != 0 {
		t.Fatalf("expected null user for unknown id, got %s %+v", out.Data["user"], out.Errors)
	}
	out = query(t, r, "admin", `mutation { updateUser(id: "00000000-0000-0000-0000-000000000000", userData: {nickname: "x"}) { id } }`, nil)
	if string(out.Data["updateUser"]) != "null" {
		t.Fatalf("expected null updateUser for missing user, got %s", out.Data["updateUser"])
	}
}
