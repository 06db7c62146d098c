package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/shared/server/middleware"
)

type tokenTable map[string]auth.Principal

func (t tokenTable) Verify(ctx context.Context, token string) (auth.Principal, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return auth.Principal{}, errors.New("unknown token")
}

var testTokens = tokenTable{
	"ada": {
		Subject: "auth0|ada",
		Email:   "ada@example.com",
		Claims: map[string]any{
			"sub":   "auth0|ada",
			"email": "ada@example.com",
			"name":  "Ada Lovelace",
		},
	},
	"noemail": {Subject: "auth0|ghost", Claims: map[string]any{"sub": "auth0|ghost"}},
	"admin":   {Subject: "auth0|root", Roles: []string{"admin"}},
}

func newTestRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(testTokens))
	NewHandler(NewService(repo)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeUser(t *testing.T, resp *httptest.ResponseRecorder) UserResponse {
	t.Helper()
	var u UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return body.Error.Code
}

func TestMeReconcilesCaller(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())

	resp := do(r, http.MethodGet, "/api/v1/users/me", "ada", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	u := decodeUser(t, resp)
	if u.ExternalID == nil || *u.ExternalID != "auth0|ada" || u.FirstName != "Ada" || u.LastName != "Lovelace" || u.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected profile %+v", u)
	}

	again := decodeUser(t, do(r, http.MethodGet, "/api/v1/users/me", "ada", nil))
	if again.ID != u.ID || !again.UpdatedAt.Equal(u.UpdatedAt) {
		t.Fatalf("second /me must be a no-op, got %+v", again)
	}
}

func TestMeRequiresTokenAndEmail(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())
	if resp := do(r, http.MethodGet, "/api/v1/users/me", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	resp := do(r, http.MethodGet, "/api/v1/users/me", "noemail", nil)
	if resp.Code != http.StatusBadRequest || errorCode(t, resp) != "validation_error" {
		t.Fatalf("expected 400 validation_error, got %d", resp.Code)
	}
}

func TestMeRetriesOnceAfterConflict(t *testing.T) {
	repo := &racingRepo{MemoryRepo: NewMemoryRepo(), winner: User{
		ID:         "00000000-0000-0000-0000-0000000000aa",
		Email:      "ada@example.com",
		ExternalID: "auth0|ada",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Active:     true,
	}}
	r := newTestRouter(repo)

	resp := do(r, http.MethodGet, "/api/v1/users/me", "ada", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after retry, got %d: %s", resp.Code, resp.Body.String())
	}
	if u := decodeUser(t, resp); u.ID != "00000000-0000-0000-0000-0000000000aa" {
		t.Fatalf("expected winning record, got %s", u.ID)
	}
}

func TestAdminWritesRequireRole(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())
	body := map[string]any{"email": "new@example.com", "firstName": "New"}

	if resp := do(r, http.MethodPost, "/api/v1/users", "", body); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/api/v1/users", "ada", body); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	resp := do(r, http.MethodPost, "/api/v1/users", "admin", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeUser(t, resp)
	if created.ExternalID != nil || !created.IsActive {
		t.Fatalf("unexpected created user %+v", created)
	}

	dup := do(r, http.MethodPost, "/api/v1/users", "admin", body)
	if dup.Code != http.StatusConflict || errorCode(t, dup) != "conflict" {
		t.Fatalf("expected 409 conflict, got %d", dup.Code)
	}

	bad := do(r, http.MethodPost, "/api/v1/users", "admin", map[string]any{"email": "nope"})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.Code)
	}
}

func TestProviderUpsertAndLookups(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())
	resp := do(r, http.MethodPost, "/api/v1/users/auth0", "admin", map[string]any{
		"sub":        "auth0|grace",
		"email":      "grace@example.com",
		"given_name": "Grace",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	u := decodeUser(t, resp)

	for _, path := range []string{
		"/api/v1/users/" + u.ID,
		"/api/v1/users/smart/" + u.ID,
		"/api/v1/users/smart/auth0|grace",
		"/api/v1/users/by-auth0/auth0|grace",
		"/api/v1/users/email/GRACE@example.com",
	} {
		got := do(r, http.MethodGet, path, "", nil)
		if got.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, got.Code)
		}
		if decodeUser(t, got).ID != u.ID {
			t.Fatalf("GET %s returned a different user", path)
		}
	}

	if resp := do(r, http.MethodGet, "/api/v1/users/by-auth0/auth0|nobody", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := do(r, http.MethodGet, "/api/v1/users/not-a-uuid", "", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.Code)
	}
}

func TestListPagination(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if resp := do(r, http.MethodPost, "/api/v1/users", "admin", map[string]any{"email": email}); resp.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", email, resp.Code)
		}
	}

	resp := do(r, http.MethodGet, "/api/v1/users?skip=1&limit=1", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 3 || len(page.Users) != 1 || page.Users[0].Email != "b@example.com" {
		t.Fatalf("unexpected page %+v", page)
	}

	if resp := do(r, http.MethodGet, "/api/v1/users?limit=500", "", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", resp.Code)
	}

	var all []UserResponse
	if err := json.NewDecoder(do(r, http.MethodGet, "/api/v1/users/all", "", nil).Body).Decode(&all); err != nil || len(all) != 3 {
		t.Fatalf("expected 3 users from /all, got %d (%v)", len(all), err)
	}
}

func TestUpdateAndDeleteSoftDeletes(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())
	created := decodeUser(t, do(r, http.MethodPost, "/api/v1/users", "admin", map[string]any{"email": "x@example.com"}))

	resp := do(r, http.MethodPut, "/api/v1/users/"+created.ID, "admin", map[string]any{"lastName": "Xavier"})
	if resp.Code != http.StatusOK || decodeUser(t, resp).LastName != "Xavier" {
		t.Fatalf("expected update to succeed, got %d", resp.Code)
	}

	del := do(r, http.MethodDelete, "/api/v1/users/"+created.ID, "admin", nil)
	if del.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", del.Code)
	}
	if decodeUser(t, del).IsActive {
		t.Fatalf("expected user deactivated")
	}
	got := do(r, http.MethodGet, "/api/v1/users/"+created.ID, "", nil)
	if got.Code != http.StatusOK {
		t.Fatalf("soft-deleted user must still be readable, got %d", got.Code)
	}
}
