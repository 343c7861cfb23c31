package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/personagen/personagen/internal/auth"
	"github.com/personagen/personagen/internal/model"
	"github.com/personagen/personagen/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// errorEnvelope mirrors the JSON error shape all handlers emit.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return env
}

// fakeAccountService scripts the handler's business seam.
type fakeAccountService struct {
	registerErr error
	issueKey    string
	issueErr    error
	listKeys    []*model.APIKey
	listErr     error
	revokeErr   error

	gotUsername string
	gotPassword string
	gotUserID   string
	gotKey      string
}

func (s *fakeAccountService) Register(_ context.Context, username, password string) (*model.User, error) {
	s.gotUsername, s.gotPassword = username, password
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &model.User{ID: "user-1", Username: username}, nil
}

func (s *fakeAccountService) IssueKey(_ context.Context, username, password string) (string, error) {
	s.gotUsername, s.gotPassword = username, password
	if s.issueErr != nil {
		return "", s.issueErr
	}
	return s.issueKey, nil
}

func (s *fakeAccountService) ListKeys(_ context.Context, userID string) ([]*model.APIKey, error) {
	s.gotUserID = userID
	return s.listKeys, s.listErr
}

func (s *fakeAccountService) RevokeKey(_ context.Context, userID, key string) error {
	s.gotUserID, s.gotKey = userID, key
	return s.revokeErr
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := auth.ContextWithIdentity(req.Context(), &model.Identity{UserID: "user-1"})
	return req.WithContext(ctx)
}

func TestAccountHandler_Register(t *testing.T) {
	svc := &fakeAccountService{}
	h := NewAccountHandler(svc, testLogger())

	body := strings.NewReader(`{"username":"alice","password":"supersecret99"}`)
	req := httptest.NewRequest(http.MethodPost, "/register", body)
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["message"] != "User registered successfully" {
		t.Errorf("unexpected message: %s", response["message"])
	}

	if svc.gotUsername != "alice" || svc.gotPassword != "supersecret99" {
		t.Errorf("service received %q/%q", svc.gotUsername, svc.gotPassword)
	}
}

func TestAccountHandler_Register_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&fakeAccountService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", env.Error.Code)
	}
}

func TestAccountHandler_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"password":"supersecret99"}`},
		{"missing password", `{"username":"alice"}`},
		{"short username", `{"username":"al","password":"supersecret99"}`},
		{"short password", `{"username":"alice","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAccountHandler(&fakeAccountService{}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			if env := decodeError(t, rec); env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %s", env.Error.Code)
			}
		})
	}
}

func TestAccountHandler_Register_DuplicateUsername(t *testing.T) {
	svc := &fakeAccountService{registerErr: service.ErrUsernameExists}
	h := NewAccountHandler(svc, testLogger())

	body := strings.NewReader(`{"username":"alice","password":"supersecret99"}`)
	req := httptest.NewRequest(http.MethodPost, "/register", body)
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "USERNAME_EXISTS" {
		t.Errorf("expected USERNAME_EXISTS, got %s", env.Error.Code)
	}
}

func TestAccountHandler_GenerateAPIKey(t *testing.T) {
	svc := &fakeAccountService{issueKey: strings.Repeat("ab", 32)}
	h := NewAccountHandler(svc, testLogger())

	body := strings.NewReader(`{"username":"alice","password":"supersecret99"}`)
	req := httptest.NewRequest(http.MethodPost, "/generate-api-key", body)
	rec := httptest.NewRecorder()

	h.GenerateAPIKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["api_key"] != svc.issueKey {
		t.Errorf("api_key = %s, want %s", response["api_key"], svc.issueKey)
	}
}

func TestAccountHandler_GenerateAPIKey_BadCredentials(t *testing.T) {
	svc := &fakeAccountService{issueErr: service.ErrInvalidCredentials}
	h := NewAccountHandler(svc, testLogger())

	body := strings.NewReader(`{"username":"alice","password":"wrongpass9999"}`)
	req := httptest.NewRequest(http.MethodPost, "/generate-api-key", body)
	rec := httptest.NewRecorder()

	h.GenerateAPIKey(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", env.Error.Code)
	}
	if env.Error.Message != "Invalid credentials" {
		t.Errorf("unexpected message: %s", env.Error.Message)
	}
}

func TestAccountHandler_GenerateAPIKey_MissingFields(t *testing.T) {
	h := NewAccountHandler(&fakeAccountService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/generate-api-key", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.GenerateAPIKey(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAccountHandler_ListAPIKeys(t *testing.T) {
	now := time.Now()
	svc := &fakeAccountService{
		listKeys: []*model.APIKey{
			{Key: strings.Repeat("aa", 32), UserID: "user-1", Active: true, CreatedAt: now},
			{Key: strings.Repeat("bb", 32), UserID: "user-1", Active: true, CreatedAt: now},
		},
	}
	h := NewAccountHandler(svc, testLogger())

	req := authedRequest(http.MethodGet, "/list-api-keys", nil)
	rec := httptest.NewRecorder()

	h.ListAPIKeys(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		APIKeys []map[string]any `json:"api_keys"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.APIKeys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(response.APIKeys))
	}
	// The listing representation never exposes user_id or active
	for _, entry := range response.APIKeys {
		if _, ok := entry["user_id"]; ok {
			t.Error("listing must not expose user_id")
		}
		if _, ok := entry["active"]; ok {
			t.Error("listing must not expose active flag")
		}
	}

	if svc.gotUserID != "user-1" {
		t.Errorf("service received userID %q, want user-1", svc.gotUserID)
	}
}

func TestAccountHandler_ListAPIKeys_Unauthenticated(t *testing.T) {
	h := NewAccountHandler(&fakeAccountService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/list-api-keys", nil)
	rec := httptest.NewRecorder()

	h.ListAPIKeys(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAccountHandler_RevokeAPIKey(t *testing.T) {
	svc := &fakeAccountService{}
	h := NewAccountHandler(svc, testLogger())

	target := "/revoke-api-key?api_key=" + strings.Repeat("ab", 32)
	req := authedRequest(http.MethodDelete, target, nil)
	rec := httptest.NewRecorder()

	h.RevokeAPIKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["message"] != "API key revoked successfully" {
		t.Errorf("unexpected message: %s", response["message"])
	}

	if svc.gotKey != strings.Repeat("ab", 32) {
		t.Errorf("service received key %q", svc.gotKey)
	}
}

func TestAccountHandler_RevokeAPIKey_MissingParam(t *testing.T) {
	h := NewAccountHandler(&fakeAccountService{}, testLogger())

	req := authedRequest(http.MethodDelete, "/revoke-api-key", nil)
	rec := httptest.NewRecorder()

	h.RevokeAPIKey(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAccountHandler_RevokeAPIKey_NotFound(t *testing.T) {
	svc := &fakeAccountService{revokeErr: service.ErrKeyNotFound}
	h := NewAccountHandler(svc, testLogger())

	target := "/revoke-api-key?api_key=" + strings.Repeat("ab", 32)
	req := authedRequest(http.MethodDelete, target, nil)
	rec := httptest.NewRecorder()

	h.RevokeAPIKey(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "KEY_NOT_FOUND" {
		t.Errorf("expected KEY_NOT_FOUND, got %s", env.Error.Code)
	}
}
