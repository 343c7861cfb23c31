package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/personagen/personagen/internal/auth"
	"github.com/personagen/personagen/internal/model"
	"github.com/personagen/personagen/internal/service"
)

// AccountService is the business seam for account and key operations.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	IssueKey(ctx context.Context, username, password string) (string, error)
	ListKeys(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeKey(ctx context.Context, userID, key string) error
}

// AccountHandler handles registration and API key management endpoints.
type AccountHandler struct {
	svc    AccountService
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

// credentialsRequest carries username/password for register and key issuance.
type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"username must be 3-64 characters and password at least 8")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameExists) {
			writeError(w, http.StatusBadRequest, "USERNAME_EXISTS", "Username already exists")
			return
		}
		h.logger.Error("failed to register user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	h.logger.Info("user registered",
		slog.String("user_id", user.ID),
	)

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
	})
}

// GenerateAPIKey handles POST /generate-api-key.
// Credentials are re-verified on every call; a bad username and a bad
// password produce the same response.
func (h *AccountHandler) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		return
	}

	key, err := h.svc.IssueKey(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
			return
		}
		h.logger.Error("failed to issue API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"api_key": key,
	})
}

// ListAPIKeys handles GET /list-api-keys.
func (h *AccountHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.svc.ListKeys(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{"api_keys": responses})
}

// RevokeAPIKey handles DELETE /revoke-api-key?api_key=...
// Revoking a key that does not exist, is already revoked, or belongs to
// another user returns 404; the three cases are indistinguishable to keep
// foreign keys unprobeable.
func (h *AccountHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	key := r.URL.Query().Get("api_key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "api_key is required")
		return
	}

	if err := h.svc.RevokeKey(r.Context(), identity.UserID, key); err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
			return
		}
		h.logger.Error("failed to revoke API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key")
		return
	}

	h.logger.Info("API key revoked",
		slog.String("user_id", identity.UserID),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API key revoked successfully",
	})
}
