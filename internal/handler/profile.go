package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/personagen/personagen/internal/model"
	"github.com/personagen/personagen/internal/service"
)

// ProfileService is the business seam for profile generation.
type ProfileService interface {
	Generate(ctx context.Context, f model.ProfileFilter) (*model.Profile, error)
	BulkGenerate(ctx context.Context, count int) ([]*model.Profile, error)
}

// ProfileHandler handles the generation endpoints.
type ProfileHandler struct {
	svc    ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
	}
}

// generateParams are the validated query parameters of GET /generate.
type generateParams struct {
	Age     *int   `validate:"omitempty,gte=0,lte=120"`
	Gender  string `validate:"omitempty,oneof=male female"`
	Country string `validate:"omitempty,alpha,len=2"`
}

// Generate handles GET /generate?age=&gender=&country=
func (h *ProfileHandler) Generate(w http.ResponseWriter, r *http.Request) {
	params, err := parseGenerateParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	profile, err := h.svc.Generate(r.Context(), model.ProfileFilter{
		Age:     params.Age,
		Gender:  params.Gender,
		Country: params.Country,
	})
	if err != nil {
		h.logger.Error("failed to generate profile", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// BulkGenerate handles GET /bulk-generate?count=
// count defaults to 1; anything above the configured limit is rejected.
func (h *ProfileHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "count must be an integer")
			return
		}
		count = parsed
	}

	profiles, err := h.svc.BulkGenerate(r.Context(), count)
	if err != nil {
		if errors.Is(err, service.ErrCountTooLarge) || errors.Is(err, service.ErrCountTooSmall) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		h.logger.Error("failed to bulk generate profiles", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate profiles")
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// Countries handles GET /countries.
func (h *ProfileHandler) Countries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"countries": model.SupportedCountries,
	})
}

// parseGenerateParams extracts and validates the generation filters.
func parseGenerateParams(r *http.Request) (*generateParams, error) {
	q := r.URL.Query()
	params := &generateParams{
		Gender:  q.Get("gender"),
		Country: q.Get("country"),
	}

	if raw := q.Get("age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("age must be an integer")
		}
		params.Age = &age
	}

	if err := validate.Struct(params); err != nil {
		return nil, errors.New("age must be 0-120, gender male or female, country a 2-letter code")
	}

	return params, nil
}
