package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/personagen/personagen/internal/model"
)

// StatsReader supplies the request count aggregate.
type StatsReader interface {
	CountByEndpoint(ctx context.Context) ([]*model.EndpointCount, error)
}

// StatsHandler handles GET /stats.
type StatsHandler struct {
	reader StatsReader
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(reader StatsReader, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		reader: reader,
		logger: logger,
	}
}

// Stats returns request counts grouped by endpoint.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reader.CountByEndpoint(r.Context())
	if err != nil {
		h.logger.Error("failed to read stats", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read stats")
		return
	}

	if counts == nil {
		counts = []*model.EndpointCount{}
	}

	writeJSON(w, http.StatusOK, counts)
}
