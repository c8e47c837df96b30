// Package handler exposes the search service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fraudintel/internal/search/models"
	id "fraudintel/pkg/domain"
	dErrors "fraudintel/pkg/domain-errors"
	"fraudintel/pkg/platform/httputil"
	"fraudintel/pkg/requestcontext"
)

// Service runs a search for an authenticated principal.
type Service interface {
	Search(ctx context.Context, principal id.AccountID, criteria models.Criteria) (*models.Response, error)
}

// Handler handles the search endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the search routes. Authentication middleware is applied by
// the caller's router group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/search", h.HandleSearch)
}

// HandleSearch runs a search for the authenticated account.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal := requestcontext.AccountID(ctx)
	if principal.IsNil() {
		h.logger.WarnContext(ctx, "search without principal",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.service.Search(ctx, principal, req.Criteria())
	if err != nil {
		h.logError(ctx, requestID, principal, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logError(ctx context.Context, requestID string, principal id.AccountID, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeNotFound, dErrors.CodeUnauthorized:
		h.logger.InfoContext(ctx, "search refused",
			"request_id", requestID,
			"account_id", principal,
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, "search failed",
			"request_id", requestID,
			"account_id", principal,
			"error", err,
		)
	}
}
