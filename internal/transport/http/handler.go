// Package httptransport is the thin HTTP layer over the declaration
// lifecycle service. Handlers decode, delegate, and translate errors;
// business rules live in the service.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"declara/internal/declaration"
	"declara/internal/platform/middleware"
	"declara/internal/ratelimit"
	"declara/pkg/domain"
	"declara/pkg/domainerrors"
	"declara/pkg/platform/middleware/auth"
	"declara/pkg/platform/middleware/metadata"
	request "declara/pkg/platform/middleware/request"
)

// Service is the lifecycle surface the transport depends on.
type Service interface {
	CreateDraft(ctx context.Context, in declaration.Input) (declaration.Declaration, error)
	SaveDraft(ctx context.Context, declID domain.DeclarationID, in declaration.Input) (declaration.Declaration, error)
	Finalize(ctx context.Context, declID domain.DeclarationID, in declaration.Input) (declaration.Declaration, error)
	Get(ctx context.Context, declID domain.DeclarationID) (declaration.Declaration, error)
	List(ctx context.Context) ([]declaration.Declaration, error)
	History(ctx context.Context, declID domain.DeclarationID) ([]declaration.AuditEntry, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	validator auth.TokenValidator
	limiter   *ratelimit.Middleware
}

func New(service Service, validator auth.TokenValidator, limiter *ratelimit.Middleware, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
		limiter:   limiter,
	}
}

// Register mounts the declaration routes. Writes additionally pass the rate
// limiter.
func (h *Handler) Register(r chi.Router) {
	declRouter := chi.NewRouter()
	declRouter.Use(middleware.Recovery(h.logger))
	declRouter.Use(request.RequestID)
	declRouter.Use(metadata.ClientMetadata)
	declRouter.Use(middleware.Logger(h.logger))
	declRouter.Use(middleware.Timeout(30 * time.Second))
	declRouter.Use(middleware.ContentTypeJSON)
	declRouter.Use(auth.RequireAuth(h.validator, h.logger))

	declRouter.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Limit)
		}
		r.Post("/declarations", h.handleCreate)
		r.Put("/declarations/{id}", h.handleSave)
		r.Post("/declarations/{id}/finalize", h.handleFinalize)
	})

	declRouter.Get("/declarations", h.handleList)
	declRouter.Get("/declarations/{id}", h.handleGet)
	declRouter.Get("/declarations/{id}/history", h.handleHistory)

	r.Mount("/", declRouter)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (declaration.Input, bool) {
	var req declarationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"error", err,
			"request_id", request.GetRequestID(r.Context()),
		)
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return declaration.Input{}, false
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return declaration.Input{}, false
	}
	return in, true
}

func (h *Handler) declarationID(w http.ResponseWriter, r *http.Request) (domain.DeclarationID, bool) {
	declID, err := domain.ParseDeclarationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return domain.DeclarationID{}, false
	}
	return declID, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	d, err := h.service.CreateDraft(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeclarationResponse(d))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	declID, ok := h.declarationID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	d, err := h.service.SaveDraft(r.Context(), declID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeclarationResponse(d))
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	declID, ok := h.declarationID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	d, err := h.service.Finalize(r.Context(), declID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeclarationResponse(d))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	declarations, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]declarationResponse, 0, len(declarations))
	for _, d := range declarations {
		out = append(out, toDeclarationResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	declID, ok := h.declarationID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), declID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeclarationResponse(d))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	declID, ok := h.declarationID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), declID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(entries))
}
