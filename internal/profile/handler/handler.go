package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"profilegate/internal/platform/metrics"
	"profilegate/internal/platform/middleware"
	"profilegate/internal/profile"
	"profilegate/internal/transport/http/shared"
	dErrors "profilegate/pkg/domain-errors"
)

// Service defines the interface for profile operations.
type Service interface {
	Get(ctx context.Context, subjectID string) (profile.Record, error)
	Upsert(ctx context.Context, subjectID string, patch profile.Patch) (profile.Record, bool, error)
	VerifyEmail(ctx context.Context, subjectID string) error
}

// Handler handles profile endpoints. Bearer validation runs in middleware
// before any store access; the subject ID is read from the request context,
// never from the body.
type Handler struct {
	logger    *slog.Logger
	profiles  Service
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// New creates a new profile Handler.
func New(
	profiles Service,
	logger *slog.Logger,
	m *metrics.Metrics,
	validator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		profiles:  profiles,
		metrics:   m,
		validator: validator,
	}
}

// Register registers the profile routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	profileRouter := chi.NewRouter()
	profileRouter.Use(middleware.Recovery(h.logger))
	profileRouter.Use(middleware.RequestID)
	profileRouter.Use(middleware.Logger(h.logger))
	profileRouter.Use(middleware.Timeout(30 * time.Second))
	profileRouter.Use(middleware.ContentTypeJSON)
	profileRouter.Use(middleware.LatencyMiddleware(h.metrics))
	profileRouter.Use(middleware.RequireAuth(h.validator, h.logger, h.metrics))
	profileRouter.Post("/profile", h.handleUpsert)
	profileRouter.Get("/profile", h.handleGet)
	profileRouter.Post("/profile/verify-email", h.handleVerifyEmail)

	r.Mount("/", profileRouter)
}

// handleUpsert is the idempotent create-or-merge write. 201 on create, 200 on
// update, always returning the full resulting record.
func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, ctx)
	if !ok {
		return
	}

	var patch profile.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.WarnContext(ctx, "invalid upsert request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, created, err := h.profiles.Upsert(ctx, subjectID, patch)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "profile upsert failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to save profile"))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.WriteJSON(w, status, record)
}

// handleGet returns the subject's record. 404 is an expected outcome for new
// identities and is not logged as an error.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, ctx)
	if !ok {
		return
	}

	record, err := h.profiles.Get(ctx, subjectID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.InfoContext(ctx, "profile not yet created",
				"request_id", middleware.GetRequestID(ctx),
				"subject_id", subjectID,
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "profile fetch failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to fetch profile"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, ctx)
	if !ok {
		return
	}

	if err := h.profiles.VerifyEmail(ctx, subjectID); err != nil {
		h.logger.ErrorContext(ctx, "verify email failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to verify email"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (h *Handler) subject(w http.ResponseWriter, ctx context.Context) (string, bool) {
	subjectID := middleware.GetSubjectID(ctx)
	if subjectID == "" {
		// Should never happen if RequireAuth is configured correctly.
		h.logger.ErrorContext(ctx, "subject missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return subjectID, true
}
