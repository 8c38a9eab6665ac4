package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"profilegate/internal/audit"
	"profilegate/internal/platform/metrics"
	"profilegate/internal/profile"
	"profilegate/internal/profile/store"
	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/sentinel"
)

// GatewayAdmin is the server-facing slice of the credential gateway the
// profile service needs: the authoritative verification flag.
type GatewayAdmin interface {
	MarkEmailVerified(ctx context.Context, subjectID string) error
	VerificationStatus(ctx context.Context, subjectID string) (bool, error)
}

// Service reads and writes profile records on behalf of authenticated
// subjects. The subject ID always comes from the validated token, never from
// a request body.
type Service struct {
	logger  *slog.Logger
	store   store.Store
	gateway GatewayAdmin
	metrics *metrics.Metrics
	auditor audit.Publisher
	tracer  trace.Tracer
}

func New(
	logger *slog.Logger,
	profileStore store.Store,
	gatewayAdmin GatewayAdmin,
	m *metrics.Metrics,
	auditor audit.Publisher,
) *Service {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Service{
		logger:  logger,
		store:   profileStore,
		gateway: gatewayAdmin,
		metrics: m,
		auditor: auditor,
		tracer:  otel.Tracer("profilegate/profile"),
	}
}

// Get returns the record for a subject. Absence is a normal outcome (the
// "new identity" signal) and maps to CodeNotFound, never to an internal
// error. The verification mirror is reconciled against a fresh gateway read
// on every hit.
func (s *Service) Get(ctx context.Context, subjectID string) (profile.Record, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Get",
		trace.WithAttributes(attribute.String("subject_id", subjectID)))
	defer span.End()

	var record profile.Record
	var verified bool
	gatewayRead := false

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, err = s.store.FindByKey(gctx, subjectID)
		return err
	})
	g.Go(func() error {
		v, err := s.gateway.VerificationStatus(gctx, subjectID)
		if err != nil {
			// The mirror stays stale until the next successful read; the
			// gateway being down must not fail a profile fetch.
			s.logger.WarnContext(gctx, "verification status read failed",
				"subject_id", subjectID,
				"error", err,
			)
			return nil
		}
		verified = v
		gatewayRead = true
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return profile.Record{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		s.logger.ErrorContext(ctx, "profile fetch failed", "subject_id", subjectID, "error", err)
		return profile.Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to fetch profile", err)
	}

	if gatewayRead && record.EmailVerified != verified {
		if err := s.store.SetEmailVerified(ctx, subjectID, verified); err != nil {
			s.logger.WarnContext(ctx, "verification mirror repair failed",
				"subject_id", subjectID,
				"error", err,
			)
		}
		record.EmailVerified = verified
	}

	return record, nil
}

// Upsert creates or merge-patches the subject's record atomically at the
// store. Calling it twice with the same patch yields the same record.
func (s *Service) Upsert(ctx context.Context, subjectID string, patch profile.Patch) (profile.Record, bool, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Upsert",
		trace.WithAttributes(attribute.String("subject_id", subjectID)))
	defer span.End()

	if patch.AccountType != nil && !patch.AccountType.Valid() {
		return profile.Record{}, false, dErrors.New(dErrors.CodeBadRequest, "invalid account type")
	}

	record, created, err := s.store.Upsert(ctx, subjectID, patch)
	if err != nil {
		s.logger.ErrorContext(ctx, "profile upsert failed", "subject_id", subjectID, "error", err)
		return profile.Record{}, false, dErrors.Wrap(dErrors.CodeInternal, "failed to save profile", err)
	}

	if created {
		s.metrics.IncrementProfilesCreated()
		s.auditor.Emit(ctx, audit.Event{SubjectID: subjectID, Action: audit.ActionProfileCreated})
	} else {
		s.metrics.IncrementProfilesUpdated()
		s.auditor.Emit(ctx, audit.Event{SubjectID: subjectID, Action: audit.ActionProfileUpdated})
	}

	return record, created, nil
}

// VerifyEmail marks the gateway flag first, then mirrors it into the record.
// The gateway is authoritative: a failed mirror write is logged and left to
// fetch-time reconciliation, not surfaced as a failure.
func (s *Service) VerifyEmail(ctx context.Context, subjectID string) error {
	ctx, span := s.tracer.Start(ctx, "profile.VerifyEmail",
		trace.WithAttributes(attribute.String("subject_id", subjectID)))
	defer span.End()

	if err := s.gateway.MarkEmailVerified(ctx, subjectID); err != nil {
		s.logger.ErrorContext(ctx, "gateway verification update failed", "subject_id", subjectID, "error", err)
		return dErrors.Wrap(dErrors.CodeInternal, "failed to verify email", err)
	}

	if err := s.store.SetEmailVerified(ctx, subjectID, true); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "verification mirror write failed",
			"subject_id", subjectID,
			"error", err,
		)
	}

	s.metrics.IncrementEmailsVerified()
	s.auditor.Emit(ctx, audit.Event{SubjectID: subjectID, Action: audit.ActionEmailVerified})
	return nil
}
