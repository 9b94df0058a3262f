// Package service orchestrates the declaration lifecycle: draft creation,
// draft updates, and finalization into a signed document, each with its
// audit entry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"declara/internal/declaration"
	"declara/internal/platform/metrics"
	"declara/internal/signature"
	"declara/internal/storage"
	"declara/pkg/domain"
	"declara/pkg/domainerrors"
	"declara/pkg/platform/sentinel"
	"declara/pkg/requestcontext"
)

// Renderer produces the declaration document from a record and an optional
// signature raster.
type Renderer interface {
	Render(ctx context.Context, d declaration.Declaration, signature []byte) ([]byte, error)
}

type Service struct {
	store    declaration.Store
	objects  storage.ObjectStore
	renderer Renderer
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

// WithMetrics attaches operation metrics. Without it the service runs
// unmetered, which unit tests rely on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store declaration.Store, objects storage.ObjectStore, renderer Renderer, tx TxRunner, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		objects:  objects,
		renderer: renderer,
		tx:       tx,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft validates the input and persists a new draft with its creation
// audit entry. The resolution and date-place fields get their defaults when
// absent, before validation runs.
func (s *Service) CreateDraft(ctx context.Context, in declaration.Input) (declaration.Declaration, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return declaration.Declaration{}, err
	}
	now := requestcontext.Now(ctx)

	if in.Resolution == "" {
		in.Resolution = declaration.DefaultResolution
	}
	if in.DatePlace == "" {
		in.DatePlace = declaration.DefaultDatePlace(now)
	}

	if err := s.validate(ctx, in, false); err != nil {
		return declaration.Declaration{}, err
	}

	d := in.Apply(declaration.Declaration{
		ID:        domain.NewDeclarationID(),
		CreatedBy: actor,
		CreatedAt: now,
	})

	entry := declaration.AuditEntry{
		ID:            domain.NewEntryID(),
		DeclarationID: d.ID,
		Action:        declaration.ActionCreate,
		ChangedFields: declaration.Diff(nil, d),
		ActorID:       actor,
		Timestamp:     now,
	}

	err = s.tx.RunInTx(WithTxKey(ctx, d.ID.String()), func(ctx context.Context) error {
		if err := s.store.Create(ctx, d); err != nil {
			return err
		}
		return s.store.AppendEntry(ctx, entry)
	})
	if err != nil {
		return declaration.Declaration{}, s.persistenceError(ctx, err, "create declaration")
	}

	if s.metrics != nil {
		s.metrics.DeclarationsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "declaration draft created",
		"declaration_id", d.ID, "actor_id", actor)
	return d, nil
}

// SaveDraft validates and applies the full field set to an existing record.
// Exactly one update entry is appended per successful call, with the diff
// against the stored record computed inside the transaction. Concurrent
// saves are last-write-wins.
func (s *Service) SaveDraft(ctx context.Context, declID domain.DeclarationID, in declaration.Input) (declaration.Declaration, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return declaration.Declaration{}, err
	}
	now := requestcontext.Now(ctx)

	if err := s.validate(ctx, in, false); err != nil {
		return declaration.Declaration{}, err
	}

	var next declaration.Declaration
	err = s.tx.RunInTx(WithTxKey(ctx, declID.String()), func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, declID)
		if err != nil {
			return err
		}
		next = in.Apply(current)

		if err := s.store.Update(ctx, next); err != nil {
			return err
		}
		return s.store.AppendEntry(ctx, declaration.AuditEntry{
			ID:            domain.NewEntryID(),
			DeclarationID: declID,
			Action:        declaration.ActionUpdate,
			ChangedFields: declaration.Diff(&current, next),
			ActorID:       actor,
			Timestamp:     now,
		})
	})
	if err != nil {
		return declaration.Declaration{}, s.persistenceError(ctx, err, "save declaration draft")
	}

	s.logger.InfoContext(ctx, "declaration draft saved",
		"declaration_id", declID, "actor_id", actor)
	return next, nil
}

// Finalize renders and stores the signed document. The signature raster
// comes from the input; when absent, a previously stored signature is
// reused. Render and artifact writes happen before the record transaction,
// so a storage failure leaves the record and trail untouched.
func (s *Service) Finalize(ctx context.Context, declID domain.DeclarationID, in declaration.Input) (declaration.Declaration, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return declaration.Declaration{}, err
	}
	now := requestcontext.Now(ctx)

	current, err := s.store.FindByID(ctx, declID)
	if err != nil {
		return declaration.Declaration{}, s.persistenceError(ctx, err, "load declaration")
	}

	raster := in.Signature
	if len(raster) > 0 {
		// Uploaded signatures are normalized to the pad's canonical trimmed
		// PNG; rasters reloaded from storage already went through this.
		raster, err = signature.Normalize(raster)
		if err != nil {
			return declaration.Declaration{}, err
		}
	}
	if len(raster) == 0 && current.SignatureURL != "" {
		raster, err = s.objects.Get(ctx, storage.KeyFromURL(current.SignatureURL))
		if err != nil {
			return declaration.Declaration{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "load stored signature")
		}
	}
	in.Signature = raster

	if err := s.validate(ctx, in, true); err != nil {
		return declaration.Declaration{}, err
	}

	next := in.Apply(current)

	renderStart := time.Now()
	pdf, err := s.renderer.Render(ctx, next, raster)
	if err != nil {
		return declaration.Declaration{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRender(time.Since(renderStart))
	}

	sigURL, err := s.objects.Put(ctx, storage.SignatureKey(next.ProductCode, now), raster, "image/png")
	if err != nil {
		return declaration.Declaration{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "store signature image")
	}
	docURL, err := s.objects.Put(ctx, storage.DocumentKey(next.ProductCode, now), pdf, "application/pdf")
	if err != nil {
		return declaration.Declaration{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "store rendered document")
	}

	next.SignatureURL = sigURL
	next.DocumentURL = docURL

	entry := declaration.AuditEntry{
		ID:            domain.NewEntryID(),
		DeclarationID: declID,
		Action:        declaration.ActionFor(&current, next),
		ChangedFields: declaration.Diff(&current, next),
		ActorID:       actor,
		Timestamp:     now,
	}

	err = s.tx.RunInTx(WithTxKey(ctx, declID.String()), func(ctx context.Context) error {
		if err := s.store.Update(ctx, next); err != nil {
			return err
		}
		return s.store.AppendEntry(ctx, entry)
	})
	if err != nil {
		return declaration.Declaration{}, s.persistenceError(ctx, err, "finalize declaration")
	}

	if s.metrics != nil {
		s.metrics.DeclarationsFinalized.Inc()
		s.metrics.ArtifactBytesWritten.Add(float64(len(pdf) + len(raster)))
	}
	s.logger.InfoContext(ctx, "declaration finalized",
		"declaration_id", declID, "actor_id", actor, "action", entry.Action)
	return next, nil
}

// Get returns one declaration.
func (s *Service) Get(ctx context.Context, declID domain.DeclarationID) (declaration.Declaration, error) {
	if _, err := s.actor(ctx); err != nil {
		return declaration.Declaration{}, err
	}
	d, err := s.store.FindByID(ctx, declID)
	if err != nil {
		return declaration.Declaration{}, s.persistenceError(ctx, err, "load declaration")
	}
	return d, nil
}

// List returns the calling actor's declarations, newest first.
func (s *Service) List(ctx context.Context) ([]declaration.Declaration, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListByCreator(ctx, actor)
	if err != nil {
		return nil, s.persistenceError(ctx, err, "list declarations")
	}
	return out, nil
}

// History returns a declaration's audit trail, newest first.
func (s *Service) History(ctx context.Context, declID domain.DeclarationID) ([]declaration.AuditEntry, error) {
	if _, err := s.actor(ctx); err != nil {
		return nil, err
	}
	if _, err := s.store.FindByID(ctx, declID); err != nil {
		return nil, s.persistenceError(ctx, err, "load declaration")
	}
	entries, err := s.store.ListEntries(ctx, declID)
	if err != nil {
		return nil, s.persistenceError(ctx, err, "list history entries")
	}
	return entries, nil
}

func (s *Service) actor(ctx context.Context) (string, error) {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "missing actor identity")
	}
	return actor, nil
}

func (s *Service) validate(ctx context.Context, in declaration.Input, requireSignature bool) error {
	res := in.Validate(requireSignature)
	if res.OK() {
		return nil
	}
	if s.metrics != nil {
		s.metrics.ValidationFailures.Inc()
	}
	fields := make(map[string]string, len(res.Errors))
	for key, msg := range res.Errors {
		fields[string(key)] = msg
	}
	s.logger.InfoContext(ctx, "declaration input rejected", "fields", len(fields))
	return domainerrors.Validation(fields)
}

func (s *Service) persistenceError(ctx context.Context, err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.New(domainerrors.CodeNotFound, "declaration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, op)
	case domainerrors.HasCode(err, domainerrors.CodeTimeout):
		return err
	default:
		s.logger.ErrorContext(ctx, "persistence failure", "op", op, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodePersistence, op)
	}
}
