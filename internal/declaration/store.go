package declaration

import (
	"context"

	"declara/pkg/domain"
)

// Store persists declarations and their append-only audit trail. Stores
// return sentinel errors from pkg/platform/sentinel; the lifecycle service
// translates them into coded domain errors.
type Store interface {
	Create(ctx context.Context, d Declaration) error
	Update(ctx context.Context, d Declaration) error
	FindByID(ctx context.Context, declID domain.DeclarationID) (Declaration, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Declaration, error)

	AppendEntry(ctx context.Context, entry AuditEntry) error
	ListEntries(ctx context.Context, declID domain.DeclarationID) ([]AuditEntry, error)
}
