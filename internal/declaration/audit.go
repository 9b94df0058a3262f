package declaration

import (
	"time"

	"declara/pkg/domain"
)

// Action classifies one audit trail entry.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSign   Action = "sign"
)

// AuditEntry is one immutable record of the per-declaration history. Entries
// are append-only; nothing in this subsystem rewrites or deletes them.
type AuditEntry struct {
	ID            domain.EntryID
	DeclarationID domain.DeclarationID
	Action        Action
	ChangedFields map[FieldKey]string
	ActorID       string
	Timestamp     time.Time
}
