// Package domain holds typed identifiers shared across the engine. Wrapping
// uuid.UUID in distinct named types makes cross-entity ID mixups a compile
// error instead of a runtime bug.
package domain

import (
	"github.com/google/uuid"

	dErrors "declara/pkg/domainerrors"
)

// DeclarationID identifies one declaration record. Created once, never reused.
type DeclarationID uuid.UUID

// EntryID identifies one audit trail entry.
type EntryID uuid.UUID

// NewDeclarationID returns a fresh random declaration ID.
func NewDeclarationID() DeclarationID {
	return DeclarationID(uuid.New())
}

// NewEntryID returns a fresh random audit entry ID.
func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

// ParseDeclarationID validates a declaration ID at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseDeclarationID(s string) (DeclarationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DeclarationID{}, err
	}
	return DeclarationID(u), nil
}

// ParseEntryID validates an audit entry ID at a trust boundary.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return u, nil
}

func (id DeclarationID) String() string { return uuid.UUID(id).String() }
func (id DeclarationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EntryID) String() string { return uuid.UUID(id).String() }
func (id EntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
