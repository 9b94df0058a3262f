// Package postgres persists declarations and their audit trail in
// PostgreSQL. Audit entries are also written to the outbox table in the same
// transaction so the outbox worker can fan them out to Kafka.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"declara/internal/declaration"
	"declara/pkg/domain"
	"declara/pkg/platform/sentinel"
	txcontext "declara/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate creates the schema. Idempotent; meant for dev and integration
// tests, production uses managed migrations.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS declarations (
			id UUID PRIMARY KEY,
			resolution TEXT NOT NULL DEFAULT '',
			tracking_number TEXT NOT NULL DEFAULT '',
			legal_name TEXT NOT NULL DEFAULT '',
			tax_id TEXT NOT NULL DEFAULT '',
			brand_name TEXT NOT NULL DEFAULT '',
			legal_address TEXT NOT NULL DEFAULT '',
			plant_address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			representative_name TEXT NOT NULL DEFAULT '',
			representative_address TEXT NOT NULL DEFAULT '',
			representative_tax_id TEXT NOT NULL DEFAULT '',
			product_code TEXT NOT NULL DEFAULT '',
			manufacturer TEXT NOT NULL DEFAULT '',
			product_identification TEXT NOT NULL DEFAULT '',
			regulations TEXT NOT NULL DEFAULT '',
			technical_standards TEXT NOT NULL DEFAULT '',
			assessment_document TEXT NOT NULL DEFAULT '',
			declaration_link TEXT NOT NULL DEFAULT '',
			date_place TEXT NOT NULL DEFAULT '',
			signature_url TEXT NOT NULL DEFAULT '',
			document_url TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_declarations_created_by
			ON declarations (created_by, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS declaration_history (
			id UUID PRIMARY KEY,
			declaration_id UUID NOT NULL REFERENCES declarations (id),
			action TEXT NOT NULL,
			changed_fields JSONB NOT NULL DEFAULT '{}',
			actor_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_declaration_history_declaration
			ON declaration_history (declaration_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			published_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox (created_at) WHERE published_at IS NULL`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate declarations schema: %w", err)
		}
	}
	return nil
}

const declarationColumns = `
	id, resolution, tracking_number,
	legal_name, tax_id, brand_name, legal_address, plant_address, phone, email,
	representative_name, representative_address, representative_tax_id,
	product_code, manufacturer, product_identification,
	regulations, technical_standards, assessment_document,
	declaration_link, date_place, signature_url, document_url,
	created_by, created_at`

func declarationArgs(d declaration.Declaration) []any {
	return []any{
		uuid.UUID(d.ID), d.Resolution, d.TrackingNumber,
		d.LegalName, d.TaxID, d.BrandName, d.LegalAddress, d.PlantAddress, d.Phone, d.Email,
		d.Representative.Name, d.Representative.Address, d.Representative.TaxID,
		d.ProductCode, d.Manufacturer, d.ProductIdentification,
		d.Regulations, d.TechnicalStandards, d.AssessmentDocument,
		d.DeclarationLink, d.DatePlace, d.SignatureURL, d.DocumentURL,
		d.CreatedBy, d.CreatedAt,
	}
}

func (s *Store) Create(ctx context.Context, d declaration.Declaration) error {
	query := `
		INSERT INTO declarations (` + declarationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, declarationArgs(d)...)
	if err != nil {
		return fmt.Errorf("insert declaration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert declaration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) Update(ctx context.Context, d declaration.Declaration) error {
	query := `
		UPDATE declarations SET
			resolution = $2, tracking_number = $3,
			legal_name = $4, tax_id = $5, brand_name = $6,
			legal_address = $7, plant_address = $8, phone = $9, email = $10,
			representative_name = $11, representative_address = $12, representative_tax_id = $13,
			product_code = $14, manufacturer = $15, product_identification = $16,
			regulations = $17, technical_standards = $18, assessment_document = $19,
			declaration_link = $20, date_place = $21,
			signature_url = $22, document_url = $23
		WHERE id = $1
	`
	args := declarationArgs(d)
	result, err := s.execer(ctx).ExecContext(ctx, query, args[:23]...)
	if err != nil {
		return fmt.Errorf("update declaration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update declaration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, declID domain.DeclarationID) (declaration.Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(declID))
	d, err := scanDeclaration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return declaration.Declaration{}, sentinel.ErrNotFound
		}
		return declaration.Declaration{}, fmt.Errorf("find declaration: %w", err)
	}
	return d, nil
}

func (s *Store) ListByCreator(ctx context.Context, creatorID string) ([]declaration.Declaration, error) {
	query := `
		SELECT ` + declarationColumns + `
		FROM declarations
		WHERE created_by = $1
		ORDER BY created_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list declarations: %w", err)
	}
	defer rows.Close()

	var out []declaration.Declaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate declarations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeclaration(row scanner) (declaration.Declaration, error) {
	var (
		d  declaration.Declaration
		id uuid.UUID
	)
	err := row.Scan(
		&id, &d.Resolution, &d.TrackingNumber,
		&d.LegalName, &d.TaxID, &d.BrandName, &d.LegalAddress, &d.PlantAddress, &d.Phone, &d.Email,
		&d.Representative.Name, &d.Representative.Address, &d.Representative.TaxID,
		&d.ProductCode, &d.Manufacturer, &d.ProductIdentification,
		&d.Regulations, &d.TechnicalStandards, &d.AssessmentDocument,
		&d.DeclarationLink, &d.DatePlace, &d.SignatureURL, &d.DocumentURL,
		&d.CreatedBy, &d.CreatedAt,
	)
	if err != nil {
		return declaration.Declaration{}, err
	}
	d.ID = domain.DeclarationID(id)
	return d, nil
}

// entryPayload is the JSON structure written to the outbox and published to
// Kafka. Field names match audit.Event for the consumer side.
type entryPayload struct {
	ID            string            `json:"ID"`
	DeclarationID string            `json:"DeclarationID"`
	Action        string            `json:"Action"`
	ChangedFields map[string]string `json:"ChangedFields,omitempty"`
	ActorID       string            `json:"ActorID"`
	Timestamp     string            `json:"Timestamp"`
}

// AppendEntry writes the history row and the matching outbox row. Both
// inserts go through execer so they join the caller's transaction.
func (s *Store) AppendEntry(ctx context.Context, entry declaration.AuditEntry) error {
	changed, err := json.Marshal(changedFieldsMap(entry.ChangedFields))
	if err != nil {
		return fmt.Errorf("marshal changed fields: %w", err)
	}

	historyQuery := `
		INSERT INTO declaration_history (id, declaration_id, action, changed_fields, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, historyQuery,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.DeclarationID),
		string(entry.Action),
		changed,
		entry.ActorID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	payload := entryPayload{
		ID:            entry.ID.String(),
		DeclarationID: entry.DeclarationID.String(),
		Action:        string(entry.Action),
		ChangedFields: changedFieldsMap(entry.ChangedFields),
		ActorID:       entry.ActorID,
		Timestamp:     entry.Timestamp.Format(time.RFC3339Nano),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	outboxQuery := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, outboxQuery,
		uuid.New(),
		"declaration",
		entry.DeclarationID.String(),
		string(entry.Action),
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, declID domain.DeclarationID) ([]declaration.AuditEntry, error) {
	query := `
		SELECT id, declaration_id, action, changed_fields, actor_id, created_at
		FROM declaration_history
		WHERE declaration_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(declID))
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var entries []declaration.AuditEntry
	for rows.Next() {
		var (
			entry        declaration.AuditEntry
			entryID      uuid.UUID
			declarationU uuid.UUID
			action       string
			changed      []byte
		)
		if err := rows.Scan(&entryID, &declarationU, &action, &changed, &entry.ActorID, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		var fields map[string]string
		if err := json.Unmarshal(changed, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal changed fields: %w", err)
		}
		entry.ID = domain.EntryID(entryID)
		entry.DeclarationID = domain.DeclarationID(declarationU)
		entry.Action = declaration.Action(action)
		entry.ChangedFields = fieldKeyMap(fields)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

func changedFieldsMap(fields map[declaration.FieldKey]string) map[string]string {
	if fields == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[string(k)] = v
	}
	return out
}

func fieldKeyMap(fields map[string]string) map[declaration.FieldKey]string {
	out := make(map[declaration.FieldKey]string, len(fields))
	for k, v := range fields {
		out[declaration.FieldKey(k)] = v
	}
	return out
}
