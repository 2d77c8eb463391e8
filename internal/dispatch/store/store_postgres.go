package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"relay/internal/dispatch/models"
)

// PostgresStore persists dispatch log entries in PostgreSQL. Redelivered
// events overwrite the outcome fields of the existing row instead of
// duplicating it.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres constructs a PostgreSQL-backed dispatch log.
func NewPostgres(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) Upsert(ctx context.Context, entry *models.LogEntry) error {
	if entry == nil {
		return fmt.Errorf("dispatch log entry is required")
	}

	var providerResponse []byte
	if entry.ProviderResponse != nil {
		raw, err := json.Marshal(entry.ProviderResponse)
		if err != nil {
			// The outcome is already decided; an unserializable provider
			// response must not fail the dispatch.
			s.logger.ErrorContext(ctx, "failed serializing provider response",
				"event_id", entry.EventID,
				"error", err,
			)
		} else {
			providerResponse = raw
		}
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO dispatch_log (id, event_id, module, event_name, tenant_id, channel, recipient_value,
			template_key, template_version, status, attempt_count, last_error_code, last_error_message,
			provider_response, created_time, last_modified_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_id, channel) DO UPDATE SET
			status = EXCLUDED.status,
			attempt_count = EXCLUDED.attempt_count,
			last_error_code = EXCLUDED.last_error_code,
			last_error_message = EXCLUDED.last_error_message,
			provider_response = EXCLUDED.provider_response,
			last_modified_time = EXCLUDED.last_modified_time
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		entry.EventID,
		nullString(entry.Module),
		entry.EventName,
		entry.TenantID,
		entry.Channel,
		nullString(entry.RecipientValue),
		nullString(entry.TemplateKey),
		nullString(entry.TemplateVersion),
		string(entry.Status),
		entry.AttemptCount,
		nullString(entry.LastErrorCode),
		nullString(entry.LastErrorMessage),
		providerResponse,
		entry.CreatedTime,
		entry.LastModifiedTime,
	)
	if err != nil {
		return fmt.Errorf("upsert dispatch log: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
