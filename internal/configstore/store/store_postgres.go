package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"relay/internal/configstore/models"
	"relay/internal/sentinel"
)

const configEntryColumns = `id, config_code, module, channel, tenant_id, value, revision, enabled,
	created_by, created_time, last_modified_by, last_modified_time`

// PostgresStore persists config entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed config store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, entry *models.ConfigEntry) error {
	if entry == nil {
		return fmt.Errorf("config entry is required")
	}
	query := `
		INSERT INTO config_entry (` + configEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID string
	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.ConfigCode,
		nullString(entry.Module),
		nullString(entry.Channel),
		entry.TenantID,
		entry.Value,
		entry.Revision,
		entry.Enabled,
		entry.Audit.CreatedBy,
		entry.Audit.CreatedTime,
		entry.Audit.LastModifiedBy,
		entry.Audit.LastModifiedTime,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save config entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ConfigEntry, error) {
	query := `SELECT ` + configEntryColumns + ` FROM config_entry WHERE id = $1`
	entry, err := scanConfigEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get config entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Update(ctx context.Context, entry *models.ConfigEntry, expectedRevision int) error {
	if entry == nil {
		return fmt.Errorf("config entry is required")
	}
	query := `
		UPDATE config_entry
		SET config_code = $2, module = $3, channel = $4, tenant_id = $5, value = $6,
			revision = $7, enabled = $8, last_modified_by = $9, last_modified_time = $10
		WHERE id = $1 AND revision = $11
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ConfigCode,
		nullString(entry.Module),
		nullString(entry.Channel),
		entry.TenantID,
		entry.Value,
		entry.Revision,
		entry.Enabled,
		entry.Audit.LastModifiedBy,
		entry.Audit.LastModifiedTime,
		expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update config entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update config entry rows: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing row from a stale revision.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM config_entry WHERE id = $1)`, entry.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check config entry: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.ConfigEntry, error) {
	query, args := buildSearchQuery(`SELECT `+configEntryColumns+` FROM config_entry`, criteria)
	query += " ORDER BY last_modified_time DESC"
	if criteria.Limit > 0 {
		args = append(args, criteria.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if criteria.Offset > 0 {
		args = append(args, criteria.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search config entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ConfigEntry
	for rows.Next() {
		entry, err := scanConfigEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan config entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Count(ctx context.Context, criteria models.SearchCriteria) (int64, error) {
	query, args := buildSearchQuery(`SELECT COUNT(*) FROM config_entry`, criteria)
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count config entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Resolve(ctx context.Context, params models.ResolveParams, chain []string) (*models.ConfigEntry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	add("config_code = $%d", params.ConfigCode)
	if params.Module != "" {
		add("module = $%d", params.Module)
	}
	if params.Channel != "" {
		add("channel = $%d", params.Channel)
	}
	if params.EventName != "" {
		add("value->>'eventName' = $%d", params.EventName)
	}
	conds = append(conds, "(enabled IS NULL OR enabled = TRUE)")

	// Rank by position within the fallback chain; ties go to the most
	// recently modified record.
	placeholders := make([]string, len(chain))
	rankCases := make([]string, len(chain))
	for i, t := range chain {
		args = append(args, t)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
		rankCases[i] = fmt.Sprintf("WHEN $%d THEN %d", len(args), i)
	}
	conds = append(conds, "tenant_id IN ("+strings.Join(placeholders, ", ")+")")

	query := `SELECT ` + configEntryColumns + ` FROM config_entry WHERE ` +
		strings.Join(conds, " AND ") +
		" ORDER BY CASE tenant_id " + strings.Join(rankCases, " ") + " END, last_modified_time DESC LIMIT 1"

	entry, err := scanConfigEntry(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("resolve config entry: %w", err)
	}
	return entry, nil
}

func buildSearchQuery(base string, c models.SearchCriteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(c.IDs) > 0 {
		add("id = ANY($%d)", c.IDs)
	}
	if c.ConfigCode != "" {
		add("config_code = $%d", c.ConfigCode)
	}
	if c.Module != "" {
		add("module = $%d", c.Module)
	}
	if c.Channel != "" {
		add("channel = $%d", c.Channel)
	}
	if c.TenantID != "" {
		add("tenant_id = $%d", c.TenantID)
	}
	if c.EventName != "" {
		add("value->>'eventName' = $%d", c.EventName)
	}
	if c.Enabled != nil {
		if *c.Enabled {
			conds = append(conds, "(enabled IS NULL OR enabled = TRUE)")
		} else {
			conds = append(conds, "enabled = FALSE")
		}
	}
	for key, want := range c.ValueFilter {
		args = append(args, key, want)
		conds = append(conds, fmt.Sprintf("value->>$%d = $%d", len(args)-1, len(args)))
	}

	if len(conds) == 0 {
		return base, args
	}
	return base + " WHERE " + strings.Join(conds, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfigEntry(row rowScanner) (*models.ConfigEntry, error) {
	var (
		entry   models.ConfigEntry
		module  sql.NullString
		channel sql.NullString
		enabled sql.NullBool
	)
	if err := row.Scan(
		&entry.ID,
		&entry.ConfigCode,
		&module,
		&channel,
		&entry.TenantID,
		&entry.Value,
		&entry.Revision,
		&enabled,
		&entry.Audit.CreatedBy,
		&entry.Audit.CreatedTime,
		&entry.Audit.LastModifiedBy,
		&entry.Audit.LastModifiedTime,
	); err != nil {
		return nil, err
	}
	entry.Module = module.String
	entry.Channel = channel.String
	if enabled.Valid {
		entry.Enabled = &enabled.Bool
	}
	return &entry, nil
}
