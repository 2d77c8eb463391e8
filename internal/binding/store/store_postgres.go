package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"relay/internal/binding/models"
	"relay/internal/sentinel"
)

const bindingColumns = `id, event_name, tenant_id, template_id, provider_id, param_order,
	required_vars, content_sid, locale, template_version, enabled,
	created_by, created_time, last_modified_by, last_modified_time`

const providerColumns = `id, name, tenant_id, value, enabled,
	created_by, created_time, last_modified_by, last_modified_time`

// PostgresStore persists bindings and provider details in PostgreSQL.
// String slices map to JSONB columns via jsonStrings.
type PostgresStore struct {
	db *sql.DB
}

// jsonStrings stores a string slice as a JSONB array.
type jsonStrings []string

func (j jsonStrings) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal([]string(j))
}

func (j *jsonStrings) Scan(src any) error {
	if src == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported string array scan type %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(j))
}

// NewPostgres constructs a PostgreSQL-backed binding store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveBinding(ctx context.Context, binding *models.TemplateBinding) error {
	if binding == nil {
		return fmt.Errorf("template binding is required")
	}
	query := `
		INSERT INTO template_binding (` + bindingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID string
	err := s.db.QueryRowContext(ctx, query,
		binding.ID,
		binding.EventName,
		binding.TenantID,
		binding.TemplateID,
		nullString(binding.ProviderID),
		jsonStrings(binding.ParamOrder),
		jsonStrings(binding.RequiredVars),
		nullString(binding.ContentSid),
		nullString(binding.Locale),
		nullString(binding.TemplateVersion),
		binding.Enabled,
		binding.Audit.CreatedBy,
		binding.Audit.CreatedTime,
		binding.Audit.LastModifiedBy,
		binding.Audit.LastModifiedTime,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save template binding: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBinding(ctx context.Context, id string) (*models.TemplateBinding, error) {
	query := `SELECT ` + bindingColumns + ` FROM template_binding WHERE id = $1`
	binding, err := scanBinding(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get template binding: %w", err)
	}
	return binding, nil
}

func (s *PostgresStore) UpdateBinding(ctx context.Context, binding *models.TemplateBinding) error {
	if binding == nil {
		return fmt.Errorf("template binding is required")
	}
	query := `
		UPDATE template_binding
		SET event_name = $2, tenant_id = $3, template_id = $4, provider_id = $5,
			param_order = $6, required_vars = $7, content_sid = $8, locale = $9,
			template_version = $10, enabled = $11, last_modified_by = $12, last_modified_time = $13
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		binding.ID,
		binding.EventName,
		binding.TenantID,
		binding.TemplateID,
		nullString(binding.ProviderID),
		jsonStrings(binding.ParamOrder),
		jsonStrings(binding.RequiredVars),
		nullString(binding.ContentSid),
		nullString(binding.Locale),
		nullString(binding.TemplateVersion),
		binding.Enabled,
		binding.Audit.LastModifiedBy,
		binding.Audit.LastModifiedTime,
	)
	if err != nil {
		return fmt.Errorf("update template binding: %w", err)
	}
	return rowsAffectedOrNotFound(res, "update template binding")
}

func (s *PostgresStore) SearchBindings(ctx context.Context, criteria models.BindingSearchCriteria) ([]*models.TemplateBinding, error) {
	query, args := buildBindingQuery(`SELECT `+bindingColumns+` FROM template_binding`, criteria)
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
		return nil, fmt.Errorf("search template bindings: %w", err)
	}
	defer rows.Close()

	var bindings []*models.TemplateBinding
	for rows.Next() {
		binding, err := scanBinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template binding: %w", err)
		}
		bindings = append(bindings, binding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template bindings: %w", err)
	}
	return bindings, nil
}

func (s *PostgresStore) CountBindings(ctx context.Context, criteria models.BindingSearchCriteria) (int64, error) {
	query, args := buildBindingQuery(`SELECT COUNT(*) FROM template_binding`, criteria)
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count template bindings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ResolveBinding(ctx context.Context, eventName string, chain []string) (*models.TemplateBinding, error) {
	args := []any{eventName}
	placeholders := make([]string, len(chain))
	rankCases := make([]string, len(chain))
	for i, t := range chain {
		args = append(args, t)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
		rankCases[i] = fmt.Sprintf("WHEN $%d THEN %d", len(args), i)
	}

	query := `SELECT ` + bindingColumns + ` FROM template_binding
		WHERE event_name = $1
		AND (enabled IS NULL OR enabled = TRUE)
		AND tenant_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY CASE tenant_id ` + strings.Join(rankCases, " ") + ` END, last_modified_time DESC
		LIMIT 1`

	binding, err := scanBinding(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("resolve template binding: %w", err)
	}
	return binding, nil
}

func (s *PostgresStore) SaveProvider(ctx context.Context, provider *models.ProviderDetail) error {
	if provider == nil {
		return fmt.Errorf("provider detail is required")
	}
	query := `
		INSERT INTO provider_detail (` + providerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID string
	err := s.db.QueryRowContext(ctx, query,
		provider.ID,
		provider.Name,
		provider.TenantID,
		provider.Value,
		provider.Enabled,
		provider.Audit.CreatedBy,
		provider.Audit.CreatedTime,
		provider.Audit.LastModifiedBy,
		provider.Audit.LastModifiedTime,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save provider detail: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*models.ProviderDetail, error) {
	query := `SELECT ` + providerColumns + ` FROM provider_detail WHERE id = $1`
	provider, err := scanProvider(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get provider detail: %w", err)
	}
	return provider, nil
}

func (s *PostgresStore) UpdateProvider(ctx context.Context, provider *models.ProviderDetail) error {
	if provider == nil {
		return fmt.Errorf("provider detail is required")
	}
	query := `
		UPDATE provider_detail
		SET name = $2, tenant_id = $3, value = $4, enabled = $5,
			last_modified_by = $6, last_modified_time = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		provider.ID,
		provider.Name,
		provider.TenantID,
		provider.Value,
		provider.Enabled,
		provider.Audit.LastModifiedBy,
		provider.Audit.LastModifiedTime,
	)
	if err != nil {
		return fmt.Errorf("update provider detail: %w", err)
	}
	return rowsAffectedOrNotFound(res, "update provider detail")
}

func (s *PostgresStore) SearchProviders(ctx context.Context, criteria models.ProviderSearchCriteria) ([]*models.ProviderDetail, error) {
	query, args := buildProviderQuery(`SELECT `+providerColumns+` FROM provider_detail`, criteria)
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
		return nil, fmt.Errorf("search provider details: %w", err)
	}
	defer rows.Close()

	var providers []*models.ProviderDetail
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider detail: %w", err)
		}
		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider details: %w", err)
	}
	return providers, nil
}

func (s *PostgresStore) CountProviders(ctx context.Context, criteria models.ProviderSearchCriteria) (int64, error) {
	query, args := buildProviderQuery(`SELECT COUNT(*) FROM provider_detail`, criteria)
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count provider details: %w", err)
	}
	return count, nil
}

func buildBindingQuery(base string, c models.BindingSearchCriteria) (string, []any) {
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
	if c.EventName != "" {
		add("event_name = $%d", c.EventName)
	}
	if c.TenantID != "" {
		add("tenant_id = $%d", c.TenantID)
	}
	if c.TemplateID != "" {
		add("template_id = $%d", c.TemplateID)
	}
	if c.ProviderID != "" {
		add("provider_id = $%d", c.ProviderID)
	}
	if c.Enabled != nil {
		if *c.Enabled {
			conds = append(conds, "(enabled IS NULL OR enabled = TRUE)")
		} else {
			conds = append(conds, "enabled = FALSE")
		}
	}

	if len(conds) == 0 {
		return base, args
	}
	return base + " WHERE " + strings.Join(conds, " AND "), args
}

func buildProviderQuery(base string, c models.ProviderSearchCriteria) (string, []any) {
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
	if c.Name != "" {
		add("name = $%d", c.Name)
	}
	if c.TenantID != "" {
		add("tenant_id = $%d", c.TenantID)
	}
	if c.Enabled != nil {
		if *c.Enabled {
			conds = append(conds, "(enabled IS NULL OR enabled = TRUE)")
		} else {
			conds = append(conds, "enabled = FALSE")
		}
	}

	if len(conds) == 0 {
		return base, args
	}
	return base + " WHERE " + strings.Join(conds, " AND "), args
}

func rowsAffectedOrNotFound(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*models.TemplateBinding, error) {
	var (
		binding         models.TemplateBinding
		providerID      sql.NullString
		paramOrder      jsonStrings
		requiredVars    jsonStrings
		contentSid      sql.NullString
		locale          sql.NullString
		templateVersion sql.NullString
		enabled         sql.NullBool
	)
	if err := row.Scan(
		&binding.ID,
		&binding.EventName,
		&binding.TenantID,
		&binding.TemplateID,
		&providerID,
		&paramOrder,
		&requiredVars,
		&contentSid,
		&locale,
		&templateVersion,
		&enabled,
		&binding.Audit.CreatedBy,
		&binding.Audit.CreatedTime,
		&binding.Audit.LastModifiedBy,
		&binding.Audit.LastModifiedTime,
	); err != nil {
		return nil, err
	}
	binding.ProviderID = providerID.String
	binding.ParamOrder = []string(paramOrder)
	binding.RequiredVars = []string(requiredVars)
	binding.ContentSid = contentSid.String
	binding.Locale = locale.String
	binding.TemplateVersion = templateVersion.String
	if enabled.Valid {
		binding.Enabled = &enabled.Bool
	}
	return &binding, nil
}

func scanProvider(row rowScanner) (*models.ProviderDetail, error) {
	var (
		provider models.ProviderDetail
		enabled  sql.NullBool
	)
	if err := row.Scan(
		&provider.ID,
		&provider.Name,
		&provider.TenantID,
		&provider.Value,
		&enabled,
		&provider.Audit.CreatedBy,
		&provider.Audit.CreatedTime,
		&provider.Audit.LastModifiedBy,
		&provider.Audit.LastModifiedTime,
	); err != nil {
		return nil, err
	}
	if enabled.Valid {
		provider.Enabled = &enabled.Bool
	}
	return &provider, nil
}
