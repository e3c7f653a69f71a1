package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pkgerrors "switchboard/pkg/errors"
)

type Repository interface {
	GetSettings(ctx context.Context, tenantInstanceID string) (*Settings, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetSettings(ctx context.Context, tenantInstanceID string) (*Settings, error) {
	query := `
		SELECT tenant_instance_id, transport_endpoint, transport_token,
		       default_country_code, created_at, updated_at
		FROM tenant_settings
		WHERE tenant_instance_id = $1
	`

	var settings Settings
	err := r.db.QueryRowContext(ctx, query, tenantInstanceID).Scan(
		&settings.TenantInstanceID,
		&settings.TransportEndpoint,
		&settings.TransportToken,
		&settings.DefaultCountryCode,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithDetail("message",
			fmt.Sprintf("no transport settings for tenant instance '%s'", tenantInstanceID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}

	return &settings, nil
}
