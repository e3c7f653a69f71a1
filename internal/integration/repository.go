package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pkgerrors "switchboard/pkg/errors"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Integration, error)
	FindByTenantAndProvider(ctx context.Context, tenantInstanceID, provider string) (*Integration, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const integrationColumns = `id, tenant_instance_id, provider, status, created_at, updated_at`

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByTenantAndProvider relies on the (tenant_instance_id, provider)
// uniqueness the schema enforces; callers use it when the webhook does not
// address an integration explicitly.
func (r *PostgresRepository) FindByTenantAndProvider(ctx context.Context, tenantInstanceID, provider string) (*Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE tenant_instance_id = $1 AND provider = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantInstanceID, provider))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*Integration, error) {
	var integ Integration
	err := row.Scan(
		&integ.ID,
		&integ.TenantInstanceID,
		&integ.Provider,
		&integ.Status,
		&integ.CreatedAt,
		&integ.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "integration not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	return &integ, nil
}
