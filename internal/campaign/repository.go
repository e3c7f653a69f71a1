package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "switchboard/pkg/errors"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Campaign, error)
	ContactExists(ctx context.Context, campaignID, phone string) (bool, error)
	AddContact(ctx context.Context, contact *Contact) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Campaign, error) {
	query := `
		SELECT id, tenant_instance_id, name, contact_count, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`

	var c Campaign
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.TenantInstanceID, &c.Name, &c.ContactCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("campaign '%s' not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	return &c, nil
}

func (r *PostgresRepository) ContactExists(ctx context.Context, campaignID, phone string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM campaign_contacts WHERE campaign_id = $1 AND phone = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, campaignID, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check campaign contact: %w", err)
	}
	return exists, nil
}

// AddContact appends the contact and bumps the campaign counter in the
// same statement batch; each write stands alone, no transaction is taken.
func (r *PostgresRepository) AddContact(ctx context.Context, contact *Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now()
	}

	insert := `
		INSERT INTO campaign_contacts (id, campaign_id, phone, name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, insert,
		contact.ID, contact.CampaignID, contact.Phone, contact.Name, contact.Email, contact.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add campaign contact: %w", err)
	}

	bump := `UPDATE campaigns SET contact_count = contact_count + 1, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, bump, contact.CreatedAt, contact.CampaignID); err != nil {
		return fmt.Errorf("failed to bump campaign contact count: %w", err)
	}

	return nil
}
