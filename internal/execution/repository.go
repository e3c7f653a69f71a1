package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, entry *LogEntry) error
	CountForRuleSince(ctx context.Context, ruleID string, since time.Time) (int, error)
	ExistsForCustomerSince(ctx context.Context, ruleID, customerKey string, since time.Time) (bool, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	snapshotJSON, err := json.Marshal(entry.EventSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode event snapshot: %w", err)
	}

	query := `
		INSERT INTO execution_logs (id, rule_id, tenant_instance_id, event_id, event_type,
			event_snapshot, customer_key, action_type, action_result, error_message,
			credits_consumed, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var errorMessage *string
	if entry.ErrorMessage != "" {
		errorMessage = &entry.ErrorMessage
	}

	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.RuleID, entry.TenantInstanceID, entry.EventID, entry.EventType,
		snapshotJSON, entry.CustomerKey, entry.ActionType, entry.ActionResult, errorMessage,
		entry.CreditsConsumed, entry.DurationMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append execution log: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CountForRuleSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM execution_logs
		WHERE rule_id = $1 AND created_at > $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, ruleID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ExistsForCustomerSince(ctx context.Context, ruleID, customerKey string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM execution_logs
			WHERE rule_id = $1 AND customer_key = $2 AND created_at > $3
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ruleID, customerKey, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check cooldown history: %w", err)
	}
	return exists, nil
}
