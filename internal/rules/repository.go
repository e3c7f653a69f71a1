package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Repository interface {
	GetActiveRules(ctx context.Context, tenantInstanceID, eventType string) ([]AutomationRule, error)
	RecordExecution(ctx context.Context, ruleID string, executedAt time.Time) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActiveRules(ctx context.Context, tenantInstanceID, eventType string) ([]AutomationRule, error) {
	query := `
		SELECT id, tenant_instance_id, name, event_type, is_active, filters, expression,
		       action_type, action_config, max_executions_per_hour, cooldown_minutes,
		       execution_count, last_executed_at, created_at, updated_at
		FROM automation_rules
		WHERE tenant_instance_id = $1 AND event_type = $2 AND is_active = true
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantInstanceID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// RecordExecution bumps the rule's counters after a real successful run.
// Simulated and failed executions never touch them.
func (r *PostgresRepository) RecordExecution(ctx context.Context, ruleID string, executedAt time.Time) error {
	query := `
		UPDATE automation_rules
		SET execution_count = execution_count + 1, last_executed_at = $1, updated_at = $1
		WHERE id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, executedAt, ruleID); err != nil {
		return fmt.Errorf("failed to record rule execution: %w", err)
	}
	return nil
}

func scanRule(rows *sql.Rows) (*AutomationRule, error) {
	var rule AutomationRule
	var filtersJSON, configJSON []byte
	var expression sql.NullString
	var lastExecutedAt sql.NullTime

	if err := rows.Scan(
		&rule.ID,
		&rule.TenantInstanceID,
		&rule.Name,
		&rule.EventType,
		&rule.IsActive,
		&filtersJSON,
		&expression,
		&rule.ActionType,
		&configJSON,
		&rule.MaxExecutionsPerHour,
		&rule.CooldownMinutes,
		&rule.ExecutionCount,
		&lastExecutedAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	if len(filtersJSON) > 0 {
		if err := json.Unmarshal(filtersJSON, &rule.Filters); err != nil {
			return nil, fmt.Errorf("failed to decode rule filters: %w", err)
		}
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &rule.ActionConfig); err != nil {
			return nil, fmt.Errorf("failed to decode rule action config: %w", err)
		}
	}
	if expression.Valid {
		rule.Expression = expression.String
	}
	if lastExecutedAt.Valid {
		t := lastExecutedAt.Time
		rule.LastExecutedAt = &t
	}

	return &rule, nil
}
