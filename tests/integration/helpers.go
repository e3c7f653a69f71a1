package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"switchboard/internal/logger"
	"switchboard/internal/rules"
)

const (
	containerStartupTimeout = 60

	testTenant = "tenant-itest"
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func insertIntegration(t *testing.T, db *sql.DB, tenantID, provider, status string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO integrations (id, tenant_instance_id, provider, status)
		VALUES ($1, $2, $3, $4)
	`, id, tenantID, provider, status)
	if err != nil {
		t.Fatalf("failed to insert integration: %v", err)
	}
	return id
}

func insertRule(t *testing.T, db *sql.DB, rule *rules.AutomationRule) string {
	t.Helper()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	filters, err := json.Marshal(rule.Filters)
	if err != nil {
		t.Fatalf("failed to marshal filters: %v", err)
	}
	actionConfig, err := json.Marshal(rule.ActionConfig)
	if err != nil {
		t.Fatalf("failed to marshal action config: %v", err)
	}
	if rule.ActionConfig == nil {
		actionConfig = []byte(`{}`)
	}

	var expression *string
	if rule.Expression != "" {
		expression = &rule.Expression
	}

	_, err = db.Exec(`
		INSERT INTO automation_rules (id, tenant_instance_id, name, event_type, is_active,
			filters, expression, action_type, action_config,
			max_executions_per_hour, cooldown_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rule.ID, rule.TenantInstanceID, rule.Name, rule.EventType, rule.IsActive,
		filters, expression, rule.ActionType, actionConfig,
		rule.MaxExecutionsPerHour, rule.CooldownMinutes)
	if err != nil {
		t.Fatalf("failed to insert rule: %v", err)
	}
	return rule.ID
}

func insertTenantSettings(t *testing.T, db *sql.DB, tenantID, endpoint, token string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO tenant_settings (tenant_instance_id, transport_endpoint, transport_token)
		VALUES ($1, $2, $3)
	`, tenantID, endpoint, token)
	if err != nil {
		t.Fatalf("failed to insert tenant settings: %v", err)
	}
}

func insertExecutionLog(t *testing.T, db *sql.DB, ruleID, tenantID, customerKey, result string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO execution_logs (id, rule_id, tenant_instance_id, event_id, event_type,
			event_snapshot, customer_key, action_type, action_result, created_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6, 'send_message', $7, $8)
	`, uuid.New().String(), ruleID, tenantID, uuid.New().String(), "order_paid",
		customerKey, result, createdAt)
	if err != nil {
		t.Fatalf("failed to insert execution log: %v", err)
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
