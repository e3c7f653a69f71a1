package rules

import "time"

// Action types a rule can bind an event to.
const (
	ActionSendMessage     = "send_message"
	ActionTriggerCampaign = "trigger_campaign"
	ActionStartFlow       = "start_flow"
	ActionCallLuna        = "call_luna"
	ActionWebhookExternal = "webhook_external"
)

// Filter clause operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpIn          = "in"
	OpNotIn       = "not_in"
)

// AutomationRule binds a canonical event kind plus filters to an action.
// Rules are tenant-owned configuration: the orchestrator only reads them,
// except for bumping the execution counters after a real successful run.
type AutomationRule struct {
	ID                   string                 `json:"id" db:"id"`
	TenantInstanceID     string                 `json:"tenant_instance_id" db:"tenant_instance_id"`
	Name                 string                 `json:"name" db:"name"`
	EventType            string                 `json:"event_type" db:"event_type"`
	IsActive             bool                   `json:"is_active" db:"is_active"`
	Filters              []FilterClause         `json:"filters" db:"filters"`
	Expression           string                 `json:"expression,omitempty" db:"expression"`
	ActionType           string                 `json:"action_type" db:"action_type"`
	ActionConfig         map[string]interface{} `json:"action_config" db:"action_config"`
	MaxExecutionsPerHour int                    `json:"max_executions_per_hour" db:"max_executions_per_hour"`
	CooldownMinutes      int                    `json:"cooldown_minutes" db:"cooldown_minutes"`
	ExecutionCount       int                    `json:"execution_count" db:"execution_count"`
	LastExecutedAt       *time.Time             `json:"last_executed_at,omitempty" db:"last_executed_at"`
	CreatedAt            time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at" db:"updated_at"`
}

// FilterClause is one declarative predicate over a dot-path into the
// normalized event, e.g. {field: "order.total", operator: "greater_than",
// value: 100}. A rule's clauses are AND-ed.
type FilterClause struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// ConfigString reads a string entry from the action config, tolerating a
// missing key or a non-string value.
func (r *AutomationRule) ConfigString(key string) string {
	if r.ActionConfig == nil {
		return ""
	}
	if v, ok := r.ActionConfig[key].(string); ok {
		return v
	}
	return ""
}
