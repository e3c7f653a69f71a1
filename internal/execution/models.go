package execution

import "time"

// Action results recorded per rule execution.
const (
	ResultSuccess   = "success"
	ResultFailed    = "failed"
	ResultSimulated = "simulated"
)

// LogEntry is one append-only record of a rule execution attempt. The log
// doubles as the data source for the rate-limit and cooldown guards: it is
// read before being appended to within the same request, so guard checks
// always see history strictly older than the current execution.
type LogEntry struct {
	ID               string                 `json:"id" db:"id"`
	RuleID           string                 `json:"rule_id" db:"rule_id"`
	TenantInstanceID string                 `json:"tenant_instance_id" db:"tenant_instance_id"`
	EventID          string                 `json:"event_id" db:"event_id"`
	EventType        string                 `json:"event_type" db:"event_type"`
	EventSnapshot    map[string]interface{} `json:"event_snapshot" db:"event_snapshot"`
	CustomerKey      string                 `json:"customer_key" db:"customer_key"`
	ActionType       string                 `json:"action_type" db:"action_type"`
	ActionResult     string                 `json:"action_result" db:"action_result"`
	ErrorMessage     string                 `json:"error_message,omitempty" db:"error_message"`
	CreditsConsumed  int                    `json:"credits_consumed" db:"credits_consumed"`
	DurationMs       int64                  `json:"duration_ms" db:"duration_ms"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
}
