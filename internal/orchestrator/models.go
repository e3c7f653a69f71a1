package orchestrator

import "switchboard/pkg/models"

// WebhookRequest is the inbound payload for both the live and the
// simulate endpoints. InstanceID is the tenant routing key.
type WebhookRequest struct {
	Provider      string                 `json:"provider" binding:"required"`
	InstanceID    string                 `json:"instance_id" binding:"required"`
	IntegrationID string                 `json:"integration_id"`
	Event         string                 `json:"event" binding:"required"`
	Payload       map[string]interface{} `json:"payload"`
	Simulate      bool                   `json:"simulate"`
}

// RuleResult is the per-rule outcome reported back to the caller.
type RuleResult struct {
	RuleID  string `json:"rule_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WebhookResponse summarizes one complete orchestration run.
type WebhookResponse struct {
	Success         bool                    `json:"success"`
	EventID         string                  `json:"event_id,omitempty"`
	NormalizedEvent *models.NormalizedEvent `json:"normalized_event,omitempty"`
	RulesMatched    int                     `json:"rules_matched"`
	Results         []RuleResult            `json:"results"`
	Simulated       bool                    `json:"simulated"`
	Message         string                  `json:"message,omitempty"`
}
