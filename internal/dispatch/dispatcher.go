package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"switchboard/internal/campaign"
	"switchboard/internal/constants"
	"switchboard/internal/logger"
	"switchboard/internal/rules"
	"switchboard/internal/tenant"
	"switchboard/pkg/circuitbreaker"
	"switchboard/pkg/metrics"
	"switchboard/pkg/models"
)

// Result is the outcome of one action execution.
type Result struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	CreditsConsumed int    `json:"credits_consumed"`
}

// Dispatcher routes a matched rule to its action implementation.
type Dispatcher struct {
	messages  *MessageSender
	campaigns *CampaignTrigger
	webhooks  *WebhookSender
	log       logger.Logger
}

func NewDispatcher(tenants tenant.Repository, campaigns campaign.Repository, countryCode string, log logger.Logger) *Dispatcher {
	client := &http.Client{Timeout: constants.DispatchHTTPTimeout}

	return &Dispatcher{
		messages: NewMessageSender(tenants, client,
			circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("message-transport")), countryCode, log),
		campaigns: NewCampaignTrigger(campaigns, countryCode, log),
		webhooks: NewWebhookSender(client,
			circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("external-webhook")), log),
		log: log,
	}
}

// Execute runs the rule's action against the event. Unknown action types
// fail with an explicit message rather than silently doing nothing.
func (d *Dispatcher) Execute(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) Result {
	start := time.Now()

	var result Result
	switch rule.ActionType {
	case rules.ActionSendMessage:
		result = d.messages.Send(ctx, event, rule, simulate)
	case rules.ActionTriggerCampaign:
		result = d.campaigns.Trigger(ctx, event, rule, simulate)
	case rules.ActionWebhookExternal:
		result = d.webhooks.Send(ctx, event, rule, simulate)
	case rules.ActionStartFlow, rules.ActionCallLuna:
		// Reserved extension points, accepted but not yet implemented.
		result = Result{
			Success: true,
			Message: fmt.Sprintf("action %s acknowledged (not yet implemented)", rule.ActionType),
		}
	default:
		result = Result{
			Success: false,
			Message: fmt.Sprintf("unknown action type '%s'", rule.ActionType),
		}
	}

	outcome := "failed"
	if result.Success {
		outcome = "success"
	}
	if simulate {
		outcome = "simulated"
	}
	metrics.DispatchTotal.WithLabelValues(rule.ActionType, outcome).Inc()
	metrics.ObserveDispatchDuration(rule.ActionType, time.Since(start))
	if result.CreditsConsumed > 0 && !simulate {
		metrics.CreditsConsumedTotal.WithLabelValues(rule.ActionType).Add(float64(result.CreditsConsumed))
	}

	return result
}
