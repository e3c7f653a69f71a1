package orchestrator

import (
	"context"
	"fmt"
	"time"

	"switchboard/internal/broker"
	"switchboard/internal/dispatch"
	"switchboard/internal/execution"
	"switchboard/internal/guard"
	"switchboard/internal/integration"
	"switchboard/internal/logger"
	"switchboard/internal/normalizer"
	"switchboard/internal/rules"
	pkgcel "switchboard/pkg/cel"
	pkgerrors "switchboard/pkg/errors"
	"switchboard/pkg/logging"
	"switchboard/pkg/metrics"
	"switchboard/pkg/models"
)

type Service interface {
	ProcessWebhook(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error)
}

// ActionDispatcher abstracts the dispatch layer for rule execution.
type ActionDispatcher interface {
	Execute(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) dispatch.Result
}

type service struct {
	integrations integration.Repository
	ruleStore    rules.Repository
	history      execution.Repository
	guards       *guard.Service
	dispatcher   ActionDispatcher
	events       EventStore
	publisher    broker.Publisher
	evaluator    *pkgcel.Evaluator
	eventsTopic  string
	log          logger.Logger
}

func NewService(
	integrations integration.Repository,
	ruleStore rules.Repository,
	history execution.Repository,
	guards *guard.Service,
	dispatcher ActionDispatcher,
	events EventStore,
	publisher broker.Publisher,
	evaluator *pkgcel.Evaluator,
	eventsTopic string,
	log logger.Logger,
) Service {
	return &service{
		integrations: integrations,
		ruleStore:    ruleStore,
		history:      history,
		guards:       guards,
		dispatcher:   dispatcher,
		events:       events,
		publisher:    publisher,
		evaluator:    evaluator,
		eventsTopic:  eventsTopic,
		log:          log,
	}
}

// ProcessWebhook runs one inbound webhook through validation,
// normalization, persistence, rule matching and dispatch. Each call is a
// complete, independent run; nothing is held across requests.
func (s *service) ProcessWebhook(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	start := time.Now()

	integ, err := s.resolveIntegration(ctx, req)
	if err != nil {
		metrics.ObserveOrchestrationDuration(req.Provider, "rejected", time.Since(start))
		return nil, err
	}

	event, ok := normalizer.Normalize(req.Provider, req.Event, req.Payload, req.InstanceID, integ.ID)
	if !ok {
		// Unrecognized sub-events are acknowledged, not treated as errors.
		metrics.EventsUnmappedTotal.WithLabelValues(req.Provider).Inc()
		s.log.InfowCtx(ctx, "Unmapped provider event acknowledged",
			"provider", req.Provider,
			"raw_event", req.Event,
		)
		metrics.ObserveOrchestrationDuration(req.Provider, "unmapped", time.Since(start))
		return &WebhookResponse{
			Success:   true,
			Results:   []RuleResult{},
			Simulated: req.Simulate,
			Message:   fmt.Sprintf("event '%s' is not actionable for provider '%s'", req.Event, req.Provider),
		}, nil
	}

	metrics.EventsNormalizedTotal.WithLabelValues(req.Provider, event.Event).Inc()
	ctx = logging.WithEventID(ctx, event.ID)
	ctx = logging.WithTenantID(ctx, event.TenantInstanceID)

	// A failed event write degrades the response but never blocks rule
	// processing; at-least-once visibility wins over atomicity.
	eventPersisted := true
	if err := s.events.Insert(ctx, event); err != nil {
		eventPersisted = false
		s.log.ErrorwCtx(ctx, "Failed to persist event record", "error", err)
	}

	if err := s.publisher.PublishEvent(ctx, s.eventsTopic, event); err != nil {
		// Downstream fan-out is best effort; the event is already persisted.
		s.log.WarnwCtx(ctx, "Failed to publish normalized event",
			"topic", s.eventsTopic,
			"error", err,
		)
	}

	matched, err := s.ruleStore.GetActiveRules(ctx, event.TenantInstanceID, event.Event)
	if err != nil {
		metrics.ObserveOrchestrationDuration(req.Provider, "error", time.Since(start))
		return nil, pkgerrors.ErrInternal.WithCause(err)
	}

	results := make([]RuleResult, 0, len(matched))
	for i := range matched {
		results = append(results, s.evaluateRule(ctx, event, &matched[i], req.Simulate))
	}

	status := "processed"
	message := ""
	if !eventPersisted {
		status = "degraded"
		message = "event record could not be persisted"
	}
	metrics.ObserveOrchestrationDuration(req.Provider, status, time.Since(start))

	return &WebhookResponse{
		Success:         true,
		EventID:         event.ID,
		NormalizedEvent: event,
		RulesMatched:    len(matched),
		Results:         results,
		Simulated:       req.Simulate,
		Message:         message,
	}, nil
}

// resolveIntegration looks the integration up by explicit id first, then
// by the tenant+provider pair. Anything other than a connected
// integration rejects the request before any event is recorded.
func (s *service) resolveIntegration(ctx context.Context, req *WebhookRequest) (*integration.Integration, error) {
	if !normalizer.SupportedProvider(req.Provider) {
		return nil, pkgerrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("unsupported provider '%s'", req.Provider))
	}

	var (
		integ *integration.Integration
		err   error
	)
	if req.IntegrationID != "" {
		integ, err = s.integrations.FindByID(ctx, req.IntegrationID)
	} else {
		integ, err = s.integrations.FindByTenantAndProvider(ctx, req.InstanceID, req.Provider)
	}
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.ErrValidation.WithDetail("message",
				fmt.Sprintf("no integration found for provider '%s'", req.Provider))
		}
		return nil, pkgerrors.ErrInternal.WithCause(err)
	}

	if !integ.IsConnected() {
		return nil, pkgerrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("integration '%s' is not connected (status: %s)", integ.ID, integ.Status))
	}

	return integ, nil
}

// evaluateRule runs one rule from filters through dispatch. A panic or
// error inside one rule never reaches its siblings; the rule just reports
// a failed result.
func (s *service) evaluateRule(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) (result RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			err := pkgerrors.RecoverPanic(r)
			s.log.ErrorwCtx(ctx, "Panic during rule evaluation",
				"rule_id", rule.ID,
				"error", err,
			)
			result = RuleResult{RuleID: rule.ID, Success: false, Message: "internal error during rule evaluation"}
		}
	}()

	result = RuleResult{RuleID: rule.ID}

	if !rules.PassesFilters(event, rule.Filters) {
		metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "filtered").Inc()
		result.Message = "event did not match rule filters"
		return result
	}

	if rule.Expression != "" {
		matched, err := s.evaluator.EvaluateFilter(ctx, rule.Expression, event)
		if err != nil {
			// Expression errors fail closed.
			metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "expression_error").Inc()
			s.log.WarnwCtx(ctx, "Rule expression evaluation failed",
				"rule_id", rule.ID,
				"error", err,
			)
			result.Message = "rule expression could not be evaluated"
			return result
		}
		if !matched {
			metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "filtered").Inc()
			result.Message = "event did not match rule expression"
			return result
		}
	}

	if ok, reason, err := s.guards.CheckRate(ctx, rule); err != nil {
		result.Message = "rate limit check failed"
		s.log.ErrorwCtx(ctx, "Rate limit check failed", "rule_id", rule.ID, "error", err)
		return result
	} else if !ok {
		metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "rate_limited").Inc()
		result.Message = reason
		return result
	}

	customerKey := event.CustomerKey()
	if ok, reason, err := s.guards.CheckCooldown(ctx, rule, customerKey); err != nil {
		result.Message = "cooldown check failed"
		s.log.ErrorwCtx(ctx, "Cooldown check failed", "rule_id", rule.ID, "error", err)
		return result
	} else if !ok {
		metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "cooldown").Inc()
		result.Message = reason
		return result
	}

	dispatchStart := time.Now()
	outcome := s.dispatcher.Execute(ctx, event, rule, simulate)
	metrics.RuleEvaluationsTotal.WithLabelValues(event.Event, "dispatched").Inc()

	result.Success = outcome.Success
	result.Message = outcome.Message
	if err := s.recordExecution(ctx, event, rule, outcome, simulate, customerKey, time.Since(dispatchStart)); err != nil {
		result.Message += "; execution log entry could not be persisted"
	}
	return result
}

// recordExecution appends the audit log entry and, for a real successful
// run, bumps the rule's execution counters. Bookkeeping failures never
// override the dispatch outcome; a failed log write is returned so the
// caller can surface it in the rule's result.
func (s *service) recordExecution(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, outcome dispatch.Result, simulate bool, customerKey string, elapsed time.Duration) error {
	actionResult := execution.ResultFailed
	if simulate {
		actionResult = execution.ResultSimulated
	} else if outcome.Success {
		actionResult = execution.ResultSuccess
	}

	entry := &execution.LogEntry{
		RuleID:           rule.ID,
		TenantInstanceID: event.TenantInstanceID,
		EventID:          event.ID,
		EventType:        event.Event,
		EventSnapshot:    event.AsMap(),
		CustomerKey:      customerKey,
		ActionType:       rule.ActionType,
		ActionResult:     actionResult,
		CreditsConsumed:  outcome.CreditsConsumed,
		DurationMs:       elapsed.Milliseconds(),
	}
	if !outcome.Success {
		entry.ErrorMessage = outcome.Message
	}

	appendErr := s.history.Append(ctx, entry)
	if appendErr != nil {
		s.log.ErrorwCtx(ctx, "Failed to append execution log entry",
			"rule_id", rule.ID,
			"error", appendErr,
		)
	}

	if !simulate && outcome.Success {
		if err := s.ruleStore.RecordExecution(ctx, rule.ID, time.Now()); err != nil {
			s.log.ErrorwCtx(ctx, "Failed to record rule execution",
				"rule_id", rule.ID,
				"error", err,
			)
		}
	}

	return appendErr
}
