package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchboard/internal/dispatch"
	"switchboard/internal/execution"
	"switchboard/internal/guard"
	"switchboard/internal/integration"
	"switchboard/internal/logger"
	"switchboard/internal/rules"
	pkgcel "switchboard/pkg/cel"
	pkgerrors "switchboard/pkg/errors"
	"switchboard/pkg/models"
)

type fakeIntegrations struct {
	integration *integration.Integration
	err         error
}

func (f *fakeIntegrations) FindByID(ctx context.Context, id string) (*integration.Integration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.integration, nil
}

func (f *fakeIntegrations) FindByTenantAndProvider(ctx context.Context, tenantInstanceID, provider string) (*integration.Integration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.integration, nil
}

type fakeRules struct {
	rules    []rules.AutomationRule
	recorded []string
}

func (f *fakeRules) GetActiveRules(ctx context.Context, tenantInstanceID, eventType string) ([]rules.AutomationRule, error) {
	return f.rules, nil
}

func (f *fakeRules) RecordExecution(ctx context.Context, ruleID string, executedAt time.Time) error {
	f.recorded = append(f.recorded, ruleID)
	return nil
}

type fakeHistory struct {
	entries   []*execution.LogEntry
	count     int
	exists    bool
	appendErr error
}

func (f *fakeHistory) Append(ctx context.Context, entry *execution.LogEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) CountForRuleSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	return f.count, nil
}

func (f *fakeHistory) ExistsForCustomerSince(ctx context.Context, ruleID, customerKey string, since time.Time) (bool, error) {
	return f.exists, nil
}

type fakeEventStore struct {
	inserted  []*models.NormalizedEvent
	insertErr error
}

func (f *fakeEventStore) Insert(ctx context.Context, event *models.NormalizedEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, event)
	return nil
}

type fakePublisher struct {
	published []*models.NormalizedEvent
	err       error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, topic string, event *models.NormalizedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeDispatcher struct {
	result dispatch.Result
	calls  []*rules.AutomationRule
}

func (f *fakeDispatcher) Execute(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) dispatch.Result {
	f.calls = append(f.calls, rule)
	return f.result
}

type serviceFixture struct {
	service    Service
	rules      *fakeRules
	history    *fakeHistory
	events     *fakeEventStore
	publisher  *fakePublisher
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T, ruleSet []rules.AutomationRule, history *fakeHistory) *serviceFixture {
	t.Helper()

	evaluator, err := pkgcel.NewEvaluator()
	require.NoError(t, err)

	f := &serviceFixture{
		rules:      &fakeRules{rules: ruleSet},
		history:    history,
		events:     &fakeEventStore{},
		publisher:  &fakePublisher{},
		dispatcher: &fakeDispatcher{result: dispatch.Result{Success: true, Message: "message sent", CreditsConsumed: 1}},
	}

	f.service = NewService(
		&fakeIntegrations{integration: &integration.Integration{
			ID:     "int-1",
			Status: "connected",
		}},
		f.rules,
		f.history,
		guard.NewService(history),
		f.dispatcher,
		f.events,
		f.publisher,
		evaluator,
		"normalized_events",
		logger.NopLogger(),
	)

	return f
}

func paidOrderRequest() *WebhookRequest {
	return &WebhookRequest{
		Provider:   "shopify",
		InstanceID: "tenant-1",
		Event:      "orders/paid",
		Payload: map[string]interface{}{
			"id":          float64(450789469),
			"total_price": "150.00",
			"customer": map[string]interface{}{
				"id":         float64(207119551),
				"phone":      "11999998888",
				"first_name": "Maria",
				"last_name":  "Silva",
			},
		},
	}
}

func highValueRule(threshold float64) rules.AutomationRule {
	return rules.AutomationRule{
		ID:               "rule-1",
		TenantInstanceID: "tenant-1",
		EventType:        models.EventOrderPaid,
		IsActive:         true,
		Filters: []rules.FilterClause{
			{Field: "order.total", Operator: rules.OpGreaterThan, Value: threshold},
		},
		ActionType:           rules.ActionSendMessage,
		MaxExecutionsPerHour: 100,
	}
}

func TestProcessWebhookEndToEnd(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.RulesMatched)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, "rule-1", resp.Results[0].RuleID)

	require.NotNil(t, resp.NormalizedEvent)
	assert.Equal(t, models.EventOrderPaid, resp.NormalizedEvent.Event)
	assert.Equal(t, 150.0, resp.NormalizedEvent.Order.Total)

	require.Len(t, f.events.inserted, 1)
	require.Len(t, f.publisher.published, 1)
	require.Len(t, f.dispatcher.calls, 1)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, execution.ResultSuccess, entry.ActionResult)
	assert.Equal(t, 1, entry.CreditsConsumed)
	assert.Equal(t, "207119551", entry.CustomerKey)

	assert.Equal(t, []string{"rule-1"}, f.rules.recorded)
}

func TestProcessWebhookFilteredOut(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(1000)}, &fakeHistory{})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].Message, "filter")

	assert.Empty(t, f.dispatcher.calls, "filtered rules must not dispatch")
	assert.Empty(t, f.history.entries, "filtered rules leave no execution log")
	assert.Empty(t, f.rules.recorded)
}

func TestProcessWebhookUnmappedEventAcknowledged(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})

	req := paidOrderRequest()
	req.Event = "orders/delete"

	resp, err := f.service.ProcessWebhook(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.Nil(t, resp.NormalizedEvent)
	assert.Empty(t, f.events.inserted, "unmapped events are not persisted")
	assert.Empty(t, f.dispatcher.calls)
}

func TestProcessWebhookRejectsBrokenIntegration(t *testing.T) {
	evaluator, err := pkgcel.NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name         string
		integrations integration.Repository
	}{
		{
			name:         "integration not found",
			integrations: &fakeIntegrations{err: pkgerrors.ErrNotFound},
		},
		{
			name: "integration disconnected",
			integrations: &fakeIntegrations{integration: &integration.Integration{
				ID:     "int-1",
				Status: "disconnected",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEventStore{}
			svc := NewService(tt.integrations, &fakeRules{}, &fakeHistory{},
				guard.NewService(&fakeHistory{}), &fakeDispatcher{}, events,
				&fakePublisher{}, evaluator, "normalized_events", logger.NopLogger())

			_, err := svc.ProcessWebhook(context.Background(), paidOrderRequest())
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Empty(t, events.inserted, "rejected requests record no event")
		})
	}
}

func TestProcessWebhookUnsupportedProvider(t *testing.T) {
	f := newFixture(t, nil, &fakeHistory{})

	req := paidOrderRequest()
	req.Provider = "magento"

	_, err := f.service.ProcessWebhook(context.Background(), req)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProcessWebhookRateLimited(t *testing.T) {
	rule := highValueRule(100)
	rule.MaxExecutionsPerHour = 3

	f := newFixture(t, []rules.AutomationRule{rule}, &fakeHistory{count: 3})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].Message, "rate limit")
	assert.Empty(t, f.dispatcher.calls)
}

func TestProcessWebhookCooldown(t *testing.T) {
	rule := highValueRule(100)
	rule.CooldownMinutes = 30

	f := newFixture(t, []rules.AutomationRule{rule}, &fakeHistory{exists: true})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].Message, "cooldown")
	assert.Empty(t, f.dispatcher.calls)
}

func TestProcessWebhookExpressionFailsClosed(t *testing.T) {
	rule := highValueRule(100)
	rule.Expression = `order.nonexistent_field > 10.0`

	f := newFixture(t, []rules.AutomationRule{rule}, &fakeHistory{})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.Empty(t, f.dispatcher.calls)
}

func TestProcessWebhookExpressionMatch(t *testing.T) {
	rule := highValueRule(100)
	rule.Expression = `order.total > 120.0 && provider == "shopify"`

	f := newFixture(t, []rules.AutomationRule{rule}, &fakeHistory{})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
	require.Len(t, f.dispatcher.calls, 1)
}

func TestProcessWebhookSimulateSkipsCounters(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})
	f.dispatcher.result = dispatch.Result{Success: true, Message: "simulated", CreditsConsumed: 1}

	req := paidOrderRequest()
	req.Simulate = true

	resp, err := f.service.ProcessWebhook(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Simulated)
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, execution.ResultSimulated, f.history.entries[0].ActionResult)
	assert.Empty(t, f.rules.recorded, "simulated runs never bump rule counters")
}

func TestProcessWebhookPublishFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})
	f.publisher.err = assert.AnError

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, f.dispatcher.calls, 1)
}

func TestProcessWebhookEventPersistFailureDegradesNotAborts(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})
	f.events.insertErr = assert.AnError

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "could not be persisted")
	require.Len(t, f.dispatcher.calls, 1, "rule processing continues without the event record")
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
	require.Len(t, f.history.entries, 1, "execution logs are written independently of the event record")
}

func TestProcessWebhookLogAppendFailureSurfacedPerRule(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{appendErr: assert.AnError})

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success, "a failed log write never overrides the dispatch outcome")
	assert.Contains(t, resp.Results[0].Message, "execution log entry could not be persisted")
	assert.Equal(t, []string{"rule-1"}, f.rules.recorded, "counters still bump on real success")
}

func TestProcessWebhookReplayProducesIndependentRecords(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})

	first, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)
	second, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
	assert.Len(t, f.events.inserted, 2)
	assert.Len(t, f.history.entries, 2)
}

func TestProcessWebhookFailedDispatchLogsFailure(t *testing.T) {
	f := newFixture(t, []rules.AutomationRule{highValueRule(100)}, &fakeHistory{})
	f.dispatcher.result = dispatch.Result{Success: false, Message: "customer phone is missing, cannot send message"}

	resp, err := f.service.ProcessWebhook(context.Background(), paidOrderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, execution.ResultFailed, entry.ActionResult)
	assert.Zero(t, entry.CreditsConsumed)
	assert.NotEmpty(t, entry.ErrorMessage)
	assert.Empty(t, f.rules.recorded)
}
