package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchboard/internal/campaign"
	"switchboard/internal/logger"
	"switchboard/internal/rules"
	"switchboard/internal/tenant"
	"switchboard/pkg/models"
)

type fakeTenants struct {
	settings *tenant.Settings
	err      error
}

func (f *fakeTenants) GetSettings(ctx context.Context, tenantInstanceID string) (*tenant.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

type fakeCampaigns struct {
	campaign *campaign.Campaign
	existing map[string]bool
	added    []*campaign.Contact
	findErr  error
}

func (f *fakeCampaigns) FindByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.campaign, nil
}

func (f *fakeCampaigns) ContactExists(ctx context.Context, campaignID, phone string) (bool, error) {
	return f.existing[phone], nil
}

func (f *fakeCampaigns) AddContact(ctx context.Context, contact *campaign.Contact) error {
	f.added = append(f.added, contact)
	return nil
}

func paidEvent() *models.NormalizedEvent {
	return &models.NormalizedEvent{
		ID:               "evt-1",
		Provider:         "shopify",
		Event:            models.EventOrderPaid,
		TenantInstanceID: "tenant-1",
		Customer: &models.Customer{
			Phone: "11999998888",
			Name:  "Maria Silva",
			Email: "maria@example.com",
		},
		Order: &models.Order{ID: "450789469", Total: 150},
	}
}

func newTestDispatcher(tenants tenant.Repository, campaigns campaign.Repository) *Dispatcher {
	return NewDispatcher(tenants, campaigns, "55", logger.NopLogger())
}

func TestDispatcherSendMessage(t *testing.T) {
	t.Run("simulate reports success without any network call", func(t *testing.T) {
		var calls int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{settings: &tenant.Settings{
			TransportEndpoint: server.URL,
			TransportToken:    "token",
		}}, &fakeCampaigns{})

		rule := &rules.AutomationRule{
			ID:           "rule-1",
			ActionType:   rules.ActionSendMessage,
			ActionConfig: map[string]interface{}{"message": "hi {{customer_name}}"},
		}

		result := d.Execute(context.Background(), paidEvent(), rule, true)

		assert.True(t, result.Success)
		assert.Equal(t, 1, result.CreditsConsumed)
		assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
	})

	t.Run("missing phone fails with zero credits", func(t *testing.T) {
		d := newTestDispatcher(&fakeTenants{}, &fakeCampaigns{})

		event := paidEvent()
		event.Customer = &models.Customer{Name: "Maria Silva"}

		rule := &rules.AutomationRule{ActionType: rules.ActionSendMessage}
		result := d.Execute(context.Background(), event, rule, false)

		assert.False(t, result.Success)
		assert.Zero(t, result.CreditsConsumed)
		assert.Contains(t, result.Message, "phone")
	})

	t.Run("real send posts normalized phone and consumes one credit", func(t *testing.T) {
		var got transportRequest
		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(transportResponse{Success: true})
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{settings: &tenant.Settings{
			TransportEndpoint: server.URL,
			TransportToken:    "secret-token",
		}}, &fakeCampaigns{})

		rule := &rules.AutomationRule{
			ActionType:   rules.ActionSendMessage,
			ActionConfig: map[string]interface{}{"message": "order {{order_id}} paid: {{order_total}}"},
		}

		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.True(t, result.Success)
		assert.Equal(t, 1, result.CreditsConsumed)
		assert.Equal(t, "5511999998888", got.To)
		assert.Equal(t, "order 450789469 paid: 150.00", got.Message)
		assert.Equal(t, "Bearer secret-token", auth)
	})

	t.Run("tenant country code overrides the global default", func(t *testing.T) {
		var got transportRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(transportResponse{Success: true})
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{settings: &tenant.Settings{
			TransportEndpoint:  server.URL,
			DefaultCountryCode: "44",
		}}, &fakeCampaigns{})

		rule := &rules.AutomationRule{ActionType: rules.ActionSendMessage}
		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.True(t, result.Success)
		assert.Equal(t, "4411999998888", got.To)
	})

	t.Run("transport failure flag fails the action", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(transportResponse{Success: false, Error: "number blocked"})
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{settings: &tenant.Settings{
			TransportEndpoint: server.URL,
		}}, &fakeCampaigns{})

		rule := &rules.AutomationRule{ActionType: rules.ActionSendMessage}
		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.False(t, result.Success)
		assert.Zero(t, result.CreditsConsumed)
		assert.Contains(t, result.Message, "number blocked")
	})
}

func TestDispatcherWebhookExternal(t *testing.T) {
	t.Run("delivers full event with merged headers", func(t *testing.T) {
		var received models.NormalizedEvent
		var customHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customHeader = r.Header.Get("X-Signature")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{}, &fakeCampaigns{})
		rule := &rules.AutomationRule{
			ActionType: rules.ActionWebhookExternal,
			ActionConfig: map[string]interface{}{
				"webhookUrl": server.URL,
				"headers":    map[string]interface{}{"X-Signature": "abc123"},
			},
		}

		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.True(t, result.Success)
		assert.Equal(t, "evt-1", received.ID)
		assert.Equal(t, "abc123", customHeader)
	})

	t.Run("non-2xx status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		d := newTestDispatcher(&fakeTenants{}, &fakeCampaigns{})
		rule := &rules.AutomationRule{
			ActionType:   rules.ActionWebhookExternal,
			ActionConfig: map[string]interface{}{"webhookUrl": server.URL},
		}

		result := d.Execute(context.Background(), paidEvent(), rule, false)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "502")
	})

	t.Run("missing webhookUrl fails without a call", func(t *testing.T) {
		d := newTestDispatcher(&fakeTenants{}, &fakeCampaigns{})
		rule := &rules.AutomationRule{ActionType: rules.ActionWebhookExternal}

		result := d.Execute(context.Background(), paidEvent(), rule, false)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "webhookUrl")
	})
}

func TestDispatcherTriggerCampaign(t *testing.T) {
	rule := &rules.AutomationRule{
		ActionType:   rules.ActionTriggerCampaign,
		ActionConfig: map[string]interface{}{"campaignId": "camp-1"},
	}

	t.Run("adds normalized contact to campaign", func(t *testing.T) {
		campaigns := &fakeCampaigns{campaign: &campaign.Campaign{ID: "camp-1"}}
		d := newTestDispatcher(&fakeTenants{}, campaigns)

		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.True(t, result.Success)
		require.Len(t, campaigns.added, 1)
		assert.Equal(t, "5511999998888", campaigns.added[0].Phone)
		assert.Equal(t, "Maria Silva", campaigns.added[0].Name)
	})

	t.Run("duplicate phone is not added twice", func(t *testing.T) {
		campaigns := &fakeCampaigns{
			campaign: &campaign.Campaign{ID: "camp-1"},
			existing: map[string]bool{"5511999998888": true},
		}
		d := newTestDispatcher(&fakeTenants{}, campaigns)

		result := d.Execute(context.Background(), paidEvent(), rule, false)

		assert.True(t, result.Success)
		assert.Empty(t, campaigns.added)
		assert.Contains(t, result.Message, "already")
	})

	t.Run("simulate does not touch the repository", func(t *testing.T) {
		campaigns := &fakeCampaigns{campaign: &campaign.Campaign{ID: "camp-1"}}
		d := newTestDispatcher(&fakeTenants{}, campaigns)

		result := d.Execute(context.Background(), paidEvent(), rule, true)

		assert.True(t, result.Success)
		assert.Empty(t, campaigns.added)
	})
}

func TestDispatcherPlaceholderAndUnknownActions(t *testing.T) {
	d := newTestDispatcher(&fakeTenants{}, &fakeCampaigns{})

	t.Run("placeholder actions succeed with zero credits", func(t *testing.T) {
		for _, action := range []string{rules.ActionStartFlow, rules.ActionCallLuna} {
			result := d.Execute(context.Background(), paidEvent(), &rules.AutomationRule{ActionType: action}, false)
			assert.True(t, result.Success, action)
			assert.Zero(t, result.CreditsConsumed, action)
		}
	})

	t.Run("unknown action fails explicitly", func(t *testing.T) {
		result := d.Execute(context.Background(), paidEvent(), &rules.AutomationRule{ActionType: "teleport"}, false)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "unknown action")
		assert.Zero(t, result.CreditsConsumed)
	})
}
