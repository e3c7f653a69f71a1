package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"switchboard/internal/constants"
	"switchboard/internal/logger"
	"switchboard/internal/rules"
	"switchboard/internal/tenant"
	"switchboard/pkg/circuitbreaker"
	"switchboard/pkg/models"
)

// transportRequest is the body posted to the tenant's messaging transport.
type transportRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// transportResponse is the transport's own verdict. Success is taken from
// this flag, not from the HTTP status class alone.
type transportResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MessageSender delivers send_message actions through the tenant's
// configured messaging transport.
type MessageSender struct {
	tenants     tenant.Repository
	client      *http.Client
	breaker     *circuitbreaker.Wrapper
	countryCode string
	log         logger.Logger
}

func NewMessageSender(tenants tenant.Repository, client *http.Client, breaker *circuitbreaker.Wrapper, countryCode string, log logger.Logger) *MessageSender {
	return &MessageSender{
		tenants:     tenants,
		client:      client,
		breaker:     breaker,
		countryCode: countryCode,
		log:         log,
	}
}

func (s *MessageSender) Send(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) Result {
	if event.Customer == nil || event.Customer.Phone == "" {
		return Result{Success: false, Message: "customer phone is missing, cannot send message"}
	}

	settings, err := s.tenants.GetSettings(ctx, event.TenantInstanceID)
	if err != nil && !simulate {
		return Result{Success: false, Message: fmt.Sprintf("transport settings unavailable: %v", err)}
	}

	to := NormalizePhone(event.Customer.Phone, s.resolveCountryCode(settings))
	message := RenderTemplate(rule.ConfigString("message"), event)

	if simulate {
		return Result{
			Success:         true,
			Message:         fmt.Sprintf("simulated: would send message to %s", to),
			CreditsConsumed: 1,
		}
	}

	if settings == nil || settings.TransportEndpoint == "" {
		return Result{Success: false, Message: "tenant has no transport endpoint configured"}
	}

	resp, err := s.post(ctx, settings, to, message)
	if err != nil {
		s.log.WarnwCtx(ctx, "message transport call failed",
			"rule_id", rule.ID,
			"error", err,
		)
		return Result{Success: false, Message: fmt.Sprintf("transport call failed: %v", err)}
	}

	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "transport reported failure"
		}
		return Result{Success: false, Message: reason}
	}

	return Result{
		Success:         true,
		Message:         fmt.Sprintf("message sent to %s", to),
		CreditsConsumed: 1,
	}
}

// resolveCountryCode prefers the tenant's configured country code over
// the global default.
func (s *MessageSender) resolveCountryCode(settings *tenant.Settings) string {
	if settings != nil && settings.DefaultCountryCode != "" {
		return settings.DefaultCountryCode
	}
	return s.countryCode
}

func (s *MessageSender) post(ctx context.Context, settings *tenant.Settings, to, message string) (*transportResponse, error) {
	body, err := json.Marshal(transportRequest{To: to, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transport request: %w", err)
	}

	result, err := s.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			settings.TransportEndpoint+"/send", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+settings.TransportToken)

		httpResp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read transport response: %w", err)
		}

		if httpResp.StatusCode < constants.HTTPStatusOKMin || httpResp.StatusCode >= constants.HTTPStatusOKMax {
			return nil, fmt.Errorf("transport returned status %d", httpResp.StatusCode)
		}

		var parsed transportResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode transport response: %w", err)
		}

		return &parsed, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*transportResponse), nil
}
