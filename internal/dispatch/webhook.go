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
	"switchboard/pkg/circuitbreaker"
	"switchboard/pkg/models"
)

// WebhookSender forwards the full normalized event to a tenant-configured
// external URL for webhook_external actions.
type WebhookSender struct {
	client  *http.Client
	breaker *circuitbreaker.Wrapper
	log     logger.Logger
}

func NewWebhookSender(client *http.Client, breaker *circuitbreaker.Wrapper, log logger.Logger) *WebhookSender {
	return &WebhookSender{client: client, breaker: breaker, log: log}
}

func (s *WebhookSender) Send(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) Result {
	url := rule.ConfigString("webhookUrl")
	if url == "" {
		return Result{Success: false, Message: "action config is missing webhookUrl"}
	}

	if simulate {
		return Result{
			Success: true,
			Message: fmt.Sprintf("simulated: would call webhook %s", url),
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("failed to encode event: %v", err)}
	}

	status, err := s.post(ctx, url, body, customHeaders(rule))
	if err != nil {
		s.log.WarnwCtx(ctx, "external webhook call failed",
			"rule_id", rule.ID,
			"url", url,
			"error", err,
		)
		return Result{Success: false, Message: fmt.Sprintf("webhook call failed: %v", err)}
	}

	if status < constants.HTTPStatusOKMin || status >= constants.HTTPStatusOKMax {
		return Result{Success: false, Message: fmt.Sprintf("webhook returned status %d", status)}
	}

	return Result{Success: true, Message: fmt.Sprintf("webhook delivered with status %d", status)}
}

func (s *WebhookSender) post(ctx context.Context, url string, body []byte, headers map[string]string) (int, error) {
	result, err := s.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		// Drain so the transport can reuse the connection.
		_, _ = io.Copy(io.Discard, resp.Body)

		return resp.StatusCode, nil
	})
	if err != nil {
		return 0, err
	}

	return result.(int), nil
}

// customHeaders reads tenant-supplied headers from the action config,
// skipping non-string values.
func customHeaders(rule *rules.AutomationRule) map[string]string {
	raw, ok := rule.ActionConfig["headers"].(map[string]interface{})
	if !ok {
		return nil
	}

	headers := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	return headers
}
