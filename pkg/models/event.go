package models

import "time"

// Canonical event kinds. Every normalized event carries exactly one of
// these; provider event names that do not map to a kind are dropped at
// normalization time.
const (
	EventOrderCreated    = "order_created"
	EventOrderPaid       = "order_paid"
	EventOrderShipped    = "order_shipped"
	EventOrderCancelled  = "order_cancelled"
	EventOrderRefunded   = "order_refunded"
	EventCustomerCreated = "customer_created"
	EventCheckoutStarted = "checkout_started"
	EventLeadCreated     = "lead_created"
	EventLeadConverted   = "lead_converted"
	EventOpportunityWon  = "opportunity_won"
	EventOpportunityLost = "opportunity_lost"
)

var canonicalEvents = map[string]struct{}{
	EventOrderCreated:    {},
	EventOrderPaid:       {},
	EventOrderShipped:    {},
	EventOrderCancelled:  {},
	EventOrderRefunded:   {},
	EventCustomerCreated: {},
	EventCheckoutStarted: {},
	EventLeadCreated:     {},
	EventLeadConverted:   {},
	EventOpportunityWon:  {},
	EventOpportunityLost: {},
}

func IsCanonicalEvent(kind string) bool {
	_, ok := canonicalEvents[kind]
	return ok
}

// NormalizedEvent is the provider-agnostic representation of a webhook
// occurrence. Customer and Order are optional because providers disclose
// different subsets; Metadata keeps the raw payload verbatim for filters
// that reference fields not promoted to first-class attributes.
type NormalizedEvent struct {
	ID               string                 `json:"id" bson:"_id"`
	Provider         string                 `json:"provider" bson:"provider"`
	Event            string                 `json:"event" bson:"event"`
	TenantInstanceID string                 `json:"tenant_instance_id" bson:"tenant_instance_id"`
	IntegrationID    string                 `json:"integration_id" bson:"integration_id"`
	ExternalID       string                 `json:"external_id" bson:"external_id"`
	Customer         *Customer              `json:"customer,omitempty" bson:"customer,omitempty"`
	Order            *Order                 `json:"order,omitempty" bson:"order,omitempty"`
	Metadata         map[string]interface{} `json:"metadata" bson:"metadata"`
	ReceivedAt       time.Time              `json:"received_at" bson:"received_at"`
}

type Customer struct {
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Name       string `json:"name,omitempty" bson:"name,omitempty"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty" bson:"external_id,omitempty"`
}

type Order struct {
	ID       string      `json:"id,omitempty" bson:"id,omitempty"`
	Total    float64     `json:"total" bson:"total"`
	Currency string      `json:"currency,omitempty" bson:"currency,omitempty"`
	Status   string      `json:"status,omitempty" bson:"status,omitempty"`
	Items    []OrderItem `json:"items,omitempty" bson:"items,omitempty"`
}

type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Quantity float64 `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
	SKU      string  `json:"sku,omitempty" bson:"sku,omitempty"`
}

// CustomerKey returns the identifier the cooldown guard tracks customers
// by: the provider's customer id when known, otherwise the phone number.
func (e *NormalizedEvent) CustomerKey() string {
	if e.Customer == nil {
		return ""
	}
	if e.Customer.ExternalID != "" {
		return e.Customer.ExternalID
	}
	return e.Customer.Phone
}

// AsMap flattens the event into nested maps for dot-path filter resolution
// and CEL evaluation. The raw payload stays reachable under "metadata".
func (e *NormalizedEvent) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":                 e.ID,
		"provider":           e.Provider,
		"event":              e.Event,
		"tenant_instance_id": e.TenantInstanceID,
		"integration_id":     e.IntegrationID,
		"external_id":        e.ExternalID,
		"received_at":        e.ReceivedAt,
	}

	if e.Customer != nil {
		m["customer"] = map[string]interface{}{
			"phone":       e.Customer.Phone,
			"name":        e.Customer.Name,
			"email":       e.Customer.Email,
			"external_id": e.Customer.ExternalID,
		}
	}

	if e.Order != nil {
		items := make([]interface{}, 0, len(e.Order.Items))
		for _, item := range e.Order.Items {
			items = append(items, map[string]interface{}{
				"name":     item.Name,
				"quantity": item.Quantity,
				"price":    item.Price,
				"sku":      item.SKU,
			})
		}
		m["order"] = map[string]interface{}{
			"id":       e.Order.ID,
			"total":    e.Order.Total,
			"currency": e.Order.Currency,
			"status":   e.Order.Status,
			"items":    items,
		}
	}

	if e.Metadata != nil {
		m["metadata"] = e.Metadata
	}

	return m
}
