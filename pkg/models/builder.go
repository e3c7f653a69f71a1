package models

import (
	"time"

	"github.com/google/uuid"
)

type NormalizedEventBuilder struct {
	event *NormalizedEvent
}

func NewNormalizedEventBuilder() *NormalizedEventBuilder {
	return &NormalizedEventBuilder{
		event: &NormalizedEvent{
			ID:       uuid.New().String(),
			Metadata: make(map[string]interface{}),
		},
	}
}

func (b *NormalizedEventBuilder) WithProvider(provider string) *NormalizedEventBuilder {
	b.event.Provider = provider
	return b
}

func (b *NormalizedEventBuilder) WithEvent(kind string) *NormalizedEventBuilder {
	b.event.Event = kind
	return b
}

func (b *NormalizedEventBuilder) WithTenantInstanceID(id string) *NormalizedEventBuilder {
	b.event.TenantInstanceID = id
	return b
}

func (b *NormalizedEventBuilder) WithIntegrationID(id string) *NormalizedEventBuilder {
	b.event.IntegrationID = id
	return b
}

func (b *NormalizedEventBuilder) WithExternalID(id string) *NormalizedEventBuilder {
	b.event.ExternalID = id
	return b
}

func (b *NormalizedEventBuilder) WithCustomer(customer *Customer) *NormalizedEventBuilder {
	b.event.Customer = customer
	return b
}

func (b *NormalizedEventBuilder) WithOrder(order *Order) *NormalizedEventBuilder {
	b.event.Order = order
	return b
}

func (b *NormalizedEventBuilder) WithMetadata(metadata map[string]interface{}) *NormalizedEventBuilder {
	if metadata != nil {
		b.event.Metadata = metadata
	}
	return b
}

func (b *NormalizedEventBuilder) Build() *NormalizedEvent {
	if b.event.ReceivedAt.IsZero() {
		b.event.ReceivedAt = time.Now()
	}
	return b.event
}
