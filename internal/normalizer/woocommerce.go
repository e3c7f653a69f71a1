package normalizer

import (
	"switchboard/pkg/models"
)

var wooCommerceEvents = map[string]string{
	"order.created":    models.EventOrderCreated,
	"customer.created": models.EventCustomerCreated,
}

// order.updated only becomes canonical when the new status maps to a kind;
// intermediate statuses stay unmapped on purpose.
var wooCommerceStatusKinds = map[string]string{
	"processing": models.EventOrderPaid,
	"completed":  models.EventOrderShipped,
	"cancelled":  models.EventOrderCancelled,
	"refunded":   models.EventOrderRefunded,
}

func wooCommerceKind(rawEvent string, payload map[string]interface{}) (string, bool) {
	if rawEvent == "order.updated" {
		kind, ok := wooCommerceStatusKinds[stringValue(payload, "status")]
		return kind, ok
	}
	kind, ok := wooCommerceEvents[rawEvent]
	return kind, ok
}

func extractWooCommerce(b *models.NormalizedEventBuilder, rawEvent string, payload map[string]interface{}) {
	b.WithExternalID(stringValue(payload, "id"))

	billing := mapValue(payload, "billing")
	customer := &models.Customer{
		Phone:      stringValue(billing, "phone"),
		Name:       joinName(stringValue(billing, "first_name"), stringValue(billing, "last_name")),
		Email:      stringValue(billing, "email"),
		ExternalID: stringValue(payload, "customer_id"),
	}

	if rawEvent == "customer.created" {
		customer.Name = joinName(stringValue(payload, "first_name"), stringValue(payload, "last_name"))
		if customer.Email == "" {
			customer.Email = stringValue(payload, "email")
		}
		customer.ExternalID = stringValue(payload, "id")
		b.WithCustomer(customer)
		return
	}

	b.WithCustomer(customer)

	order := &models.Order{
		ID:       stringValue(payload, "id"),
		Total:    floatValue(payload, "total"),
		Currency: stringValue(payload, "currency"),
		Status:   stringValue(payload, "status"),
	}
	for _, raw := range sliceValue(payload, "line_items") {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			Name:     stringValue(item, "name"),
			Quantity: floatValue(item, "quantity"),
			Price:    floatValue(item, "price"),
			SKU:      stringValue(item, "sku"),
		})
	}
	b.WithOrder(order)
}
