package normalizer

import (
	"switchboard/pkg/models"
)

var shopifyEvents = map[string]string{
	"orders/create":    models.EventOrderCreated,
	"orders/paid":      models.EventOrderPaid,
	"orders/fulfilled": models.EventOrderShipped,
	"orders/cancelled": models.EventOrderCancelled,
	"refunds/create":   models.EventOrderRefunded,
	"customers/create": models.EventCustomerCreated,
	"checkouts/create": models.EventCheckoutStarted,
}

func extractShopify(b *models.NormalizedEventBuilder, rawEvent string, payload map[string]interface{}) {
	switch rawEvent {
	case "customers/create":
		b.WithExternalID(stringValue(payload, "id"))
		b.WithCustomer(shopifyCustomerFrom(payload, payload))
	case "refunds/create":
		orderID := stringValue(payload, "order_id")
		b.WithExternalID(orderID)
		b.WithOrder(&models.Order{ID: orderID})
	default:
		// Order and checkout payloads share the same shape.
		b.WithExternalID(stringValue(payload, "id"))
		b.WithCustomer(shopifyCustomerFrom(mapValue(payload, "customer"), payload))
		b.WithOrder(shopifyOrderFrom(payload))
	}
}

func shopifyCustomerFrom(customer, payload map[string]interface{}) *models.Customer {
	phone := stringValue(customer, "phone")
	if phone == "" {
		phone = stringValue(payload, "phone")
	}

	email := stringValue(customer, "email")
	if email == "" {
		email = stringValue(payload, "contact_email")
	}
	if email == "" {
		email = stringValue(payload, "email")
	}

	return &models.Customer{
		Phone:      phone,
		Name:       joinName(stringValue(customer, "first_name"), stringValue(customer, "last_name")),
		Email:      email,
		ExternalID: stringValue(customer, "id"),
	}
}

func shopifyOrderFrom(payload map[string]interface{}) *models.Order {
	order := &models.Order{
		ID:       stringValue(payload, "id"),
		Total:    floatValue(payload, "total_price"),
		Currency: stringValue(payload, "currency"),
		Status:   stringValue(payload, "financial_status"),
	}

	for _, raw := range sliceValue(payload, "line_items") {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			Name:     stringValue(item, "title"),
			Quantity: floatValue(item, "quantity"),
			Price:    floatValue(item, "price"),
			SKU:      stringValue(item, "sku"),
		})
	}

	return order
}
