package dispatch

import (
	"strconv"
	"strings"

	"switchboard/pkg/models"
)

// RenderTemplate substitutes the supported placeholder tokens with values
// from the event. Tokens outside the supported set are left verbatim so a
// template can never expand into anything it does not literally contain.
func RenderTemplate(template string, event *models.NormalizedEvent) string {
	var customerName, customerEmail string
	if event.Customer != nil {
		customerName = event.Customer.Name
		customerEmail = event.Customer.Email
	}

	var orderID, orderTotal string
	if event.Order != nil {
		orderID = event.Order.ID
		orderTotal = strconv.FormatFloat(event.Order.Total, 'f', 2, 64)
	}

	replacer := strings.NewReplacer(
		"{{customer_name}}", customerName,
		"{{customer_email}}", customerEmail,
		"{{order_id}}", orderID,
		"{{order_total}}", orderTotal,
	)

	return replacer.Replace(template)
}
