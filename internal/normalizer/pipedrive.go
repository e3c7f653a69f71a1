package normalizer

import (
	"switchboard/pkg/models"
)

var pipedriveEvents = map[string]string{
	"added.person": models.EventLeadCreated,
	"added.deal":   models.EventLeadConverted,
}

var pipedriveDealStatusKinds = map[string]string{
	"won":  models.EventOpportunityWon,
	"lost": models.EventOpportunityLost,
}

func pipedriveKind(rawEvent string, payload map[string]interface{}) (string, bool) {
	if rawEvent == "updated.deal" {
		current := mapValue(payload, "current")
		kind, ok := pipedriveDealStatusKinds[stringValue(current, "status")]
		return kind, ok
	}
	kind, ok := pipedriveEvents[rawEvent]
	return kind, ok
}

func extractPipedrive(b *models.NormalizedEventBuilder, payload map[string]interface{}) {
	current := mapValue(payload, "current")

	externalID := stringValue(current, "id")
	if externalID == "" {
		externalID = stringValue(mapValue(payload, "meta"), "id")
	}
	b.WithExternalID(externalID)

	personID := stringValue(current, "person_id")
	if personID == "" {
		personID = externalID
	}

	b.WithCustomer(&models.Customer{
		Phone:      pipedriveContactField(current, "phone"),
		Name:       stringValue(current, "name"),
		Email:      pipedriveContactField(current, "email"),
		ExternalID: personID,
	})

	if value := toFloat(current["value"]); value != 0 {
		b.WithOrder(&models.Order{
			ID:       externalID,
			Total:    value,
			Currency: stringValue(current, "currency"),
			Status:   stringValue(current, "status"),
		})
	}
}

// Pipedrive person contact fields are arrays of {value, primary} entries;
// prefer the primary one, fall back to the first, tolerate plain strings.
func pipedriveContactField(person map[string]interface{}, field string) string {
	raw, ok := person[field]
	if !ok {
		return ""
	}

	if s, ok := raw.(string); ok {
		return s
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return ""
	}

	first := ""
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		value := stringValue(entry, "value")
		if value == "" {
			continue
		}
		if first == "" {
			first = value
		}
		if primary, _ := entry["primary"].(bool); primary {
			return value
		}
	}
	return first
}
