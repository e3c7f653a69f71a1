package normalizer

import (
	"switchboard/pkg/models"
)

var hubspotEvents = map[string]string{
	"contact.creation": models.EventLeadCreated,
	"deal.creation":    models.EventLeadConverted,
}

var hubspotDealStageKinds = map[string]string{
	"closedwon":  models.EventOpportunityWon,
	"closedlost": models.EventOpportunityLost,
}

func hubspotKind(rawEvent string, payload map[string]interface{}) (string, bool) {
	if rawEvent == "deal.propertyChange" {
		if stringValue(payload, "propertyName") != "dealstage" {
			return "", false
		}
		kind, ok := hubspotDealStageKinds[stringValue(payload, "propertyValue")]
		return kind, ok
	}
	kind, ok := hubspotEvents[rawEvent]
	return kind, ok
}

func extractHubspot(b *models.NormalizedEventBuilder, payload map[string]interface{}) {
	externalID := stringValue(payload, "objectId")
	if externalID == "" {
		externalID = stringValue(payload, "vid")
	}
	b.WithExternalID(externalID)

	properties := mapValue(payload, "properties")
	b.WithCustomer(&models.Customer{
		Phone:      hubspotProperty(properties, "phone"),
		Name:       joinName(hubspotProperty(properties, "firstname"), hubspotProperty(properties, "lastname")),
		Email:      hubspotProperty(properties, "email"),
		ExternalID: externalID,
	})
}

// Hubspot serializes properties either as plain scalars or as
// {"value": ...} wrappers depending on the subscription version.
func hubspotProperty(properties map[string]interface{}, name string) string {
	raw, ok := properties[name]
	if !ok {
		return ""
	}
	if wrapped, ok := raw.(map[string]interface{}); ok {
		return stringValue(wrapped, "value")
	}
	return asString(raw)
}
