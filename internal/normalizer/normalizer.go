package normalizer

import (
	"switchboard/pkg/models"
)

// Supported source integration types.
const (
	ProviderShopify     = "shopify"
	ProviderWooCommerce = "woocommerce"
	ProviderHubspot     = "hubspot"
	ProviderPipedrive   = "pipedrive"
)

// Normalize converts a raw provider webhook into the canonical event shape.
// The second return value is false when the provider or its event name has
// no canonical mapping; the caller acknowledges such deliveries without
// processing them. Extraction is tolerant of missing or malformed
// sub-objects and never fails once a mapping exists.
func Normalize(provider, rawEvent string, payload map[string]interface{}, tenantInstanceID, integrationID string) (*models.NormalizedEvent, bool) {
	if payload == nil {
		payload = map[string]interface{}{}
	}

	kind, ok := canonicalKind(provider, rawEvent, payload)
	if !ok {
		return nil, false
	}

	b := models.NewNormalizedEventBuilder().
		WithProvider(provider).
		WithEvent(kind).
		WithTenantInstanceID(tenantInstanceID).
		WithIntegrationID(integrationID).
		WithMetadata(payload)

	switch provider {
	case ProviderShopify:
		extractShopify(b, rawEvent, payload)
	case ProviderWooCommerce:
		extractWooCommerce(b, rawEvent, payload)
	case ProviderHubspot:
		extractHubspot(b, payload)
	case ProviderPipedrive:
		extractPipedrive(b, payload)
	}

	return b.Build(), true
}

func canonicalKind(provider, rawEvent string, payload map[string]interface{}) (string, bool) {
	switch provider {
	case ProviderShopify:
		kind, ok := shopifyEvents[rawEvent]
		return kind, ok
	case ProviderWooCommerce:
		return wooCommerceKind(rawEvent, payload)
	case ProviderHubspot:
		return hubspotKind(rawEvent, payload)
	case ProviderPipedrive:
		return pipedriveKind(rawEvent, payload)
	default:
		return "", false
	}
}

// SupportedProvider reports whether the provider has a mapping table at all.
func SupportedProvider(provider string) bool {
	switch provider {
	case ProviderShopify, ProviderWooCommerce, ProviderHubspot, ProviderPipedrive:
		return true
	default:
		return false
	}
}
