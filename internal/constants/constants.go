package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

// Outbound dispatch calls get a single attempt with a fixed deadline so a
// slow downstream cannot stall the rest of the rule batch.
const (
	DispatchHTTPTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// IntegrationStatusConnected is the only status webhooks are accepted in.
	IntegrationStatusConnected = "connected"
)

const (
	CacheKeyPrefixIntegration = "integration:"
)

const (
	DefaultEventsTopic = "normalized_events"
)

const (
	DefaultMongoDBName = "switchboard"
	EventsCollection   = "events"
)

const (
	// DefaultCountryCode is prefixed onto local-format phone numbers that
	// lack one before handing them to the messaging transport.
	DefaultCountryCode = "55"
)

const (
	// RateLimitWindow is the trailing interval the per-rule execution
	// ceiling is counted over.
	RateLimitWindow = time.Hour
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
