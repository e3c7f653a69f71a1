package tenant

import "time"

// Settings holds a tenant's outbound messaging configuration. There are
// no baked-in defaults: a tenant without a transport endpoint simply
// cannot run send_message actions.
type Settings struct {
	TenantInstanceID   string    `json:"tenant_instance_id" db:"tenant_instance_id"`
	TransportEndpoint  string    `json:"transport_endpoint" db:"transport_endpoint"`
	TransportToken     string    `json:"transport_token" db:"transport_token"`
	DefaultCountryCode string    `json:"default_country_code" db:"default_country_code"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
