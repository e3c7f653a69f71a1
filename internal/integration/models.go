package integration

import (
	"time"

	"switchboard/internal/constants"
)

// Integration is one tenant's connection to a provider. Webhooks are only
// accepted while Status is "connected"; the record is owned by the
// configuration surface and read-only here.
type Integration struct {
	ID               string    `json:"id" db:"id"`
	TenantInstanceID string    `json:"tenant_instance_id" db:"tenant_instance_id"`
	Provider         string    `json:"provider" db:"provider"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func (i *Integration) IsConnected() bool {
	return i.Status == constants.IntegrationStatusConnected
}
