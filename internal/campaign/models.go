package campaign

import "time"

type Campaign struct {
	ID               string    `json:"id" db:"id"`
	TenantInstanceID string    `json:"tenant_instance_id" db:"tenant_instance_id"`
	Name             string    `json:"name" db:"name"`
	ContactCount     int       `json:"contact_count" db:"contact_count"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type Contact struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Phone      string    `json:"phone" db:"phone"`
	Name       string    `json:"name,omitempty" db:"name"`
	Email      string    `json:"email,omitempty" db:"email"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
