package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the display record for a user. The id comes from the external
// auth issuer, which is why it is a UUID rather than a serial.
type Profile struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	OrganizationID *int64    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Organization is a campus, resolved from a verified email domain.
type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	EmailDomain string    `json:"email_domain"`
	CreatedAt   time.Time `json:"created_at"`
}
