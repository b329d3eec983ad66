package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a forum member. ProviderID is the subject issued by the external
// identity provider and is what other members see as the user's public id.
type User struct {
	ID         uuid.UUID `json:"id"`
	ProviderID string    `json:"provider_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Picture    *string   `json:"picture,omitempty"`
	Reputation int       `json:"reputation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Author is the slice of a user embedded in questions and answers.
type Author struct {
	ID         uuid.UUID `json:"id"`
	ProviderID string    `json:"provider_id"`
	Name       string    `json:"name"`
	Picture    *string   `json:"picture,omitempty"`
}
