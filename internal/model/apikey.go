// Package model defines domain entities for the application.
package model

import "time"

// APIKey represents a bearer token authorizing requests on behalf of a user.
// Keys are never deleted; revocation flips Active to false, which is final.
type APIKey struct {
	Key       string    `json:"api_key"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyResponse is the listing representation of a key.
type APIKeyResponse struct {
	Key       string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts an APIKey to its listing representation.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		Key:       k.Key,
		CreatedAt: k.CreatedAt,
	}
}

// Identity holds the authenticated caller resolved by the auth middleware.
// It is injected into the request context; handlers read it back via the
// auth package rather than re-validating the key.
type Identity struct {
	UserID string
	Key    string
}
