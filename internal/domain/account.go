package domain

import "time"

// Account is a local user identity. Pubkey is the hex-encoded public
// key that identifies the account on relays.
type Account struct {
	Pubkey     string    `json:"pubkey"`
	Name       string    `json:"name,omitempty"`
	Picture    string    `json:"picture,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}
