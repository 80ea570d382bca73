package domain

// Contact is the locally known profile of another user.
type Contact struct {
	Pubkey      string   `json:"pubkey"`
	Name        string   `json:"name,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Picture     string   `json:"picture,omitempty"`
	Relays      []string `json:"relays,omitempty"`
	InboxRelays []string `json:"inboxRelays,omitempty"`
}

// BestName returns the most specific display name available.
func (c Contact) BestName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Pubkey
}

// PreferredRelays picks the relays to reach this contact on: inbox
// relays first, then general relays, then the given defaults.
func (c Contact) PreferredRelays(defaults []string) []string {
	if len(c.InboxRelays) > 0 {
		return c.InboxRelays
	}
	if len(c.Relays) > 0 {
		return c.Relays
	}
	return defaults
}
