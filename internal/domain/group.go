package domain

import "time"

// GroupType classifies the conversation context.
type GroupType string

const (
	GroupTypeDM    GroupType = "dm"
	GroupTypeGroup GroupType = "group"
)

// GroupTypeFor derives the group type from its member count.
// Exactly two members is a direct message, anything else a group.
func GroupTypeFor(memberCount int) GroupType {
	if memberCount == 2 {
		return GroupTypeDM
	}
	return GroupTypeGroup
}

// Group is the local view of a chat group.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        GroupType `json:"type"`
	Members     []string  `json:"members,omitempty"`
	Admins      []string  `json:"admins,omitempty"`
	Relays      []string  `json:"relays,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
