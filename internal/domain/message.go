package domain

import "time"

// Kind identifies the event kind of a message.
type Kind int

const (
	// KindChat is a plain chat message in a group.
	KindChat Kind = 9
)

// Tag is a positional structured tag attached to a message.
// The first element names the tag, the rest are values.
type Tag []string

// Name returns the tag name, or "" for an empty tag.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first tag value, or "" if absent.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// GroupTag marks a message as belonging to a group.
func GroupTag(groupID string) Tag {
	return Tag{"h", groupID}
}

// ReplyTag marks a message as a reply to an earlier message. The relay
// hint tells receivers where the target can be fetched and may be empty.
func ReplyTag(messageID, relayHint, author string) Tag {
	return Tag{"q", messageID, relayHint, author}
}

// MediaTag references an uploaded attachment by the URL the media
// server stored it under.
func MediaTag(ref, mimeType, filename string) Tag {
	return Tag{"media", ref, mimeType, filename}
}

// FindTag returns the first tag with the given name.
func FindTag(tags []Tag, name string) (Tag, bool) {
	for _, t := range tags {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Message is a chat message in a group transcript. Pending messages are
// local echoes that have not been confirmed by a relay yet.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Author    string    `json:"author"`
	Kind      Kind      `json:"kind"`
	Tags      []Tag     `json:"tags,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Pending   bool      `json:"pending,omitempty"`
}

// OutboundMessage is a composed message handed to the messenger for
// delivery. Attachments carry only successfully uploaded files.
type OutboundMessage struct {
	GroupID     string       `json:"groupId"`
	Content     string       `json:"content"`
	Kind        Kind         `json:"kind"`
	Tags        []Tag        `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ReplyRef references the message a draft is replying to.
type ReplyRef struct {
	MessageID string `json:"messageId"`
	Author    string `json:"author"`
	Content   string `json:"content,omitempty"`
	Deleted   bool   `json:"deleted,omitempty"`
}
