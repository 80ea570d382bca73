// Package compose implements the message composition pipeline: the
// draft text, the attachment registry with per-attachment upload
// tracking, the single-slot reply context, and the send orchestrator
// that assembles them into one outbound message.
//
// The package never performs encryption or network I/O itself; all of
// that is delegated to the Backend collaborator.
package compose

import (
	"context"
	"errors"

	"github.com/sablechat/sable/internal/domain"
)

// Backend is the messaging collaborator the composer delegates to.
type Backend interface {
	// GroupRelays resolves the relay set for a group, in preference
	// order. Used when composing a reply tag.
	GroupRelays(ctx context.Context, groupID string) ([]string, error)

	// UploadAttachment stages one attachment with the backend. The
	// returned ref identifies the stored file on the media server.
	UploadAttachment(ctx context.Context, groupID string, att domain.Attachment) (string, error)

	// SendMessage delivers a composed message and returns its
	// canonical form.
	SendMessage(ctx context.Context, out domain.OutboundMessage) (*domain.Message, error)

	// ResolveContact returns the enriched identity for a pubkey.
	// Display-path helper; the send path does not call it.
	ResolveContact(ctx context.Context, pubkey string) (*domain.Contact, error)
}

// Sentinel errors returned by Composer.Send when a guard refuses the call.
var (
	// ErrEmptyDraft means there was nothing to send: no text and no
	// attachments.
	ErrEmptyDraft = errors.New("compose: draft is empty")

	// ErrUploadsPending means at least one attachment is still uploading.
	ErrUploadsPending = errors.New("compose: uploads still in progress")

	// ErrSendInFlight means a send is already running for this composer.
	ErrSendInFlight = errors.New("compose: send already in flight")
)
