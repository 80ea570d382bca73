package compose

import (
	"context"
	"fmt"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/logging"
	"github.com/sablechat/sable/internal/notify"
)

// uploadResult is the outcome of one upload task.
type uploadResult struct {
	ref string
	err error
}

// Uploader runs one upload per attachment against the backend. Uploads
// are independent: each runs in its own goroutine, failures are scoped
// to their attachment, and nothing is retried or cancelled.
type Uploader struct {
	groupID  string
	backend  Backend
	registry *Registry
	notifier notify.Notifier
	log      *logging.Logger
}

// NewUploader creates an uploader feeding results into the registry.
func NewUploader(groupID string, backend Backend, registry *Registry, notifier notify.Notifier, log *logging.Logger) *Uploader {
	return &Uploader{
		groupID:  groupID,
		backend:  backend,
		registry: registry,
		notifier: notifier,
		log:      log.Sub("upload"),
	}
}

// Start launches the upload for an already-registered attachment and
// returns immediately.
func (u *Uploader) Start(ctx context.Context, att domain.Attachment) {
	go u.run(ctx, att)
}

func (u *Uploader) run(ctx context.Context, att domain.Attachment) {
	res := u.upload(ctx, att)

	if res.err != nil {
		// The transition is a no-op when the user already removed the
		// attachment; the toast is still worth showing.
		u.registry.SetStatus(att.ID, domain.UploadStatusError, "")
		u.log.Warn().
			Err(res.err).
			Str("attachment", att.ID).
			Str("filename", att.Filename).
			Msg("upload failed")
		u.notifier.Error(ctx, fmt.Sprintf("Failed to upload %s", att.Filename))
		return
	}

	applied := u.registry.SetStatus(att.ID, domain.UploadStatusSuccess, res.ref)
	u.log.Debug().
		Str("attachment", att.ID).
		Str("filename", att.Filename).
		Bool("applied", applied).
		Msg("upload finished")
}

func (u *Uploader) upload(ctx context.Context, att domain.Attachment) uploadResult {
	ref, err := u.backend.UploadAttachment(ctx, u.groupID, att)
	return uploadResult{ref: ref, err: err}
}
