package compose

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sablechat/sable/internal/domain"
)

// Registry owns the ordered list of attachments on a draft and their
// upload state. Each attachment gets a synthetic id at add time, so two
// files sharing a name never collide.
type Registry struct {
	mu   sync.RWMutex
	atts []domain.Attachment
}

// NewRegistry creates an empty attachment registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends the file as a new attachment in Uploading status and
// returns the stored copy carrying its assigned id.
func (r *Registry) Add(file domain.Attachment) domain.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()

	file.ID = uuid.NewString()
	file.Status = domain.UploadStatusUploading
	file.Ref = ""
	if file.Size == 0 {
		file.Size = int64(len(file.Data))
	}
	r.atts = append(r.atts, file)
	return file
}

// Remove deletes the attachment with the given id, whatever its status.
// An in-flight upload is not cancelled; its completion becomes a no-op
// because the identity is gone. Returns whether anything was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, att := range r.atts {
		if att.ID == id {
			r.atts = append(r.atts[:i], r.atts[i+1:]...)
			return true
		}
	}
	return false
}

// SetStatus applies the terminal upload result for an attachment. The
// ref is recorded on success and ignored otherwise. Transitions only
// flow Uploading to Success or Error, exactly once; calls for unknown
// ids or already-terminal attachments are safe no-ops. Returns whether
// the transition applied.
func (r *Registry) SetStatus(id string, status domain.UploadStatus, ref string) bool {
	if !status.Terminal() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, att := range r.atts {
		if att.ID != id {
			continue
		}
		if att.Status != domain.UploadStatusUploading {
			return false
		}
		r.atts[i].Status = status
		if status == domain.UploadStatusSuccess {
			r.atts[i].Ref = ref
		}
		return true
	}
	return false
}

// Get returns a copy of the attachment with the given id.
func (r *Registry) Get(id string) (domain.Attachment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, att := range r.atts {
		if att.ID == id {
			return att, true
		}
	}
	return domain.Attachment{}, false
}

// All returns a snapshot of every attachment in insertion order.
func (r *Registry) All() []domain.Attachment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Attachment, len(r.atts))
	copy(out, r.atts)
	return out
}

// Successful returns a snapshot of the attachments that finished
// uploading, in insertion order. This is what goes into the outbound
// message.
func (r *Registry) Successful() []domain.Attachment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Attachment
	for _, att := range r.atts {
		if att.Status == domain.UploadStatusSuccess {
			out = append(out, att)
		}
	}
	return out
}

// Uploading returns the number of attachments still in flight.
func (r *Registry) Uploading() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, att := range r.atts {
		if att.Status == domain.UploadStatusUploading {
			n++
		}
	}
	return n
}

// Len returns the number of attachments in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.atts)
}

// Clear discards all attachments.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.atts = nil
}
