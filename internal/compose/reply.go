package compose

import (
	"sync"

	"github.com/sablechat/sable/internal/domain"
)

// ReplyContext holds at most one reference to the message being replied
// to. It is cleared unconditionally when a send attempt completes,
// whether or not the send succeeded.
type ReplyContext struct {
	mu     sync.RWMutex
	target *domain.ReplyRef
}

// Set replaces the current reply target.
func (rc *ReplyContext) Set(target domain.ReplyRef) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.target = &target
}

// Clear removes the reply target.
func (rc *ReplyContext) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.target = nil
}

// Get returns a copy of the reply target, if one is set.
func (rc *ReplyContext) Get() (domain.ReplyRef, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.target == nil {
		return domain.ReplyRef{}, false
	}
	return *rc.target, true
}

// TargetDeleted reports whether the replied-to message is known to be
// gone. Display-only; a deleted target never blocks sending.
func (rc *ReplyContext) TargetDeleted() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.target != nil && rc.target.Deleted
}
