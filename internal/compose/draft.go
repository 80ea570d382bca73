package compose

import "sync"

// Draft holds the text of the message under composition.
type Draft struct {
	mu   sync.RWMutex
	text string
}

// Text returns the current draft text.
func (d *Draft) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// SetText replaces the draft text.
func (d *Draft) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

// Clear empties the draft.
func (d *Draft) Clear() {
	d.SetText("")
}

// Empty reports whether the draft text is empty. Whether the message as
// a whole is sendable also depends on attachments; see Composer.Empty.
func (d *Draft) Empty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text) == 0
}
