package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablechat/sable/internal/domain"
)

func TestRegistry_AddAssignsIdentity(t *testing.T) {
	r := NewRegistry()

	att := r.Add(domain.Attachment{Filename: "photo.png", MimeType: "image/png", Data: []byte("png-bytes")})

	assert.NotEmpty(t, att.ID)
	assert.Equal(t, domain.UploadStatusUploading, att.Status)
	assert.Equal(t, int64(len("png-bytes")), att.Size)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SameFilenameGetsDistinctIdentity(t *testing.T) {
	r := NewRegistry()

	first := r.Add(domain.Attachment{Filename: "photo.png", Data: []byte("one")})
	second := r.Add(domain.Attachment{Filename: "photo.png", Data: []byte("two")})

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, r.Len())

	// Resolving the first must not touch the second.
	require.True(t, r.SetStatus(first.ID, domain.UploadStatusSuccess, "ref-1"))
	got, ok := r.Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, domain.UploadStatusUploading, got.Status)
}

func TestRegistry_StatusTransitionsExactlyOnce(t *testing.T) {
	r := NewRegistry()
	att := r.Add(domain.Attachment{Filename: "doc.pdf"})

	assert.True(t, r.SetStatus(att.ID, domain.UploadStatusSuccess, "ref-1"))

	// Repeated calls are no-ops, whatever the requested status.
	assert.False(t, r.SetStatus(att.ID, domain.UploadStatusSuccess, "ref-2"))
	assert.False(t, r.SetStatus(att.ID, domain.UploadStatusError, ""))

	got, ok := r.Get(att.ID)
	require.True(t, ok)
	assert.Equal(t, domain.UploadStatusSuccess, got.Status)
	assert.Equal(t, "ref-1", got.Ref)
}

func TestRegistry_ErrorIsTerminalToo(t *testing.T) {
	r := NewRegistry()
	att := r.Add(domain.Attachment{Filename: "doc.pdf"})

	assert.True(t, r.SetStatus(att.ID, domain.UploadStatusError, ""))
	assert.False(t, r.SetStatus(att.ID, domain.UploadStatusSuccess, "ref-late"))

	got, _ := r.Get(att.ID)
	assert.Equal(t, domain.UploadStatusError, got.Status)
	assert.Empty(t, got.Ref)
}

func TestRegistry_SetStatusRejectsNonTerminal(t *testing.T) {
	r := NewRegistry()
	att := r.Add(domain.Attachment{Filename: "doc.pdf"})

	assert.False(t, r.SetStatus(att.ID, domain.UploadStatusUploading, ""))

	got, _ := r.Get(att.ID)
	assert.Equal(t, domain.UploadStatusUploading, got.Status)
}

func TestRegistry_SetStatusUnknownIdIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.SetStatus("missing", domain.UploadStatusSuccess, "ref"))
}

func TestRegistry_RemoveAnyStatus(t *testing.T) {
	r := NewRegistry()

	uploading := r.Add(domain.Attachment{Filename: "a.png"})
	succeeded := r.Add(domain.Attachment{Filename: "b.png"})
	failed := r.Add(domain.Attachment{Filename: "c.png"})
	r.SetStatus(succeeded.ID, domain.UploadStatusSuccess, "ref-b")
	r.SetStatus(failed.ID, domain.UploadStatusError, "")

	assert.True(t, r.Remove(uploading.ID))
	assert.True(t, r.Remove(succeeded.ID))
	assert.True(t, r.Remove(failed.ID))
	assert.Equal(t, 0, r.Len())

	assert.False(t, r.Remove(uploading.ID)) // already gone
}

func TestRegistry_SetStatusAfterRemoveIsNoop(t *testing.T) {
	r := NewRegistry()
	att := r.Add(domain.Attachment{Filename: "a.png"})

	require.True(t, r.Remove(att.ID))

	// The late completion callback must not resurrect the attachment.
	assert.False(t, r.SetStatus(att.ID, domain.UploadStatusSuccess, "ref"))
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Successful())
}

func TestRegistry_SuccessfulKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()

	first := r.Add(domain.Attachment{Filename: "1.png"})
	second := r.Add(domain.Attachment{Filename: "2.png"})
	third := r.Add(domain.Attachment{Filename: "3.png"})

	// Resolve out of order; snapshot must stay in insertion order.
	r.SetStatus(third.ID, domain.UploadStatusSuccess, "ref-3")
	r.SetStatus(first.ID, domain.UploadStatusSuccess, "ref-1")
	r.SetStatus(second.ID, domain.UploadStatusError, "")

	got := r.Successful()
	require.Len(t, got, 2)
	assert.Equal(t, "1.png", got[0].Filename)
	assert.Equal(t, "3.png", got[1].Filename)
}

func TestRegistry_UploadingCount(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Uploading())

	a := r.Add(domain.Attachment{Filename: "a"})
	b := r.Add(domain.Attachment{Filename: "b"})
	assert.Equal(t, 2, r.Uploading())

	r.SetStatus(a.ID, domain.UploadStatusSuccess, "ref-a")
	assert.Equal(t, 1, r.Uploading())

	r.SetStatus(b.ID, domain.UploadStatusError, "")
	assert.Equal(t, 0, r.Uploading())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Add(domain.Attachment{Filename: "a"})
	r.Add(domain.Attachment{Filename: "b"})

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.All())
}

func TestRegistry_AllReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	att := r.Add(domain.Attachment{Filename: "a"})

	snapshot := r.All()
	require.Len(t, snapshot, 1)
	snapshot[0].Status = domain.UploadStatusError // must not write through

	got, ok := r.Get(att.ID)
	require.True(t, ok)
	assert.Equal(t, domain.UploadStatusUploading, got.Status)
}
