package domain

// UploadStatus tracks the lifecycle of an attachment upload.
type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusSuccess   UploadStatus = "success"
	UploadStatusError     UploadStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusSuccess || s == UploadStatusError
}

// Attachment is a file attached to a draft. ID is assigned when the
// attachment enters the registry and is unrelated to the filename. Ref
// is the server-side reference, set once the upload succeeds.
type Attachment struct {
	ID       string       `json:"id"`
	Filename string       `json:"filename"`
	MimeType string       `json:"mimeType,omitempty"`
	Size     int64        `json:"size,omitempty"`
	Status   UploadStatus `json:"status"`
	Ref      string       `json:"ref,omitempty"`
	Data     []byte       `json:"-"`
}
