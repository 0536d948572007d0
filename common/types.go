package common

// StatusEvent is one status change streamed to webserver subscribers.
type StatusEvent struct {
	Type    UpdateType `json:"type"`
	Message string     `json:"message,omitempty"`
	Sticky  bool       `json:"sticky,omitempty"`
	File    string     `json:"file,omitempty"`
	Size    int        `json:"size,omitempty"`
}

// UploadResponse is returned to a client after a successful upload.
type UploadResponse struct {
	UploadId  string `json:"upload_id"`
	FileName  string `json:"file_name"`
	Extension string `json:"extension"`
	Size      int    `json:"size"`
}

// ErrorResponse is returned by the webserver on rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
