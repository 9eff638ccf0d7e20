package models

// Batch result statuses
const (
	StatusReady = "ready"
	StatusError = "error"
)

// BatchRequest is the body of a batch download request
type BatchRequest struct {
	Videos   []BatchItem `json:"videos"`
	FormatID string      `json:"format_id"`
}

// BatchItem is a single URL of a batch request
type BatchItem struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// BatchResult is the outcome of preparing one batch item
type BatchResult struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	FormatID string `json:"format_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchResponse is the body returned by a batch download request
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}
