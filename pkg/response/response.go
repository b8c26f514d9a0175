package response

// Body is the JSON error body the workflow API emits on failures. Success
// payloads are bare resources (arrays/objects), so only the error shape is
// shared.
type Body struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// Error wraps an error message in the standard body.
func Error(statusCode int, err string) Body {
	return Body{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
