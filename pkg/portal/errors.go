package portal

import "time"

// ErrorDetails is the body of every failed API response.
type ErrorDetails struct {
	Message     string    `json:"message"`
	Description string    `json:"description"` // "uri=<request path>"
	Timestamp   time.Time `json:"timestamp"`
}

// NewErrorDetails builds the error body for a request path.
func NewErrorDetails(message, path string) ErrorDetails {
	return ErrorDetails{
		Message:     message,
		Description: "uri=" + path,
		Timestamp:   time.Now().UTC(),
	}
}
