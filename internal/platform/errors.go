package platform

import "fmt"

// ValidationError means the post content can never succeed on this platform
// as given. It is raised before any network call.
type ValidationError struct {
	Platform string
	Reason   string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// APIError is a non-2xx answer from a platform API, with whatever message
// the platform returned.
type APIError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d)", e.Platform, e.StatusCode)
}

// ProcessingError means the platform accepted the media but failed or timed
// out while processing it asynchronously.
type ProcessingError struct {
	Platform string
	Reason   string
}

func (e *ProcessingError) Error() string {
	return e.Reason
}
