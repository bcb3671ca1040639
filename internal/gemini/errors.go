package gemini

import (
	"errors"
	"fmt"
)

// ErrNoImagePayload is returned when an image-generation call succeeds
// but the response carries no inline image part.
var ErrNoImagePayload = errors.New("no inline image payload in response")

// UpstreamError wraps a failed call to the generation endpoint:
// transport errors, non-2xx statuses, and undecodable bodies.
type UpstreamError struct {
	Model  string
	Status string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini %s: %s: %v", e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("gemini %s: %v", e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
