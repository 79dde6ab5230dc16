package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

//go:generate mockgen -package mocks -destination mocks/mock_poller.go github.com/ethpandaops/status-stream/internal/timeline Poller

// ErrCredentialRejected marks a 403 carrying the blocked-credential error code.
var ErrCredentialRejected = errors.New("credential rejected")

// Status is a single remote item. Raw holds the record exactly as received;
// only its identifier is interpreted.
type Status struct {
	ID  uint64
	Raw json.RawMessage
}

// MarshalJSON returns the untouched remote record.
func (s Status) MarshalJSON() ([]byte, error) {
	if len(s.Raw) == 0 {
		return []byte("null"), nil
	}

	return s.Raw, nil
}

// PollError describes a failed poll. StatusCode is 0 when the request never
// got a response.
type PollError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *PollError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("poll failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("poll failed: status %d: %v: %s", e.StatusCode, e.Err, e.Body)
	default:
		return fmt.Sprintf("poll failed: status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Poller is the view of a remote client that polling loops depend on.
type Poller interface {
	Poll(ctx context.Context) ([]Status, error)
	SetCredential(token string)
	Credential() string
	LastID() uint64
	SetLastID(id uint64)
}
