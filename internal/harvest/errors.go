package harvest

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("harvest run already in progress")
	// ErrPaginationAborted marks an item walk stopped by the abort page policy.
	ErrPaginationAborted = errors.New("item pagination aborted")
)

// ConnectivityError reports that the catalog could not be reached before the
// run touched the output store.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity issue reaching the catalog %s endpoint, harvest not initiated: %v", e.Endpoint, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// EntityMappingError reports an entity that could not be translated.
type EntityMappingError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *EntityMappingError) Error() string {
	return fmt.Sprintf("map %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *EntityMappingError) Unwrap() error { return e.Err }

// PublishError reports an object the store did not accept.
type PublishError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
