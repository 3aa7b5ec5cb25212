package persistence

import (
	"context"
	"errors"
)

// DefaultKey is the name the session record is stored under.
const DefaultKey = "survey_data"

// ErrRecordNotFound is returned by a Backend when no record exists for a key.
var ErrRecordNotFound = errors.New("record not found")

// Backend stores opaque records under string keys.
//
// Implementations must be safe for concurrent use. Put replaces any
// existing record in full; Delete of a missing key is not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
