package cache

import (
	"errors"
	"fmt"
)

// ErrProviderRequired is returned by NewPersistent without a provider.
var ErrProviderRequired = errors.New("cache: provider is required")

// InvalidateError is returned by Persistent.Clear when neither the
// generation bump nor the delete went through, so a reader may still see
// the cleared entry.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("cache: clear persisted %q: generation bump: %v; delete: %v", e.Key, e.BumpErr, e.DelErr)
}

func (e *InvalidateError) Unwrap() []error { return []error{e.BumpErr, e.DelErr} }
