package provider

import (
	"context"
	"time"
)

// Discard stores nothing. It backs the persisted tier when persistence is
// turned off, so every read misses and every write is accepted.
type Discard struct{}

var _ Provider = Discard{}

func (Discard) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Discard) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return true, nil
}

func (Discard) Del(context.Context, string) error { return nil }
func (Discard) Close(context.Context) error       { return nil }
