// Package kv exposes the durable key-value port the cart and order state
// persist through, with embedded-database, redis, and in-memory backends.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written or
// was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is the durable key-value surface. Implementations return plain
// errors; callers decide whether a failure degrades to a default.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// BuildKey joins non-empty parts under a namespace, colon-separated.
func BuildKey(namespace string, parts ...string) string {
	clean := []string{namespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
