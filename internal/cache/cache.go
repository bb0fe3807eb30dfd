package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the storage contract shared by the in-memory, Redis, and
// multi-level implementations.
type Cache interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	DeletePattern(pattern string) error
	Exists(key string) (bool, error)
	Stats() map[string]interface{}
	Health() error
	Close() error
}

// copyValue deep-copies src into the pointer dest by round-tripping through
// JSON, so cached values cannot be mutated through aliased slices or maps.
func copyValue(src, dest interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("destination must be a pointer, got %T", dest)
	}
	if destValue.IsNil() {
		return fmt.Errorf("destination pointer is nil")
	}
	if !destValue.Elem().CanSet() {
		return fmt.Errorf("destination is not settable")
	}

	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal cached value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cached value: %w", err)
	}
	return nil
}

func matchPattern(text, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(text) >= len(prefix) && text[:len(prefix)] == prefix
	}
	return text == pattern
}
