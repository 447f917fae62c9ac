// Package kv provides synchronous, size-bounded key-value slots used by the
// local persistence backend. A slot behaves like browser local storage: whole
// values are read and written under string keys, and writes that would take
// the total stored size over the quota are refused.
package kv

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by Get when the key has never been set.
	ErrKeyNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when the write would exceed the slot's size bound.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrClosed is returned by operations on a closed slot.
	ErrClosed = errors.New("slot closed")
)

// DefaultMaxBytes mirrors the usual browser local storage allowance.
const DefaultMaxBytes = 5 * 1024 * 1024

// Slot is a synchronous key-value store.
type Slot interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// checkQuota reports ErrQuotaExceeded when used bytes plus the new entry exceed max.
// A max of zero or less disables the bound.
func checkQuota(used int64, key string, value []byte, max int64) error {
	if max <= 0 {
		return nil
	}
	size := used + int64(len(key)+len(value))
	if size > max {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, size, max)
	}
	return nil
}
