// Package core provides the in-memory storage layer for TaskNet.
//
// This file implements a thread-safe key-value store. It uses a read-write
// mutex to allow concurrent reads while ensuring exclusive access for write
// operations (Set, Delete).
package core

import (
	"strings"
	"sync"
)

// KVStore is a thread-safe, in-memory key-value store.
// It allows multiple concurrent readers or a single exclusive writer.
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKVStore creates and returns a new, empty KVStore instance.
func NewKVStore() *KVStore {
	return &KVStore{
		data: make(map[string][]byte),
	}
}

// Set adds or updates a value for a given key.
func (s *KVStore) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

// Get retrieves the value for a given key.
// It returns the value and a boolean indicating whether the key was found.
func (s *KVStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := s.data[key]
	return value, found
}

// Delete removes a key and its associated value from the store.
func (s *KVStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
}

// Len returns the number of keys currently stored.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Iterate calls fn for every key-value pair under a read lock.
// fn must not mutate the store.
func (s *KVStore) Iterate(fn func(key string, value []byte)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for k, v := range s.data {
		fn(k, v)
	}
}

// IteratePrefix calls fn for every pair whose key starts with prefix.
// Entity records share a key prefix (task:, link:, ...), so full scans of
// one entity kind walk the map once instead of materializing key lists.
func (s *KVStore) IteratePrefix(prefix string, fn func(key string, value []byte)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			fn(k, v)
		}
	}
}
