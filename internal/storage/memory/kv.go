// Package memory is an in-process key-value store.
package memory

import (
	"context"
	"sync"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

type KVStorage struct {
	mu   sync.RWMutex
	data map[string][]byte

	// Error injection for testing
	GetErr error
	SetErr error
	// AfterGet runs after every Get that reached the map, outside the lock.
	AfterGet func(key string)

	writes int
}

func NewKVStorage() *KVStorage {
	return &KVStorage{data: make(map[string][]byte)}
}

func (s *KVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.GetErr != nil {
		s.mu.RUnlock()
		return nil, s.GetErr
	}
	v, ok := s.data[key]
	hook := s.AfterGet
	s.mu.RUnlock()

	if hook != nil {
		hook(key)
	}
	if !ok {
		return nil, model.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *KVStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Put stores a raw value without counting it as a write.
func (s *KVStorage) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
}

// Raw returns the stored value and whether the key exists.
func (s *KVStorage) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Writes counts successful Set calls.
func (s *KVStorage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *KVStorage) Close() error {
	return nil
}
