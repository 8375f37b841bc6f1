package kv

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store, used in tests and for the "memory" driver.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory { return &Memory{docs: map[string][]byte{}} }

func memKey(owner int64, key Key) string { return fmt.Sprintf("%d/%s", owner, key) }

func (m *Memory) Get(_ context.Context, owner int64, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[memKey(owner, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (m *Memory) Put(_ context.Context, owner int64, key Key, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[memKey(owner, key)] = append([]byte(nil), doc...)
	return nil
}

func (m *Memory) Delete(_ context.Context, owner int64, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, memKey(owner, key))
	return nil
}
