package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory Store used by tests and single-process deployments.
type Memory struct {
	mu    sync.Mutex
	cells map[string]map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cells: make(map[string]map[string][]byte)}
}

func scope(companyID, collection string) string {
	return companyID + "/" + collection
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, companyID, collection, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.cells[scope(companyID, collection)]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := coll[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, companyID, collection, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(companyID, collection, key, doc)
	return nil
}

func (m *Memory) putLocked(companyID, collection, key string, doc []byte) {
	sc := scope(companyID, collection)
	coll, ok := m.cells[sc]
	if !ok {
		coll = make(map[string][]byte)
		m.cells[sc] = coll
	}
	coll[key] = append([]byte(nil), doc...)
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, companyID, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.cells[scope(companyID, collection)]
	if !ok {
		return ErrNotFound
	}
	if _, ok := coll[key]; !ok {
		return ErrNotFound
	}
	delete(coll, key)
	return nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, companyID, collection string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll := m.cells[scope(companyID, collection)]
	keys := make([]string, 0, len(coll))
	for k := range coll {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	docs := make([][]byte, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, append([]byte(nil), coll[k]...))
	}
	return docs, nil
}

// Update implements Store. The whole read-modify-write runs under the store lock.
func (m *Memory) Update(_ context.Context, companyID, collection, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current []byte
	if coll, ok := m.cells[scope(companyID, collection)]; ok {
		if doc, ok := coll[key]; ok {
			current = append([]byte(nil), doc...)
		}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.putLocked(companyID, collection, key, next)
	return nil
}
