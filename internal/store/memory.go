package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. It backs unit tests and local runs
// without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	collections  map[string]map[string]map[string]any
	err          error
	connectivity error
	closed       bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

// WithError makes every subsequent data call fail with err.
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces Ping to return err.
func (m *MemoryStore) WithConnectivityError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryStore) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.InsertWithID(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) InsertWithID(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		m.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateID, collection, id)
	}
	docs[id] = normalized
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return Document{}, m.err
	}

	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (m *MemoryStore) Find(ctx context.Context, q *Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []Document
	err := m.err
	if err == nil {
		for id, fields := range m.collections[q.Collection] {
			if matchesAll(fields, q.Predicates) {
				out = append(out, Document{ID: id, Fields: cloneFields(fields)})
			}
		}
	}
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	sortDocuments(out, q.Order)
	if q.LimitN > 0 && len(out) > q.LimitN {
		out = out[:q.LimitN]
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("memory store closed")
	}
	return m.connectivity
}

func (m *MemoryStore) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len reports the number of documents in collection.
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func matchesAll(fields map[string]any, preds []Predicate) bool {
	for _, p := range preds {
		if !matches(fields, p) {
			return false
		}
	}
	return true
}

// sortDocuments orders by the requested field with id as tie-break, or by id
// alone when no order is set. Documents missing the field sort last.
func sortDocuments(docs []Document, order *Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		desc := order != nil && order.Direction == Desc
		if order != nil {
			a, aok := docs[i].Fields[order.Field]
			b, bok := docs[j].Fields[order.Field]
			switch {
			case aok && !bok:
				return true
			case !aok && bok:
				return false
			case aok && bok:
				if cmp, ok := compareValues(a, b); ok && cmp != 0 {
					if desc {
						return cmp > 0
					}
					return cmp < 0
				}
			}
		}
		cmp := strings.Compare(docs[i].ID, docs[j].ID)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}
