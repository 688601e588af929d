// Package store holds the process-wide product list shown by the UI.
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/abgdnv/gocommerce-inventory/internal/product/client"
	producterrors "github.com/abgdnv/gocommerce-inventory/internal/product/errors"
)

// Status is the coarse state of the store.
type Status int

const (
	// StatusIdle means nothing has been fetched yet.
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is an immutable snapshot of the store.
type State struct {
	Status   Status
	Products []client.Product
	Loading  bool
	Error    string
	// Version grows by one with every change.
	Version uint64
}

// Backend is the part of the products API the store relies on.
type Backend interface {
	List(ctx context.Context) ([]client.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductStore caches the product list and tracks loading and error flags.
// Backend calls run outside the lock, so operations may overlap.
type ProductStore struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.RWMutex
	products  []client.Product
	inflight  int
	err       string
	fetched   bool
	version   uint64
	nextSubID uint64
	observers map[uint64]func(State)
}

// New creates an empty store in the idle state.
func New(backend Backend, logger *slog.Logger) *ProductStore {
	return &ProductStore{
		backend:   backend,
		logger:    logger.With("component", "store"),
		products:  []client.Product{},
		observers: make(map[uint64]func(State)),
	}
}

// Initialize performs the first fetch of the product list.
func (s *ProductStore) Initialize(ctx context.Context) error {
	return s.load(ctx)
}

// Refresh replaces the list with a fresh copy from the backend.
// On failure the previous list is kept and the error state is set.
func (s *ProductStore) Refresh(ctx context.Context) error {
	return s.load(ctx)
}

func (s *ProductStore) load(ctx context.Context) error {
	s.update(func() { s.inflight++ })

	products, err := s.backend.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching products", "error", err)
		s.update(func() {
			s.inflight--
			s.err = producterrors.MsgFetchFailed
		})
		return &producterrors.StoreError{Message: producterrors.MsgFetchFailed, Err: err}
	}

	s.update(func() {
		s.inflight--
		s.products = slices.Clone(products)
		if s.products == nil {
			s.products = []client.Product{}
		}
		s.fetched = true
		s.err = ""
	})
	s.logger.DebugContext(ctx, "Products fetched", "count", len(products))
	return nil
}

// Remove deletes a product in the backend and, once the backend confirmed it,
// drops the entry from the current list.
func (s *ProductStore) Remove(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting product", "ID", id, "error", err)
		s.update(func() { s.err = producterrors.MsgDeleteFailed })
		return &producterrors.StoreError{Message: producterrors.MsgDeleteFailed, Err: err}
	}

	s.update(func() {
		s.products = slices.DeleteFunc(slices.Clone(s.products), func(p client.Product) bool {
			return p.ID == id
		})
	})
	s.logger.InfoContext(ctx, "Product deleted", "ID", id)
	return nil
}

// State returns a snapshot of the store.
func (s *ProductStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Products returns a copy of the current list.
func (s *ProductStore) Products() []client.Product {
	return s.State().Products
}

// Loading reports whether a fetch is in progress.
func (s *ProductStore) Loading() bool {
	return s.State().Loading
}

// Error returns the current error message, empty when there is none.
func (s *ProductStore) Error() string {
	return s.State().Error
}

// Find returns the product with the given identifier from the current list.
func (s *ProductStore) Find(id string) (*client.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, producterrors.ErrProductNotFound
}

// Subscribe registers fn to receive a snapshot after every change.
// fn runs on the goroutine that made the change and must not block.
// The returned function removes the subscription.
func (s *ProductStore) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// update applies change under the lock, bumps the version and notifies observers outside the lock.
func (s *ProductStore) update(change func()) {
	s.mu.Lock()
	change()
	s.version++
	state := s.snapshot()
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

// snapshot must be called with the lock held.
func (s *ProductStore) snapshot() State {
	st := State{
		Products: slices.Clone(s.products),
		Loading:  s.inflight > 0,
		Error:    s.err,
		Version:  s.version,
	}
	switch {
	case st.Loading:
		st.Status = StatusLoading
	case st.Error != "":
		st.Status = StatusError
	case s.fetched:
		st.Status = StatusReady
	default:
		st.Status = StatusIdle
	}
	return st
}
