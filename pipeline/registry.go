package pipeline

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/tracelay/workspaced/errors"
)

// Registry maps URL schemes to adapter factories. It is populated once after
// the worker handshake and read-only thereafter; Close tears down every
// registered database client at process exit.
type Registry struct {
	mu         sync.RWMutex
	storage    map[string]StorageFactory
	destroyers map[string]Destroyer
	closers    []func(ctx context.Context) error
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		storage:    make(map[string]StorageFactory),
		destroyers: make(map[string]Destroyer),
	}
}

// RegisterStorage adds a storage adapter factory for a URL scheme.
func (r *Registry) RegisterStorage(scheme string, f StorageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[strings.ToLower(scheme)] = f
}

// RegisterDestroyer adds a database destroy adapter for a URL scheme.
func (r *Registry) RegisterDestroyer(scheme string, d Destroyer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyers[strings.ToLower(scheme)] = d
}

// AddCloser registers a teardown hook run by Close.
func (r *Registry) AddCloser(f func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, f)
}

// StorageFor builds a storage adapter for the given storage URL.
func (r *Registry) StorageFor(ctx context.Context, rawURL, bucket string) (StorageAdapter, error) {
	scheme, err := schemeOf(rawURL)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	f, ok := r.storage[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoAdapter, "storage scheme %q", scheme)
	}
	return f(ctx, rawURL, bucket)
}

// DestroyerFor resolves the destroy adapter for the given database URL.
func (r *Registry) DestroyerFor(rawURL string) (Destroyer, error) {
	scheme, err := schemeOf(rawURL)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	d, ok := r.destroyers[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoAdapter, "database scheme %q", scheme)
	}
	return d, nil
}

// Close shuts down every registered database client. All closers run; the
// first error is returned.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var firstErr error
	for _, f := range closers {
		if err := f(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func schemeOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid adapter URL %q", raw)
	}
	if u.Scheme == "" {
		return "", errors.Newf("adapter URL %q has no scheme", raw)
	}
	// mongodb+srv selects the same adapter as mongodb
	scheme := strings.ToLower(u.Scheme)
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}
	return scheme, nil
}
