// Package bans owns the server-wide set of banned names.
//
// Names match case-insensitively and keep the case they were banned with.
// Enumerate returns names in case-insensitive alphabetical order; completion
// relies on this order being stable.
package bans

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrRegistryUnavailable = errors.New("ban registry unavailable")

type Store interface {
	LoadBans(ctx context.Context) ([]string, error)
	SaveBan(ctx context.Context, name string, banned bool) error
}

type Registry struct {
	// writing serializes mutations and their store writes; mutex guards names
	// and is never held across store I/O.
	writing sync.Mutex
	mutex   sync.RWMutex
	names   map[string]string
	store   Store
	timeout time.Duration
}

// NewRegistry returns an in-memory registry when store is nil.
func NewRegistry(store Store, timeout time.Duration) *Registry {
	return &Registry{
		names:   make(map[string]string, 64),
		store:   store,
		timeout: timeout,
	}
}

func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	names, err := r.store.LoadBans(ctx)

	if err != nil {
		return errors.Wrap(ErrRegistryUnavailable, err.Error())
	}

	loaded := make(map[string]string, len(names))

	for _, name := range names {
		loaded[key(name)] = name
	}

	r.mutex.Lock()
	r.names = loaded
	r.mutex.Unlock()

	return nil
}

func (r *Registry) Contains(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, found := r.names[key(name)]
	return found
}

// Enumerate returns a snapshot; later mutations do not affect it.
func (r *Registry) Enumerate() []string {
	r.mutex.RLock()
	names := make([]string, 0, len(r.names))

	for _, name := range r.names {
		names = append(names, name)
	}
	r.mutex.RUnlock()

	sort.Slice(names, func(i, j int) bool {
		return key(names[i]) < key(names[j])
	})

	return names
}

// SetBanned is a no-op when the name is already in the requested state.
func (r *Registry) SetBanned(name string, banned bool) error {
	r.writing.Lock()
	defer r.writing.Unlock()

	if r.Contains(name) == banned {
		return nil
	}

	if r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.store.SaveBan(ctx, name, banned)
		cancel()

		if err != nil {
			return errors.Wrapf(ErrRegistryUnavailable, "save %s: %s", name, err.Error())
		}
	}

	r.mutex.Lock()
	if banned {
		r.names[key(name)] = name
	} else {
		delete(r.names, key(name))
	}
	r.mutex.Unlock()

	return nil
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.names)
}

func key(name string) string {
	return strings.ToLower(name)
}
