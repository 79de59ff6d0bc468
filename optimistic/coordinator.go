/*
Package optimistic applies an edit to a local collection before the backend confirms it and undoes the edit when
the backend refuses it.

	c := optimistic.New(items, optimistic.Config[int32, store.Lead, store.LeadChanges]{...})
	err := c.Mutate(ctx, 12, changes) // Items() already shows the change while Persist runs

At most one mutation per id is in flight; a second one for the same id gets ErrPending. A refetch waits for every
in-flight mutation to settle and no mutation starts while it runs, so a stale rollback can't overwrite fresh data.
*/
package optimistic

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	ErrPending    = errors.New("a change to this record is still being saved")
	ErrRefetching = errors.New("records are being reloaded")
	ErrClosed     = errors.New("coordinator closed")
	ErrNotFound   = errors.New("record not in the collection")
)

type Config[K comparable, T any, C any] struct {
	ID func(T) K
	// Apply returns the record with changes applied; it must not write through pointers it shares with the input
	Apply   func(T, C) T
	Persist func(ctx context.Context, id K, changes C) error

	// observers, optional; never called after Close
	OnChange  func(items []T)
	OnError   func(id K, f *Failure)
	OnSuccess func(id K)
}

type Coordinator[K comparable, T any, C any] struct {
	conf Config[K, T, C]

	mu         sync.Mutex
	items      []T
	pending    map[K]struct{}
	version    uint64
	refetching bool
	closed     bool
	// settled is closed & replaced every time a mutation settles
	settled chan struct{}
}

func New[K comparable, T any, C any](items []T, conf Config[K, T, C]) *Coordinator[K, T, C] {
	return &Coordinator[K, T, C]{
		conf:    conf,
		items:   slices.Clone(items),
		pending: map[K]struct{}{},
		settled: make(chan struct{}),
	}
}

func (c *Coordinator[K, T, C]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Coordinator[K, T, C]) Get(id K) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(c.items, id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Pending reports whether id has a mutation in flight; a UI disables edits to it meanwhile
func (c *Coordinator[K, T, C]) Pending(id K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

func (c *Coordinator[K, T, C]) index(items []T, id K) int {
	return slices.IndexFunc(items, func(t T) bool { return c.conf.ID(t) == id })
}

/*
Mutate applies changes to id locally, then persists them and blocks until the backend answers. On failure the
collection is rolled back and the returned error is a *Failure.

The rollback restores the snapshot taken before the edit when no other mutation was applied since. Otherwise only
id's record is restored so another record's confirmed edit isn't lost.
*/
func (c *Coordinator[K, T, C]) Mutate(ctx context.Context, id K, changes C) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.refetching:
		c.mu.Unlock()
		return ErrRefetching
	}
	if _, busy := c.pending[id]; busy {
		c.mu.Unlock()
		return ErrPending
	}
	i := c.index(c.items, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}

	snapshot := slices.Clone(c.items)
	c.items = slices.Clone(c.items)
	c.items[i] = c.conf.Apply(c.items[i], changes)
	c.version++
	version := c.version
	c.pending[id] = struct{}{}
	applied := slices.Clone(c.items)
	c.mu.Unlock()

	c.notifyChange(applied)

	err := c.conf.Persist(ctx, id, changes)

	c.mu.Lock()
	delete(c.pending, id)
	var failure *Failure
	if err != nil {
		failure = Classify(err)
		c.rollback(id, snapshot, version)
	}
	closed := c.closed
	after := slices.Clone(c.items)
	close(c.settled)
	c.settled = make(chan struct{})
	c.mu.Unlock()

	if failure == nil {
		if !closed && c.conf.OnSuccess != nil {
			c.conf.OnSuccess(id)
		}
		return nil
	}

	if !closed {
		c.notifyChange(after)
		if c.conf.OnError != nil {
			c.conf.OnError(id, failure)
		}
	}
	return failure
}

// rollback is called with mu held
func (c *Coordinator[K, T, C]) rollback(id K, snapshot []T, version uint64) {
	if c.version == version {
		c.items = snapshot
		return
	}

	before := c.index(snapshot, id)
	now := c.index(c.items, id)
	if before < 0 || now < 0 {
		return
	}
	c.items = slices.Clone(c.items)
	c.items[now] = snapshot[before]
}

/*
Refetch replaces the collection with what fetch returns. It first waits for in-flight mutations to settle and
refuses new ones until it is done. A failed fetch leaves the collection as it was.
*/
func (c *Coordinator[K, T, C]) Refetch(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.refetching:
		c.mu.Unlock()
		return ErrRefetching
	}
	c.refetching = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refetching = false
		c.mu.Unlock()
	}()

	if err := c.waitIdle(ctx); err != nil {
		return err
	}

	items, err := fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = slices.Clone(items)
	c.version++
	closed := c.closed
	fresh := slices.Clone(c.items)
	c.mu.Unlock()

	if !closed {
		c.notifyChange(fresh)
	}
	return nil
}

func (c *Coordinator[K, T, C]) waitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return nil
		}
		settled := c.settled
		c.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close detaches the observers. Mutations already in flight still settle and return their result.
func (c *Coordinator[K, T, C]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Coordinator[K, T, C]) notifyChange(items []T) {
	if c.conf.OnChange != nil {
		c.conf.OnChange(items)
	}
}
