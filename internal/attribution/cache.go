// Package attribution maps local transport ports to the name of the process
// that owns the socket.
package attribution

import (
	"NetSpike/internal/model"
	"context"
	"sync"
	"sync/atomic"
)

// Source produces a complete port to process-name table.
type Source interface {
	Snapshot(ctx context.Context) (map[uint16]string, error)
}

// Cache serves lookups from an immutable table that Refresh swaps in whole,
// so a reader never observes a half-built table.
type Cache struct {
	source Source
	table  atomic.Pointer[map[uint16]string]

	refreshMu sync.Mutex
	refreshes atomic.Uint64
	failures  atomic.Uint64
}

// NewCache creates an empty cache over source.
func NewCache(source Source) *Cache {
	c := &Cache{source: source}
	empty := map[uint16]string{}
	c.table.Store(&empty)
	return c
}

// Refresh rebuilds the table from the source. On failure the previous table
// stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	next, err := c.source.Snapshot(ctx)
	if err != nil {
		c.failures.Add(1)
		return err
	}
	if next == nil {
		next = map[uint16]string{}
	}
	c.table.Store(&next)
	c.refreshes.Add(1)
	return nil
}

// Resolve returns the owner of srcPort, then of dstPort, or model.UnknownApp.
// Port 0 never matches.
func (c *Cache) Resolve(srcPort, dstPort uint16) string {
	table := *c.table.Load()
	if srcPort != 0 {
		if name, ok := table[srcPort]; ok {
			return name
		}
	}
	if dstPort != 0 {
		if name, ok := table[dstPort]; ok {
			return name
		}
	}
	return model.UnknownApp
}

// ResolvePort returns the owner of a single port, or model.UnknownApp.
func (c *Cache) ResolvePort(port uint16) string {
	return c.Resolve(port, 0)
}

// Len returns the number of ports in the current table.
func (c *Cache) Len() int {
	return len(*c.table.Load())
}

// Stats returns the number of successful and failed refreshes.
func (c *Cache) Stats() (refreshes, failures uint64) {
	return c.refreshes.Load(), c.failures.Load()
}
