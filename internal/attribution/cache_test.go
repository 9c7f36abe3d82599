package attribution

import (
	"NetSpike/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSource struct {
	mu    sync.Mutex
	table map[uint16]string
	err   error
	calls int
}

func (f *fakeSource) Snapshot(context.Context) (map[uint16]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint16]string, len(f.table))
	for k, v := range f.table {
		out[k] = v
	}
	return out, nil
}

func TestCache_ResolveOrder(t *testing.T) {
	src := &fakeSource{table: map[uint16]string{
		51000: "firefox",
		443:   "nginx",
	}}
	c := NewCache(src)

	if got := c.Resolve(51000, 443); got != model.UnknownApp {
		t.Errorf("Expected unknown before the first refresh, got %q", got)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := c.Resolve(51000, 443); got != "firefox" {
		t.Errorf("Expected source port to win, got %q", got)
	}
	if got := c.Resolve(60000, 443); got != "nginx" {
		t.Errorf("Expected fallback to destination port, got %q", got)
	}
	if got := c.Resolve(1, 2); got != model.UnknownApp {
		t.Errorf("Expected unknown, got %q", got)
	}
	if got := c.Resolve(0, 0); got != model.UnknownApp {
		t.Errorf("Expected port 0 to never match, got %q", got)
	}
	if got := c.ResolvePort(443); got != "nginx" {
		t.Errorf("Expected nginx for port 443, got %q", got)
	}
}

func TestCache_RefreshIdempotent(t *testing.T) {
	src := &fakeSource{table: map[uint16]string{22: "sshd"}}
	c := NewCache(src)

	for i := 0; i < 3; i++ {
		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh %d failed: %v", i, err)
		}
		if c.Len() != 1 || c.Resolve(22, 0) != "sshd" {
			t.Fatalf("Refresh %d changed the table", i)
		}
	}
	if refreshes, failures := c.Stats(); refreshes != 3 || failures != 0 {
		t.Errorf("Expected 3/0 refreshes, got %d/%d", refreshes, failures)
	}
}

func TestCache_FailedRefreshKeepsTable(t *testing.T) {
	src := &fakeSource{table: map[uint16]string{22: "sshd"}}
	c := NewCache(src)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	src.mu.Lock()
	src.err = errors.New("procfs unavailable")
	src.mu.Unlock()

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatalf("Expected refresh error")
	}
	if got := c.Resolve(22, 0); got != "sshd" {
		t.Errorf("Expected previous table to survive, got %q", got)
	}
	if _, failures := c.Stats(); failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
}

func TestCache_ConcurrentRefreshAndResolve(t *testing.T) {
	a := map[uint16]string{1000: "a", 2000: "a"}
	src := &fakeSource{table: a}
	c := NewCache(src)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			src.mu.Lock()
			if i%2 == 0 {
				src.table = map[uint16]string{1000: "b", 2000: "b"}
			} else {
				src.table = map[uint16]string{1000: "a", 2000: "a"}
			}
			src.mu.Unlock()
			_ = c.Refresh(context.Background())
		}
	}()

	// Both ports always come from the same table.
	for i := 0; i < 10000; i++ {
		table := *c.table.Load()
		if table[1000] != table[2000] {
			t.Fatalf("Observed a mixed table: %v", table)
		}
		_ = c.Resolve(1000, 2000)
	}
	close(stop)
	wg.Wait()
}
