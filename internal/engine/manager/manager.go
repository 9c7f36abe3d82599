package manager

import (
	"NetSpike/internal/config"
	"NetSpike/internal/engine/flowaggregator"
	"NetSpike/internal/engine/inspector"
	"NetSpike/internal/feed"
	"NetSpike/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrStopped is returned by requests made after the consumer loop exited.
var ErrStopped = errors.New("manager: stopped")

// Recorder is the runtime-toggled raw frame sink.
type Recorder interface {
	Toggle() (active bool, err error)
	Active() bool
	Path() string
}

type request struct {
	fn   func()
	done chan struct{}
}

// Manager is the consumer side of the capture pipeline. It owns the
// aggregator and the inspector; other goroutines reach that state only
// through requests executed on the consumer's own pass.
type Manager struct {
	queue     *feed.Queue
	agg       *flowaggregator.Aggregator
	insp      *inspector.Inspector
	recorder  Recorder
	observers []model.Observer

	requests chan request
	done     chan struct{}
	stopOnce sync.Once

	poll time.Duration
	now  func() time.Time

	filter   string
	tab      Tab
	selected *model.PacketRecord
	drained  []*model.PacketRecord
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the clock driving ticks and pause instants.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRecorder attaches the persistence sink the TogglePersistence intent flips.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// NewManager creates a consumer over queue sized by the monitor config.
func NewManager(cfg *config.MonitorConfig, queue *feed.Queue, opts ...Option) *Manager {
	m := &Manager{
		queue:    queue,
		requests: make(chan request, cfg.RequestCapacity),
		done:     make(chan struct{}),
		poll:     config.Duration(cfg.PollInterval),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.poll <= 0 {
		m.poll = 10 * time.Millisecond
	}
	interval := config.Duration(cfg.TickInterval)
	m.agg = flowaggregator.NewAggregator(cfg.HistorySize, cfg.BufferSize, interval, m.now())
	m.insp = inspector.New(m.agg.Interval())
	return m
}

// AddObserver registers o for every applied record. It must be called
// before Run.
func (m *Manager) AddObserver(o model.Observer) {
	m.observers = append(m.observers, o)
}

// Run polls until ctx is done. Each pass executes pending requests, drains
// the feed unless paused, then closes elapsed throughput intervals.
func (m *Manager) Run(ctx context.Context) {
	defer m.stop()
	log.Printf("Manager started, polling every %s.", m.poll)

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()
	for {
		m.Step(m.now())

		var wake <-chan struct{}
		if m.insp.State() == inspector.Live {
			wake = m.queue.Notify()
		}
		select {
		case <-ctx.Done():
			log.Println("Manager stopping...")
			return
		case req := <-m.requests:
			m.execute(req)
		case <-wake:
		case <-ticker.C:
		}
	}
}

func (m *Manager) stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.queue.Close()
		log.Println("Manager stopped.")
	})
}

// Step runs one consumer pass at now. Run calls it; tests drive it directly.
func (m *Manager) Step(now time.Time) {
	for pending := true; pending; {
		select {
		case req := <-m.requests:
			m.execute(req)
		default:
			pending = false
		}
	}

	if m.insp.State() == inspector.Live {
		m.drained = m.queue.Drain(m.drained[:0])
		for _, rec := range m.drained {
			m.agg.Apply(rec)
			for _, o := range m.observers {
				o.Observe(rec)
			}
		}
		clear(m.drained)
	}

	m.agg.Tick(now)
}

func (m *Manager) execute(req request) {
	req.fn()
	close(req.done)
}

// Do runs fn on the consumer goroutine and waits for it to finish.
func (m *Manager) Do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case m.requests <- req:
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-m.done:
		// The loop may have picked the request up just before exiting.
		select {
		case <-req.done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit applies intent on the consumer goroutine.
func (m *Manager) Submit(ctx context.Context, intent Intent) error {
	var applyErr error
	if err := m.Do(ctx, func() { applyErr = m.apply(intent, m.now()) }); err != nil {
		return err
	}
	return applyErr
}

// CurrentView returns a copy of the render state.
func (m *Manager) CurrentView(ctx context.Context) (*View, error) {
	var v *View
	if err := m.Do(ctx, func() { v = m.view() }); err != nil {
		return nil, err
	}
	return v, nil
}

// FlowSnapshot copies the flow table.
func (m *Manager) FlowSnapshot(ctx context.Context) (*model.FlowSnapshot, error) {
	var snap *model.FlowSnapshot
	if err := m.Do(ctx, func() { snap = m.agg.Flows().Snapshot(m.now()) }); err != nil {
		return nil, err
	}
	return snap, nil
}

// Metrics are the values alert rules are evaluated against.
type Metrics struct {
	BucketBytes uint64
	FlowCount   int
	TopFlow     model.Flow
}

// Metrics reads the newest completed bucket and flow table figures.
func (m *Manager) Metrics(ctx context.Context) (Metrics, error) {
	var out Metrics
	err := m.Do(ctx, func() {
		out.BucketBytes = m.agg.LastBucket()
		out.FlowCount = m.agg.Flows().Len()
		if flows := m.agg.Flows().Sorted(""); len(flows) > 0 {
			out.TopFlow = flows[0]
		}
	})
	return out, err
}

func (m *Manager) apply(intent Intent, now time.Time) error {
	switch intent.Kind {
	case TogglePause:
		state := m.insp.Toggle(m.agg.History(), now)
		log.Printf("Inspector is now %s.", state)
	case SetFilter:
		m.filter = intent.Text
	case Clear:
		m.agg.Clear()
		m.selected = nil
	case SwitchView:
		if intent.Text == "" {
			m.tab = (m.tab + 1) % 2
			return nil
		}
		tab, err := ParseTab(intent.Text)
		if err != nil {
			return err
		}
		m.tab = tab
	case ScrubLeft:
		m.insp.ScrubLeft()
	case ScrubRight:
		m.insp.ScrubRight()
	case TogglePersistence:
		if m.recorder == nil {
			return errors.New("persistence is not configured")
		}
		active, err := m.recorder.Toggle()
		if err != nil {
			log.Printf("Failed to start recording, persistence stays off: %v", err)
			return err
		}
		if active {
			log.Printf("Recording raw frames to %s", m.recorder.Path())
		} else {
			log.Println("Recording stopped.")
		}
	case SelectRecord:
		records := m.filteredRecords()
		if intent.Index < 0 || intent.Index >= len(records) {
			return fmt.Errorf("record index %d out of range [0,%d)", intent.Index, len(records))
		}
		m.selected = records[intent.Index]
	default:
		return fmt.Errorf("unsupported intent %s", intent.Kind)
	}
	return nil
}
