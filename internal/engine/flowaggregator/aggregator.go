package flowaggregator

import (
	"NetSpike/internal/engine/ring"
	"NetSpike/internal/model"
	"time"
)

// Aggregator owns the consumer-side traffic state: the flow table, the
// recent record buffer and the per-interval throughput history.
type Aggregator struct {
	flows   *FlowTable
	records *ring.Ring[*model.PacketRecord]
	history *ring.Ring[uint64]

	interval time.Duration
	lastTick time.Time
	current  uint64

	packets uint64
}

// NewAggregator creates an aggregator whose history starts zero-filled and
// whose first interval begins at start.
func NewAggregator(historySize, bufferSize int, interval time.Duration, start time.Time) *Aggregator {
	if interval <= 0 {
		interval = time.Second
	}
	a := &Aggregator{
		flows:    NewFlowTable(),
		records:  ring.New[*model.PacketRecord](bufferSize),
		history:  ring.New[uint64](historySize),
		interval: interval,
		lastTick: start,
	}
	for i := 0; i < a.history.Cap(); i++ {
		a.history.Push(0)
	}
	return a
}

// Apply folds one record into the flow table, the running interval and the
// record buffer.
func (a *Aggregator) Apply(rec *model.PacketRecord) {
	a.flows.Add(rec.Key(), rec.Length)
	a.current += uint64(rec.Length)
	a.records.Push(rec)
	a.packets++
}

// Tick closes every full interval elapsed since the last tick. The first
// closed interval carries the running total; any further ones are zero.
// It returns the number of buckets pushed.
func (a *Aggregator) Tick(now time.Time) int {
	elapsed := now.Sub(a.lastTick)
	if elapsed < a.interval {
		return 0
	}
	n := int(elapsed / a.interval)
	a.lastTick = a.lastTick.Add(time.Duration(n) * a.interval)

	a.history.Push(a.current)
	a.current = 0
	// Beyond capacity the older zeros would be evicted anyway.
	zeros := min(n-1, a.history.Cap())
	for i := 0; i < zeros; i++ {
		a.history.Push(0)
	}
	return n
}

// Clear empties the flow table and the record buffer. History is kept.
func (a *Aggregator) Clear() {
	a.flows.Reset()
	a.records.Clear()
}

// Flows returns the live flow table.
func (a *Aggregator) Flows() *FlowTable { return a.flows }

// Records returns the live record buffer, oldest first.
func (a *Aggregator) Records() *ring.Ring[*model.PacketRecord] { return a.records }

// History copies the throughput history, oldest first.
func (a *Aggregator) History() []uint64 { return a.history.Snapshot() }

// LastBucket returns the newest completed interval total.
func (a *Aggregator) LastBucket() uint64 {
	v, _ := a.history.Newest()
	return v
}

// Current returns the bytes accumulated in the open interval.
func (a *Aggregator) Current() uint64 { return a.current }

// Packets returns the number of records applied since start.
func (a *Aggregator) Packets() uint64 { return a.packets }

// Interval returns the bucket width.
func (a *Aggregator) Interval() time.Duration { return a.interval }
