// Package inspector maps a frozen throughput bucket back to the records
// captured during that interval.
package inspector

import (
	"NetSpike/internal/model"
	"time"
)

// NoApp is reported as the dominant application of an empty bucket.
const NoApp = "None"

// State is the inspector mode.
type State int

const (
	Live State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "PAUSED"
	}
	return "LIVE"
}

// Result describes one correlated bucket.
type Result struct {
	Index      int    `json:"index"`
	SecondsAgo int    `json:"seconds_ago"`
	Bucket     uint64 `json:"bucket"`
	TotalBytes uint64 `json:"total_bytes"`
	Packets    int    `json:"packets"`
	TopApp     string `json:"top_app"`
}

// Inspector holds the frozen history and the selection while paused. It is
// owned by the consumer goroutine.
type Inspector struct {
	interval time.Duration

	state    State
	frozen   []uint64
	pausedAt time.Time
	selected int
}

// New creates a live inspector for buckets of the given width.
func New(interval time.Duration) *Inspector {
	if interval <= 0 {
		interval = time.Second
	}
	return &Inspector{interval: interval, selected: -1}
}

// State returns the current mode.
func (in *Inspector) State() State { return in.state }

// Pause freezes history as of now and selects the newest bucket. Pausing
// twice keeps the first snapshot.
func (in *Inspector) Pause(history []uint64, now time.Time) {
	if in.state == Paused {
		return
	}
	in.state = Paused
	in.frozen = append([]uint64(nil), history...)
	in.pausedAt = now
	in.selected = len(in.frozen) - 1
}

// Resume drops the snapshot and the selection.
func (in *Inspector) Resume() {
	in.state = Live
	in.frozen = nil
	in.pausedAt = time.Time{}
	in.selected = -1
}

// Toggle switches between live and paused and returns the new state.
func (in *Inspector) Toggle(history []uint64, now time.Time) State {
	if in.state == Paused {
		in.Resume()
	} else {
		in.Pause(history, now)
	}
	return in.state
}

// ScrubLeft moves the selection one bucket older, stopping at 0.
func (in *Inspector) ScrubLeft() {
	if in.state == Paused && in.selected > 0 {
		in.selected--
	}
}

// ScrubRight moves the selection one bucket newer, stopping at the newest.
func (in *Inspector) ScrubRight() {
	if in.state == Paused && in.selected < len(in.frozen)-1 {
		in.selected++
	}
}

// Selected returns the selected index while paused.
func (in *Inspector) Selected() (int, bool) {
	if in.state != Paused || in.selected < 0 {
		return 0, false
	}
	return in.selected, true
}

// Frozen returns the history captured at pause time.
func (in *Inspector) Frozen() []uint64 { return in.frozen }

// PausedAt returns the pause instant.
func (in *Inspector) PausedAt() time.Time { return in.pausedAt }

// Inspect correlates the selected bucket with records. It reports false
// while live.
func (in *Inspector) Inspect(records []*model.PacketRecord) (Result, bool) {
	idx, ok := in.Selected()
	if !ok {
		return Result{}, false
	}
	return Correlate(in.frozen, idx, in.pausedAt, in.interval, records), true
}

// Correlate selects the records whose age at pausedAt falls into bucket
// index of history: a record belongs to bucket len-1-k when it is k whole
// intervals old. Records newer than pausedAt are ignored.
func Correlate(history []uint64, index int, pausedAt time.Time, interval time.Duration, records []*model.PacketRecord) Result {
	res := Result{
		Index:      index,
		SecondsAgo: len(history) - 1 - index,
		TopApp:     NoApp,
	}
	if index >= 0 && index < len(history) {
		res.Bucket = history[index]
	}

	want := int64(res.SecondsAgo)
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if rec.Timestamp.After(pausedAt) {
			continue
		}
		if int64(pausedAt.Sub(rec.Timestamp)/interval) != want {
			continue
		}
		res.Packets++
		res.TotalBytes += uint64(rec.Length)
		if counts[rec.App] == 0 {
			order = append(order, rec.App)
		}
		counts[rec.App]++
	}

	best := 0
	for _, app := range order {
		if counts[app] > best {
			best = counts[app]
			res.TopApp = app
		}
	}
	return res
}
