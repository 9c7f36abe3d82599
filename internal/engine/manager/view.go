package manager

import (
	"NetSpike/internal/engine/inspector"
	"NetSpike/internal/model"
	"fmt"
	"strings"

	"github.com/docker/go-units"
)

// Consumer status values.
const (
	StatusLive    = "LIVE"
	StatusPaused  = "PAUSED"
	StatusStalled = "STALLED"
)

// View is a read-only copy of everything the render surface shows.
type View struct {
	Status string
	Tab    string
	Filter string

	// Records are the filtered buffer contents, oldest first.
	Records []*model.PacketRecord
	// Flows are the filtered flows, largest first.
	Flows []model.Flow
	// History is the frozen snapshot while paused, the live ring otherwise.
	History []uint64

	Selection  int
	Inspection *inspector.Result
	Selected   *model.PacketRecord

	Recording     bool
	RecordingPath string

	Pending    int
	Applied    uint64
	LastBucket uint64
	TotalBytes uint64
	Interval   string
}

// MatchRecord reports whether rec passes a case-insensitive filter on its
// summary and application.
func MatchRecord(rec *model.PacketRecord, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(rec.Summary), f) ||
		strings.Contains(strings.ToLower(rec.App), f)
}

func (m *Manager) filteredRecords() []*model.PacketRecord {
	var out []*model.PacketRecord
	m.agg.Records().Do(func(_ int, rec *model.PacketRecord) {
		if MatchRecord(rec, m.filter) {
			out = append(out, rec)
		}
	})
	return out
}

func (m *Manager) status() string {
	switch {
	case m.insp.State() == inspector.Paused:
		return StatusPaused
	case m.queue.Finished():
		return StatusStalled
	default:
		return StatusLive
	}
}

func (m *Manager) view() *View {
	v := &View{
		Status:     m.status(),
		Tab:        m.tab.String(),
		Filter:     m.filter,
		Records:    m.filteredRecords(),
		Flows:      m.agg.Flows().Sorted(m.filter),
		Selection:  -1,
		Selected:   m.selected,
		Pending:    m.queue.Len(),
		Applied:    m.agg.Packets(),
		LastBucket: m.agg.LastBucket(),
		TotalBytes: m.agg.Flows().TotalBytes(),
		Interval:   m.agg.Interval().String(),
	}

	if m.insp.State() == inspector.Paused {
		v.History = append([]uint64(nil), m.insp.Frozen()...)
		all := m.agg.Records().Snapshot()
		if res, ok := m.insp.Inspect(all); ok {
			v.Selection = res.Index
			v.Inspection = &res
		}
	} else {
		v.History = m.agg.History()
	}

	if m.recorder != nil {
		v.Recording = m.recorder.Active()
		v.RecordingPath = m.recorder.Path()
	}
	return v
}

// StatusLine renders the one-line summary logged periodically.
func (v *View) StatusLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status=%s last=%s/%s total=%s packets=%d flows=%d pending=%d",
		v.Status, units.BytesSize(float64(v.LastBucket)), v.Interval,
		units.BytesSize(float64(v.TotalBytes)), v.Applied, len(v.Flows), v.Pending)
	if len(v.Flows) > 0 {
		top := v.Flows[0]
		fmt.Fprintf(&b, " top=%q(%s)", top.Key.String(), units.BytesSize(float64(top.ByteCount)))
	}
	if v.Recording {
		fmt.Fprintf(&b, " recording=%s", v.RecordingPath)
	}
	return b.String()
}
