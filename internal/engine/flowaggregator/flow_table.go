package flowaggregator

import (
	"NetSpike/internal/model"
	"sort"
	"strings"
	"time"
)

type counters struct {
	bytes   uint64
	packets uint64
}

// FlowTable accumulates bytes per flow key. It is owned by a single
// goroutine and does no locking.
type FlowTable struct {
	flows map[model.FlowKey]*counters
	total uint64
}

// NewFlowTable creates an empty table.
func NewFlowTable() *FlowTable {
	return &FlowTable{flows: make(map[model.FlowKey]*counters)}
}

// Add credits length bytes and one packet to key.
func (t *FlowTable) Add(key model.FlowKey, length int) {
	c, ok := t.flows[key]
	if !ok {
		c = &counters{}
		t.flows[key] = c
	}
	c.bytes += uint64(length)
	c.packets++
	t.total += uint64(length)
}

// Get returns the flow for key.
func (t *FlowTable) Get(key model.FlowKey) (model.Flow, bool) {
	c, ok := t.flows[key]
	if !ok {
		return model.Flow{}, false
	}
	return model.Flow{Key: key, ByteCount: c.bytes, PacketCount: c.packets}, true
}

// Len returns the number of distinct flows.
func (t *FlowTable) Len() int { return len(t.flows) }

// TotalBytes returns the bytes credited since the last Reset.
func (t *FlowTable) TotalBytes() uint64 { return t.total }

// Sorted returns the flows matching filter, largest first. Equal byte counts
// are ordered by key text so the listing is stable. The filter is a
// case-insensitive substring matched against every key field.
func (t *FlowTable) Sorted(filter string) []model.Flow {
	filter = strings.ToLower(filter)
	out := make([]model.Flow, 0, len(t.flows))
	for key, c := range t.flows {
		if filter != "" && !matchKey(key, filter) {
			continue
		}
		out = append(out, model.Flow{Key: key, ByteCount: c.bytes, PacketCount: c.packets})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ByteCount != out[j].ByteCount {
			return out[i].ByteCount > out[j].ByteCount
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Snapshot copies the whole table for export.
func (t *FlowTable) Snapshot(at time.Time) *model.FlowSnapshot {
	return &model.FlowSnapshot{
		Timestamp:  at,
		Flows:      t.Sorted(""),
		TotalBytes: t.total,
	}
}

// Reset drops every flow.
func (t *FlowTable) Reset() {
	t.flows = make(map[model.FlowKey]*counters)
	t.total = 0
}

func matchKey(key model.FlowKey, lowered string) bool {
	for _, field := range []string{key.Source, key.Dest, key.Protocol, key.App} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}
