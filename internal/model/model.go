package model

import (
	"fmt"
	"time"
)

// UnknownApp is the attribution placeholder used when no owning process is found.
const UnknownApp = "Unknown"

// PacketRecord is the classified, display-ready form of one captured frame.
// A record is never modified after the classifier returns it.
type PacketRecord struct {
	// Timestamp carries a monotonic clock reading and is only used for
	// elapsed-time arithmetic. TimeLabel is the wall-clock HH:MM:SS label.
	Timestamp time.Time
	TimeLabel string

	Summary  string
	Details  string
	HexDump  string
	App      string
	Source   string
	Dest     string
	Protocol string
	Length   int
}

// FlowKey identifies a directional traffic aggregate.
type FlowKey struct {
	Source   string
	Dest     string
	Protocol string
	App      string
}

// Key returns the flow key the record aggregates into.
func (r *PacketRecord) Key() FlowKey {
	return FlowKey{
		Source:   r.Source,
		Dest:     r.Dest,
		Protocol: r.Protocol,
		App:      r.App,
	}
}

// String renders the key as "app src -> dst proto".
func (k FlowKey) String() string {
	return fmt.Sprintf("%s %s -> %s %s", k.App, k.Source, k.Dest, k.Protocol)
}

// Flow is a flow key together with its cumulative counters.
type Flow struct {
	Key         FlowKey
	ByteCount   uint64
	PacketCount uint64
}

// FlowSnapshot is a point-in-time copy of the flow table, ordered by
// descending byte count.
type FlowSnapshot struct {
	Timestamp  time.Time
	Flows      []Flow
	TotalBytes uint64
}
