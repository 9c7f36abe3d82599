package model

import "time"

// Writer defines a generic interface for exporting flow snapshots to a store.
type Writer interface {
	// Write persists a single flow snapshot.
	Write(snapshot *FlowSnapshot) error

	// GetInterval returns the configured snapshot interval for this writer.
	GetInterval() time.Duration

	// Name identifies the writer in logs.
	Name() string
}
