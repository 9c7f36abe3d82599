package snapshot

import (
	"NetSpike/internal/model"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron"
)

// SnapshotFunc fetches a copy of the flow table.
type SnapshotFunc func(ctx context.Context) (*model.FlowSnapshot, error)

// Exporter writes flow snapshots on each writer's own schedule.
type Exporter struct {
	crontab *cron.Cron
	writers []model.Writer
	fetch   SnapshotFunc
	timeout time.Duration
}

// NewExporter creates an exporter for writers.
func NewExporter(writers []model.Writer, fetch SnapshotFunc) *Exporter {
	return &Exporter{
		crontab: cron.New(),
		writers: writers,
		fetch:   fetch,
		timeout: 5 * time.Second,
	}
}

// Start schedules every writer at "@every <interval>".
func (e *Exporter) Start() error {
	for _, w := range e.writers {
		w := w
		interval := w.GetInterval()
		if interval <= 0 {
			log.Printf("Invalid interval %s for writer %s, it will not run.", interval, w.Name())
			continue
		}
		if err := e.crontab.AddFunc(fmt.Sprintf("@every %s", interval), func() {
			if err := e.Export(w); err != nil {
				log.Printf("Error exporting flows with writer %s: %v", w.Name(), err)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule writer %s: %w", w.Name(), err)
		}
		log.Printf("Scheduled %s writer every %s.", w.Name(), interval)
	}
	e.crontab.Start()
	return nil
}

// Export takes one snapshot and hands it to w.
func (e *Exporter) Export(w model.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	snap, err := e.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to take flow snapshot: %w", err)
	}
	return w.Write(snap)
}

// Stop halts the schedule and gives every writer one final snapshot when
// final is set.
func (e *Exporter) Stop(final bool) {
	e.crontab.Stop()
	for _, w := range e.writers {
		if final {
			if err := e.Export(w); err != nil {
				log.Printf("Error writing final snapshot with writer %s: %v", w.Name(), err)
			}
		}
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}
	log.Println("Exporter stopped.")
}
