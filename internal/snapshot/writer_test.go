package snapshot

import (
	"NetSpike/internal/model"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func testSnapshot() *model.FlowSnapshot {
	return &model.FlowSnapshot{
		Timestamp: time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC),
		Flows: []model.Flow{
			{Key: model.FlowKey{Source: "10.0.0.1", Dest: "93.184.216.34", Protocol: "HTTPS", App: "firefox"}, ByteCount: 1500, PacketCount: 3},
			{Key: model.FlowKey{Source: "10.0.0.1", Dest: "10.0.0.53", Protocol: "DNS", App: "resolved"}, ByteCount: 80, PacketCount: 1},
		},
		TotalBytes: 1580,
	}
}

func TestTextWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewTextWriter(dir, time.Minute)
	if err := w.Write(testSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026-03-01_14-05-09", "flows.txt"))
	if err != nil {
		t.Fatalf("Failed to read flows.txt: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 flows, got %d lines", len(lines))
	}
	if lines[1] != "firefox 10.0.0.1 -> 93.184.216.34 HTTPS 1500 3" {
		t.Errorf("Unexpected flow line %q", lines[1])
	}
}

func TestGobWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewGobWriter(dir, time.Minute)
	snap := testSnapshot()
	if err := w.Write(snap); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	snapDir := filepath.Join(dir, "2026-03-01_14-05-09")
	flows, err := ReadGob(filepath.Join(snapDir, "flows.gob"))
	if err != nil {
		t.Fatalf("ReadGob failed: %v", err)
	}
	if len(flows) != 2 || flows[0] != snap.Flows[0] {
		t.Errorf("Unexpected decoded flows %+v", flows)
	}

	raw, err := os.ReadFile(filepath.Join(snapDir, "summary.json"))
	if err != nil {
		t.Fatalf("summary.json was not created: %v", err)
	}
	var summary SummaryData
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.TotalFlows != 2 || summary.TotalBytes != 1580 || summary.TotalPackets != 4 {
		t.Errorf("Unexpected summary %+v", summary)
	}
}

func TestGobWriter_EmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := NewGobWriter(dir, time.Minute).Write(&model.FlowSnapshot{Timestamp: time.Now()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected nothing written for an empty snapshot")
	}
}

type recordingWriter struct {
	mu    sync.Mutex
	snaps []*model.FlowSnapshot
}

func (w *recordingWriter) Write(s *model.FlowSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snaps = append(w.snaps, s)
	return nil
}
func (w *recordingWriter) GetInterval() time.Duration { return time.Second }
func (w *recordingWriter) Name() string               { return "recording" }

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.snaps)
}

func TestExporter_ScheduleAndFinal(t *testing.T) {
	w := &recordingWriter{}
	e := NewExporter([]model.Writer{w}, func(context.Context) (*model.FlowSnapshot, error) {
		return testSnapshot(), nil
	})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for w.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if w.count() == 0 {
		t.Fatalf("Expected a scheduled export within 3s")
	}

	before := w.count()
	e.Stop(true)
	if w.count() < before+1 {
		t.Errorf("Expected a final export on stop")
	}
}

func TestExporter_FetchError(t *testing.T) {
	w := &recordingWriter{}
	e := NewExporter([]model.Writer{w}, func(context.Context) (*model.FlowSnapshot, error) {
		return nil, errors.New("consumer stopped")
	})
	if err := e.Export(w); err == nil {
		t.Fatalf("Expected the fetch error to be returned")
	}
	if w.count() != 0 {
		t.Errorf("Expected nothing written")
	}
}
