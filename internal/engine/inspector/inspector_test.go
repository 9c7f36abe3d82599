package inspector

import (
	"NetSpike/internal/model"
	"testing"
	"time"
)

func at(pause time.Time, ago time.Duration, app string, length int) *model.PacketRecord {
	return &model.PacketRecord{Timestamp: pause.Add(-ago), App: app, Length: length}
}

func TestInspector_SpikeScenario(t *testing.T) {
	pause := time.Now()
	history := []uint64{10, 0, 40, 5}
	records := []*model.PacketRecord{
		at(pause, 3500*time.Millisecond, "ntpd", 10),
		at(pause, 1900*time.Millisecond, "firefox", 15),
		at(pause, 1500*time.Millisecond, "curl", 10),
		at(pause, 1200*time.Millisecond, "firefox", 15),
		at(pause, 300*time.Millisecond, "sshd", 5),
	}

	in := New(time.Second)
	in.Pause(history, pause)

	idx, ok := in.Selected()
	if !ok || idx != 3 {
		t.Fatalf("Expected newest bucket selected, got %d %v", idx, ok)
	}

	in.ScrubLeft()
	res, ok := in.Inspect(records)
	if !ok {
		t.Fatalf("Expected a result while paused")
	}
	if res.Index != 2 || res.SecondsAgo != 1 {
		t.Errorf("Expected index 2 one interval ago, got %+v", res)
	}
	if res.Bucket != 40 || res.TotalBytes != 40 || res.Packets != 3 {
		t.Errorf("Expected bucket 40 with 3 packets totalling 40, got %+v", res)
	}
	if res.TopApp != "firefox" {
		t.Errorf("Expected firefox to dominate, got %q", res.TopApp)
	}

	in.ScrubLeft()
	res, _ = in.Inspect(records)
	if res.Packets != 0 || res.TopApp != NoApp {
		t.Errorf("Expected an empty bucket, got %+v", res)
	}
}

func TestInspector_ScrubClamps(t *testing.T) {
	in := New(time.Second)
	in.Pause([]uint64{1, 2, 3}, time.Now())

	for i := 0; i < 10; i++ {
		in.ScrubRight()
	}
	if idx, _ := in.Selected(); idx != 2 {
		t.Errorf("Expected clamp at 2, got %d", idx)
	}
	for i := 0; i < 10; i++ {
		in.ScrubLeft()
	}
	if idx, _ := in.Selected(); idx != 0 {
		t.Errorf("Expected clamp at 0, got %d", idx)
	}
}

func TestInspector_FrozenHistory(t *testing.T) {
	history := []uint64{1, 2, 3}
	in := New(time.Second)
	in.Pause(history, time.Now())
	history[2] = 99
	if in.Frozen()[2] != 3 {
		t.Errorf("Expected the snapshot to be a copy")
	}

	in.Pause([]uint64{7, 7, 7}, time.Now())
	if in.Frozen()[0] != 1 {
		t.Errorf("Expected a second pause to keep the first snapshot")
	}
}

func TestInspector_ResumeDropsSelection(t *testing.T) {
	in := New(time.Second)
	if s := in.Toggle([]uint64{1}, time.Now()); s != Paused {
		t.Fatalf("Expected paused, got %s", s)
	}
	if s := in.Toggle(nil, time.Now()); s != Live {
		t.Fatalf("Expected live, got %s", s)
	}
	if _, ok := in.Selected(); ok {
		t.Errorf("Expected no selection while live")
	}
	if _, ok := in.Inspect(nil); ok {
		t.Errorf("Expected no result while live")
	}
	in.ScrubLeft()
	if in.Frozen() != nil {
		t.Errorf("Expected no snapshot while live")
	}
}

func TestCorrelate_TieKeepsFirstSeen(t *testing.T) {
	pause := time.Now()
	records := []*model.PacketRecord{
		at(pause, 100*time.Millisecond, "b", 1),
		at(pause, 200*time.Millisecond, "a", 1),
		at(pause, 300*time.Millisecond, "a", 1),
		at(pause, 400*time.Millisecond, "b", 1),
	}
	res := Correlate([]uint64{4}, 0, pause, time.Second, records)
	if res.TopApp != "b" {
		t.Errorf("Expected first-seen app to win the tie, got %q", res.TopApp)
	}
}

func TestCorrelate_IgnoresFutureAndBoundaries(t *testing.T) {
	pause := time.Now()
	records := []*model.PacketRecord{
		at(pause, -time.Second, "future", 100),
		at(pause, 0, "edge", 1),
		at(pause, time.Second, "older", 2),
	}
	res := Correlate([]uint64{0, 0}, 1, pause, time.Second, records)
	if res.Packets != 1 || res.TopApp != "edge" {
		t.Errorf("Expected only the record at the pause instant, got %+v", res)
	}
	res = Correlate([]uint64{0, 0}, 0, pause, time.Second, records)
	if res.Packets != 1 || res.TopApp != "older" {
		t.Errorf("Expected a record exactly one interval old in the previous bucket, got %+v", res)
	}
}
