package flowaggregator

import (
	"NetSpike/internal/model"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func record(src, dst, proto, app string, length int) *model.PacketRecord {
	return &model.PacketRecord{Source: src, Dest: dst, Protocol: proto, App: app, Length: length}
}

func TestFlowTable_OrderIndependent(t *testing.T) {
	recs := []*model.PacketRecord{
		record("10.0.0.1", "1.1.1.1", "DNS", "resolved", 80),
		record("10.0.0.1", "1.1.1.1", "DNS", "resolved", 120),
		record("10.0.0.1", "93.184.216.34", "HTTPS", "firefox", 1500),
		record("10.0.0.1", "93.184.216.34", "HTTPS", "firefox", 60),
		record("10.0.0.1", "93.184.216.34", "HTTPS", "curl", 700),
	}

	want := map[model.FlowKey]uint64{}
	for _, r := range recs {
		want[r.Key()] += uint64(r.Length)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		perm := rng.Perm(len(recs))
		table := NewFlowTable()
		for _, i := range perm {
			table.Add(recs[i].Key(), recs[i].Length)
		}
		if table.Len() != len(want) {
			t.Fatalf("Trial %d: expected %d flows, got %d", trial, len(want), table.Len())
		}
		for key, bytes := range want {
			flow, ok := table.Get(key)
			if !ok || flow.ByteCount != bytes {
				t.Errorf("Trial %d: %s expected %d bytes, got %d", trial, key, bytes, flow.ByteCount)
			}
		}
		if table.TotalBytes() != 2460 {
			t.Errorf("Trial %d: expected total 2460, got %d", trial, table.TotalBytes())
		}
	}
}

func TestFlowTable_SortedAndFiltered(t *testing.T) {
	table := NewFlowTable()
	table.Add(model.FlowKey{Source: "a", Dest: "b", Protocol: "DNS", App: "resolved"}, 100)
	table.Add(model.FlowKey{Source: "a", Dest: "c", Protocol: "HTTPS", App: "Firefox"}, 900)
	table.Add(model.FlowKey{Source: "a", Dest: "d", Protocol: "HTTPS", App: "curl"}, 100)

	sorted := table.Sorted("")
	if len(sorted) != 3 || sorted[0].ByteCount != 900 {
		t.Fatalf("Expected largest flow first, got %+v", sorted)
	}
	// Equal byte counts fall back to key text.
	if sorted[1].Key.App != "curl" || sorted[2].Key.App != "resolved" {
		t.Errorf("Unexpected tie order: %+v", sorted[1:])
	}

	filtered := table.Sorted("FIREFOX")
	if len(filtered) != 1 || filtered[0].Key.Dest != "c" {
		t.Errorf("Expected case-insensitive app match, got %+v", filtered)
	}
	if got := table.Sorted("https"); len(got) != 2 {
		t.Errorf("Expected protocol match on 2 flows, got %d", len(got))
	}

	snap := table.Snapshot(time.Unix(100, 0))
	if snap.TotalBytes != 1100 || len(snap.Flows) != 3 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestAggregator_StartsZeroFilled(t *testing.T) {
	a := NewAggregator(5, 10, time.Second, time.Unix(0, 0))
	if got := a.History(); !reflect.DeepEqual(got, []uint64{0, 0, 0, 0, 0}) {
		t.Errorf("Expected zero-filled history, got %v", got)
	}
}

func TestAggregator_TickBuckets(t *testing.T) {
	start := time.Unix(1000, 0)
	a := NewAggregator(4, 10, time.Second, start)

	a.Apply(record("s", "d", "DNS", "x", 10))
	if n := a.Tick(start.Add(500 * time.Millisecond)); n != 0 {
		t.Fatalf("Expected no bucket before a full interval, got %d", n)
	}
	a.Apply(record("s", "d", "DNS", "x", 5))
	if n := a.Tick(start.Add(1100 * time.Millisecond)); n != 1 {
		t.Fatalf("Expected 1 bucket, got %d", n)
	}
	if a.LastBucket() != 15 {
		t.Errorf("Expected bucket of 15, got %d", a.LastBucket())
	}

	// Three silent intervals elapse before the next tick.
	a.Apply(record("s", "d", "DNS", "x", 40))
	if n := a.Tick(start.Add(4200 * time.Millisecond)); n != 3 {
		t.Fatalf("Expected 3 buckets, got %d", n)
	}
	if got := a.History(); !reflect.DeepEqual(got, []uint64{15, 40, 0, 0}) {
		t.Errorf("Expected [15 40 0 0], got %v", got)
	}
	if a.Current() != 0 {
		t.Errorf("Expected the open interval to be reset")
	}

	// Interval boundaries do not drift with late ticks.
	if n := a.Tick(start.Add(5 * time.Second)); n != 1 {
		t.Errorf("Expected boundary at 5s to close one bucket, got %d", n)
	}
}

func TestAggregator_LongGap(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAggregator(3, 10, time.Second, start)
	a.Apply(record("s", "d", "DNS", "x", 7))
	a.Tick(start.Add(time.Hour))
	if got := a.History(); !reflect.DeepEqual(got, []uint64{0, 0, 0}) {
		t.Errorf("Expected the old bucket to be evicted, got %v", got)
	}
	a.Apply(record("s", "d", "DNS", "x", 9))
	a.Tick(start.Add(time.Hour + time.Second))
	if a.LastBucket() != 9 {
		t.Errorf("Expected ticking to resume on the hour boundary, got %d", a.LastBucket())
	}
}

func TestAggregator_WindowSum(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAggregator(200, 1000, time.Second, start)
	var total uint64
	for sec := 1; sec <= 250; sec++ {
		a.Apply(record("s", "d", "DNS", "x", sec))
		total += uint64(sec)
		a.Tick(start.Add(time.Duration(sec) * time.Second))
	}
	var want uint64
	for sec := 51; sec <= 250; sec++ {
		want += uint64(sec)
	}
	var got uint64
	for _, v := range a.History() {
		got += v
	}
	if got != want {
		t.Errorf("Expected window sum %d, got %d", want, got)
	}
	if a.Flows().TotalBytes() != total {
		t.Errorf("Expected flow total %d, got %d", total, a.Flows().TotalBytes())
	}
}

func TestAggregator_ClearKeepsHistory(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAggregator(3, 2, time.Second, start)
	a.Apply(record("s", "d", "DNS", "x", 10))
	a.Apply(record("s", "d", "DNS", "y", 20))
	a.Apply(record("s", "d", "DNS", "z", 30))
	if a.Records().Len() != 2 {
		t.Fatalf("Expected record buffer capped at 2, got %d", a.Records().Len())
	}
	a.Tick(start.Add(time.Second))

	a.Clear()
	if a.Records().Len() != 0 || a.Flows().Len() != 0 {
		t.Errorf("Expected records and flows to be cleared")
	}
	if got := a.History(); !reflect.DeepEqual(got, []uint64{0, 0, 60}) {
		t.Errorf("Expected history to survive clear, got %v", got)
	}
}
