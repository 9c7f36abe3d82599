package factory

import (
	"NetSpike/internal/config"
	"testing"
)

func TestCreateWriters(t *testing.T) {
	dir := t.TempDir()
	writers, err := CreateWriters(config.ExportConfig{Writers: []config.WriterDef{
		{Type: "text", Enabled: true, SnapshotInterval: "10s", RootPath: dir},
		{Type: "gob", Enabled: true, SnapshotInterval: "1m", RootPath: dir},
		{Type: "clickhouse", Enabled: false, SnapshotInterval: "1m"},
	}})
	if err != nil {
		t.Fatalf("CreateWriters failed: %v", err)
	}
	if len(writers) != 2 {
		t.Fatalf("Expected 2 enabled writers, got %d", len(writers))
	}
	if writers[0].Name() != "text" || writers[0].GetInterval().String() != "10s" {
		t.Errorf("Unexpected first writer %s/%s", writers[0].Name(), writers[0].GetInterval())
	}
	if writers[1].Name() != "gob" {
		t.Errorf("Unexpected second writer %s", writers[1].Name())
	}
}

func TestCreateWriters_UnknownType(t *testing.T) {
	_, err := CreateWriters(config.ExportConfig{Writers: []config.WriterDef{
		{Type: "parquet", Enabled: true, SnapshotInterval: "10s"},
	}})
	if err == nil {
		t.Fatalf("Expected an error for an unknown writer type")
	}
}

func TestRegisterWriter_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected a duplicate registration to panic")
		}
	}()
	RegisterWriter("text", nil)
}
