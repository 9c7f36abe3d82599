package snapshot

import (
	"NetSpike/internal/model"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryData holds the metadata for a snapshot, internal to the writer.
type SummaryData struct {
	TotalFlows   int    `json:"total_flows"`
	TotalBytes   uint64 `json:"total_bytes"`
	TotalPackets uint64 `json:"total_packets"`
	Timestamp    string `json:"timestamp"`
}

// GobWriter writes the flow list in gob format next to a JSON summary.
type GobWriter struct {
	rootPath string
	interval time.Duration
}

// NewGobWriter creates a new gob writer.
func NewGobWriter(rootPath string, interval time.Duration) model.Writer {
	return &GobWriter{rootPath: rootPath, interval: interval}
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *GobWriter) GetInterval() time.Duration {
	return w.interval
}

func (w *GobWriter) Name() string { return "gob" }

// Write stores flows.gob and summary.json under a timestamped directory.
// Empty snapshots write nothing.
func (w *GobWriter) Write(snapshot *model.FlowSnapshot) error {
	if len(snapshot.Flows) == 0 {
		return nil
	}

	dir := filepath.Join(w.rootPath, snapshot.Timestamp.Format(DirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	flowPath := filepath.Join(dir, "flows.gob")
	file, err := os.Create(flowPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", flowPath, err)
	}
	defer file.Close()
	if err := gob.NewEncoder(file).Encode(snapshot.Flows); err != nil {
		return fmt.Errorf("failed to encode flows to gob for file '%s': %w", flowPath, err)
	}

	summary := SummaryData{
		TotalFlows: len(snapshot.Flows),
		TotalBytes: snapshot.TotalBytes,
		Timestamp:  snapshot.Timestamp.UTC().Format(time.RFC3339),
	}
	for _, f := range snapshot.Flows {
		summary.TotalPackets += f.PacketCount
	}

	summaryPath := filepath.Join(dir, "summary.json")
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	encoder := json.NewEncoder(summaryFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary json: %w", err)
	}
	return nil
}

// ReadGob loads a flows.gob file written by GobWriter.
func ReadGob(path string) ([]model.Flow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var flows []model.Flow
	if err := gob.NewDecoder(file).Decode(&flows); err != nil {
		return nil, fmt.Errorf("failed to decode flows: %w", err)
	}
	return flows, nil
}
