package snapshot

import (
	"NetSpike/internal/model"
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
)

// DirLayout is the timestamp format of per-snapshot directories.
const DirLayout = "2006-01-02_15-04-05"

// TextWriter writes a human-readable flow listing.
type TextWriter struct {
	rootPath string
	interval time.Duration
}

// NewTextWriter creates a new text writer.
func NewTextWriter(rootPath string, interval time.Duration) model.Writer {
	return &TextWriter{rootPath: rootPath, interval: interval}
}

func (w *TextWriter) GetInterval() time.Duration {
	return w.interval
}

func (w *TextWriter) Name() string { return "text" }

func (w *TextWriter) Write(snapshot *model.FlowSnapshot) error {
	dir := filepath.Join(w.rootPath, snapshot.Timestamp.Format(DirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(dir, "flows.txt")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	fmt.Fprintf(buf, "# %d flows, %s total\n", len(snapshot.Flows), units.BytesSize(float64(snapshot.TotalBytes)))
	for _, flow := range snapshot.Flows {
		fmt.Fprintf(buf, "%s %d %d\n", flow.Key, flow.ByteCount, flow.PacketCount)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write flows to file: %w", err)
	}

	log.Printf("Successfully wrote %d flows to %s", len(snapshot.Flows), filePath)
	return nil
}
