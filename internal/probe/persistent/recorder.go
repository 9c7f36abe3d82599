package persistent

import (
	"NetSpike/internal/config"
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Recorder appends raw frames to a pcap file while active. Recording is
// switched on and off at runtime; every start opens a new file.
type Recorder struct {
	mu sync.Mutex

	dir      string
	snaplen  uint32
	linkType layers.LinkType
	now      func() time.Time

	file    *os.File
	buf     *bufio.Writer
	writer  *pcapgo.Writer
	path    string
	written uint64
}

// NewRecorder creates an inactive recorder writing frames of the given link type.
func NewRecorder(cfg config.PersistenceConfig, linkType layers.LinkType) *Recorder {
	return &Recorder{
		dir:      cfg.Path,
		snaplen:  cfg.SnapshotLen,
		linkType: linkType,
		now:      time.Now,
	}
}

// FileName returns the capture file name for a recording started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("netspike_%s.pcap", t.Format("2006-01-02_15-04-05"))
}

// Start opens a new capture file. Starting an active recorder is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked()
}

func (r *Recorder) startLocked() error {
	if r.file != nil {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create persistence directory: %w", err)
	}
	path := filepath.Join(r.dir, FileName(r.now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	buf := bufio.NewWriter(file)
	writer := pcapgo.NewWriter(buf)
	if err := writer.WriteFileHeader(r.snaplen, r.linkType); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	r.file, r.buf, r.writer, r.path = file, buf, writer, path
	r.written = 0
	return nil
}

// Stop flushes and closes the current file.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if r.file == nil {
		return nil
	}
	flushErr := r.buf.Flush()
	closeErr := r.file.Close()
	log.Printf("Recorder closed %s after %d frames.", r.path, r.written)
	r.file, r.buf, r.writer = nil, nil, nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush capture file: %w", flushErr)
	}
	return closeErr
}

// Toggle starts or stops recording and returns the new state. A failed
// start leaves recording off.
func (r *Recorder) Toggle() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return false, r.stopLocked()
	}
	if err := r.startLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Active reports whether frames are being recorded.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

// Path returns the current or most recent capture file.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Written returns the number of frames in the current file.
func (r *Recorder) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Write appends one frame when active. Frames longer than the snapshot
// length are truncated. A write error disables recording.
func (r *Recorder) Write(ci gopacket.CaptureInfo, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		return
	}

	if ci.Length < len(data) {
		ci.Length = len(data)
	}
	if r.snaplen > 0 && uint32(len(data)) > r.snaplen {
		data = data[:r.snaplen]
	}
	ci.CaptureLength = len(data)
	if ci.Timestamp.IsZero() {
		ci.Timestamp = r.now()
	}

	if err := r.writer.WritePacket(ci, data); err != nil {
		log.Printf("Recorder failed to write frame, recording disabled: %v", err)
		r.stopLocked()
		return
	}
	r.written++
}
