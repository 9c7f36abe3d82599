// Package api exposes the monitor's view and controls over HTTP and its
// capture status over the gRPC health protocol.
package api

import (
	"NetSpike/internal/engine/inspector"
	"NetSpike/internal/engine/manager"
	"NetSpike/internal/model"
	"NetSpike/internal/probe"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"
)

const requestTimeout = 2 * time.Second

// Capture reports the producer's progress.
type Capture interface {
	Counters() probe.Counters
	Running() bool
}

// Server serves the read-only view and the control intents.
type Server struct {
	mgr     *manager.Manager
	capture Capture
	router  *mux.Router
}

// RecordJSON is the wire form of a packet record.
type RecordJSON struct {
	Time     string `json:"time"`
	Summary  string `json:"summary"`
	App      string `json:"app"`
	Source   string `json:"source"`
	Dest     string `json:"dest"`
	Protocol string `json:"protocol"`
	Length   int    `json:"length"`
	Details  string `json:"details,omitempty"`
	HexDump  string `json:"hex_dump,omitempty"`
}

// FlowJSON is the wire form of a flow.
type FlowJSON struct {
	App      string `json:"app"`
	Source   string `json:"source"`
	Dest     string `json:"dest"`
	Protocol string `json:"protocol"`
	Bytes    uint64 `json:"bytes"`
	Packets  uint64 `json:"packets"`
}

// StatusJSON combines the consumer status with the producer counters.
type StatusJSON struct {
	Status        string `json:"status"`
	Tab           string `json:"tab"`
	Filter        string `json:"filter"`
	Capturing     bool   `json:"capturing"`
	Frames        uint64 `json:"frames"`
	Malformed     uint64 `json:"malformed"`
	Noise         uint64 `json:"noise"`
	Delivered     uint64 `json:"delivered"`
	Applied       uint64 `json:"applied"`
	Pending       int    `json:"pending"`
	LastBucket    uint64 `json:"last_bucket"`
	TotalBytes    uint64 `json:"total_bytes"`
	Recording     bool   `json:"recording"`
	RecordingPath string `json:"recording_path,omitempty"`
	Line          string `json:"line"`
}

// ThroughputJSON is the bucket ring, oldest first.
type ThroughputJSON struct {
	Interval string   `json:"interval"`
	Buckets  []uint64 `json:"buckets"`
	Frozen   bool     `json:"frozen"`
}

// ViewJSON is everything a render surface needs in one document.
type ViewJSON struct {
	StatusJSON
	Records    []RecordJSON      `json:"records"`
	Flows      []FlowJSON        `json:"flows"`
	Throughput ThroughputJSON    `json:"throughput"`
	Selection  int               `json:"selection"`
	Inspection *inspector.Result `json:"inspection,omitempty"`
	Selected   *RecordJSON       `json:"selected,omitempty"`
}

// NewServer creates the HTTP handler over mgr. capture may be nil.
func NewServer(mgr *manager.Manager, capture Capture) *Server {
	s := &Server{mgr: mgr, capture: capture, router: mux.NewRouter()}
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/{index}", s.handleRecord).Methods(http.MethodGet)
	api.HandleFunc("/flows", s.handleFlows).Methods(http.MethodGet)
	api.HandleFunc("/throughput", s.handleThroughput).Methods(http.MethodGet)
	api.HandleFunc("/inspector", s.handleInspector).Methods(http.MethodGet)
	api.HandleFunc("/control/{action}", s.handleControl).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) currentView(w http.ResponseWriter, r *http.Request) (*manager.View, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	v, err := s.mgr.CurrentView(ctx)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return v, true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.currentView(w, r)
	if !ok {
		return
	}
	out := ViewJSON{
		StatusJSON: s.status(v),
		Records:    records(v.Records, false),
		Flows:      flows(v.Flows),
		Throughput: throughput(v),
		Selection:  v.Selection,
		Inspection: v.Inspection,
	}
	if v.Selected != nil {
		sel := record(v.Selected, true)
		out.Selected = &sel
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.currentView(w, r); ok {
		writeJSON(w, http.StatusOK, s.status(v))
	}
}

// handleRecords returns the newest filtered records, oldest first. limit=0
// or a missing limit returns all of them.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := cast.ToIntE(queryDefault(r, "limit", "0"))
	if err != nil || limit < 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	v, ok := s.currentView(w, r)
	if !ok {
		return
	}
	recs := v.Records
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	writeJSON(w, http.StatusOK, records(recs, false))
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	index, err := cast.ToIntE(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	v, ok := s.currentView(w, r)
	if !ok {
		return
	}
	if index < 0 || index >= len(v.Records) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record(v.Records[index], true))
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	limit, err := cast.ToIntE(queryDefault(r, "limit", "0"))
	if err != nil || limit < 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	v, ok := s.currentView(w, r)
	if !ok {
		return
	}
	fs := v.Flows
	if limit > 0 && len(fs) > limit {
		fs = fs[:limit]
	}
	writeJSON(w, http.StatusOK, flows(fs))
}

func (s *Server) handleThroughput(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.currentView(w, r); ok {
		writeJSON(w, http.StatusOK, throughput(v))
	}
}

func (s *Server) handleInspector(w http.ResponseWriter, r *http.Request) {
	v, ok := s.currentView(w, r)
	if !ok {
		return
	}
	if v.Inspection == nil {
		http.Error(w, "inspector is live", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, v.Inspection)
}

// handleControl maps /control/{action} onto an intent. The filter text or
// view name comes from the "text" parameter, the record position from "index".
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	kind, err := manager.ParseIntentKind(mux.Vars(r)["action"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	intent := manager.Intent{Kind: kind, Text: r.Form.Get("text")}
	if kind == manager.SelectRecord {
		if intent.Index, err = cast.ToIntE(r.Form.Get("index")); err != nil {
			http.Error(w, "invalid index", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := s.mgr.Submit(ctx, intent); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("Applied %s intent from %s", kind, r.RemoteAddr)
	s.handleStatus(w, r)
}

func (s *Server) status(v *manager.View) StatusJSON {
	out := StatusJSON{
		Status:        v.Status,
		Tab:           v.Tab,
		Filter:        v.Filter,
		Applied:       v.Applied,
		Pending:       v.Pending,
		LastBucket:    v.LastBucket,
		TotalBytes:    v.TotalBytes,
		Recording:     v.Recording,
		RecordingPath: v.RecordingPath,
		Line:          v.StatusLine(),
	}
	if s.capture != nil {
		c := s.capture.Counters()
		out.Capturing = s.capture.Running()
		out.Frames, out.Malformed, out.Noise, out.Delivered = c.Frames, c.Malformed, c.Noise, c.Delivered
	}
	return out
}

func throughput(v *manager.View) ThroughputJSON {
	return ThroughputJSON{Interval: v.Interval, Buckets: v.History, Frozen: v.Status == manager.StatusPaused}
}

func record(rec *model.PacketRecord, full bool) RecordJSON {
	out := RecordJSON{
		Time:     rec.TimeLabel,
		Summary:  rec.Summary,
		App:      rec.App,
		Source:   rec.Source,
		Dest:     rec.Dest,
		Protocol: rec.Protocol,
		Length:   rec.Length,
	}
	if full {
		out.Details = rec.Details
		out.HexDump = rec.HexDump
	}
	return out
}

func records(recs []*model.PacketRecord, full bool) []RecordJSON {
	out := make([]RecordJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, record(rec, full))
	}
	return out
}

func flows(fs []model.Flow) []FlowJSON {
	out := make([]FlowJSON, 0, len(fs))
	for _, f := range fs {
		out = append(out, FlowJSON{
			App:      f.Key.App,
			Source:   f.Key.Source,
			Dest:     f.Key.Dest,
			Protocol: f.Key.Protocol,
			Bytes:    f.ByteCount,
			Packets:  f.PacketCount,
		})
	}
	return out
}

func queryDefault(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
