// Package web serves the sensor's local status surface: an HTML page for
// installers checking a mounted unit, full JSON for diagnostics, and a
// minimal occupancy endpoint for guidance displays that poll the sensor
// directly instead of going through the broker.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sweeney/parking-sensor/internal/status"
)

// Server exposes the tracker's snapshot over HTTP.
type Server struct {
	srv     *http.Server
	tracker *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatusPage)
	mux.HandleFunc("/index.html", s.handleStatusPage)
	mux.HandleFunc("/index.json", s.handleStatusJSON)
	mux.HandleFunc("/occupancy", s.handleOccupancy)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Handler returns the route table, for serving through httptest.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// occupancyReply is the trimmed answer for guidance displays: which spot,
// what state, and whether the state can be trusted yet.
type occupancyReply struct {
	SensorID       string   `json:"sensor_id"`
	Location       string   `json:"location"`
	OccupancyState string   `json:"occupancy_state"`
	Ready          bool     `json:"ready"`
	DistanceCM     *float64 `json:"distance_cm"`
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	reply := occupancyReply{
		SensorID:       snap.Config.SensorID,
		Location:       snap.Config.Location,
		OccupancyState: snap.State.Wire(),
		Ready:          snap.State.Wire() != "unknown",
		DistanceCM:     snap.DistanceCM,
	}
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.Marshal(reply)
	w.Write(data)
}
