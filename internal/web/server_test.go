package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/parking-sensor/internal/logic"
	"github.com/sweeney/parking-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		SensorID:            "PARK_001",
		Location:            "Level_1_Spot_A1",
		FirmwareVersion:     "1.0.0",
		HardwareVersion:     "PI_HC-SR04_v1",
		Broker:              "tcp://192.168.1.200:1883",
		HTTPAddr:            ":8080",
		IntervalMs:          30000,
		Samples:             5,
		DebounceCount:       3,
		OccupiedThresholdCM: 200,
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	dist := 152.5
	tr.Update(logic.StateOccupied, &dist, 87, false, status.Counts{Cycles: 5, Transitions: 2})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.OccupancyState != "occupied" {
		t.Errorf("occupancy: got %q, want occupied", sj.Status.OccupancyState)
	}
	if sj.Status.DistanceCM == nil || *sj.Status.DistanceCM != 152.5 {
		t.Errorf("distance: got %v, want 152.5", sj.Status.DistanceCM)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Cycles != 5 {
		t.Errorf("Counts.Cycles: got %d, want 5", sj.Status.Counts.Cycles)
	}
	if sj.Status.Config.SensorID != "PARK_001" {
		t.Errorf("Config.SensorID: got %q", sj.Status.Config.SensorID)
	}
}

func TestJSONUnknownStateBeforeFirstCommit(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.OccupancyState != "unknown" {
		t.Errorf("occupancy before first commit: got %q, want unknown", sj.Status.OccupancyState)
	}
	if sj.Status.Ready {
		t.Error("expected Ready=false before first commit")
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	dist := 80.0
	tr.Update(logic.StateOccupied, &dist, 19, true, status.Counts{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "occupied") {
		t.Error("expected rendered page to show occupancy state")
	}
	if !strings.Contains(string(body), "PARK_001") {
		t.Error("expected rendered page to show sensor id")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestOccupancyEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)

	// Before the first commit the spot is not yet trustworthy.
	resp, err := http.Get(ts.URL + "/occupancy")
	if err != nil {
		t.Fatalf("GET /occupancy: %v", err)
	}
	var reply occupancyReply
	json.NewDecoder(resp.Body).Decode(&reply)
	resp.Body.Close()

	if reply.Ready {
		t.Error("expected ready=false before first commit")
	}
	if reply.OccupancyState != "unknown" {
		t.Errorf("occupancy: got %q, want unknown", reply.OccupancyState)
	}

	dist := 95.0
	tr.Update(logic.StateOccupied, &dist, 88, false, status.Counts{Cycles: 3})

	resp, err = http.Get(ts.URL + "/occupancy")
	if err != nil {
		t.Fatalf("GET /occupancy: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	reply = occupancyReply{}
	json.NewDecoder(resp.Body).Decode(&reply)

	if reply.SensorID != "PARK_001" {
		t.Errorf("sensor_id: got %q, want PARK_001", reply.SensorID)
	}
	if reply.Location != "Level_1_Spot_A1" {
		t.Errorf("location: got %q", reply.Location)
	}
	if reply.OccupancyState != "occupied" {
		t.Errorf("occupancy: got %q, want occupied", reply.OccupancyState)
	}
	if !reply.Ready {
		t.Error("expected ready=true after commit")
	}
	if reply.DistanceCM == nil || *reply.DistanceCM != 95.0 {
		t.Errorf("distance: got %v, want 95", reply.DistanceCM)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	dist := 300.0
	tr.Update(logic.StateVacant, &dist, 90, false, status.Counts{Cycles: 1})
	tr.SetMQTTConnected(true)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if !sj2.Status.Ready {
		t.Error("expected Ready=true after update")
	}
	if sj2.Status.OccupancyState != "vacant" {
		t.Errorf("occupancy: got %q, want vacant", sj2.Status.OccupancyState)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
