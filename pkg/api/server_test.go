package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/zapzap/pkg/trainer"
)

// fakeSource serves a fixed stats snapshot.
type fakeSource struct {
	stats trainer.Stats
}

func (f *fakeSource) Stats() trainer.Stats { return f.stats }

func testServer() (*Server, *fakeSource) {
	source := &fakeSource{stats: trainer.Stats{
		GamesPlayed: 42,
		Steps:       7,
		AvgLoss:     0.5,
		Epsilon:     0.9,
		BufferSize:  100,
		BufferByType: map[string]int{
			"PlayType": 60,
			"ZapZap":   40,
		},
	}}
	cfg := DefaultConfig()
	cfg.PushInterval = 10 * time.Millisecond
	return NewServer(source, cfg), source
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := testServer()
	ts := httptest.NewServer(s.setupRoutes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, expected 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Status field = %q, expected ok", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, source := testServer()
	ts := httptest.NewServer(s.setupRoutes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("GET /api/v1/stats failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, expected 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, expected application/json", ct)
	}

	var got trainer.Stats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.GamesPlayed != source.stats.GamesPlayed {
		t.Errorf("GamesPlayed = %d, expected %d", got.GamesPlayed, source.stats.GamesPlayed)
	}
	if got.BufferByType["PlayType"] != 60 {
		t.Errorf("BufferByType = %v", got.BufferByType)
	}
}

func TestStatsEndpointMethodNotAllowed(t *testing.T) {
	s, _ := testServer()
	ts := httptest.NewServer(s.setupRoutes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/stats", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, expected 405", resp.StatusCode)
	}
}

func TestLiveWebsocketPushes(t *testing.T) {
	s, source := testServer()
	ts := httptest.NewServer(s.setupRoutes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// The first snapshot arrives immediately, then one per tick.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		var got trainer.Stats
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if got.GamesPlayed != source.stats.GamesPlayed {
			t.Errorf("Push %d GamesPlayed = %d, expected %d", i, got.GamesPlayed, source.stats.GamesPlayed)
		}
	}
}
