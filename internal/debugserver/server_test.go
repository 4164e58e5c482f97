package debugserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"animal-vision-camera/internal/metrics"
)

type fakeSource struct {
	stats *metrics.PipelineStats
}

func (f fakeSource) ID() string { return "preview-1" }
func (f fakeSource) Stats() metrics.Snapshot { return f.stats.Snapshot() }
func (f fakeSource) SessionState() string { return "running" }
func (f fakeSource) FilterName() string { return "dog" }
func (f fakeSource) OverlayState() string { return "showing" }

func TestPipelineEndpoint(t *testing.T) {
	stats := metrics.NewPipelineStats()
	for i := 0; i < 4; i++ {
		stats.FrameReceived()
	}
	stats.FrameDropped()

	rec := httptest.NewRecorder()
	NewRouter(fakeSource{stats: stats}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pipeline", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body PipelineStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PreviewID != "preview-1" {
		t.Fatalf("preview id = %q", body.PreviewID)
	}
	if body.Stats.FramesReceived != 4 || body.Stats.FramesDropped != 1 {
		t.Fatalf("unexpected stats %+v", body.Stats)
	}
	if body.DropRate != 0.25 {
		t.Fatalf("drop rate = %v, want 0.25", body.DropRate)
	}
}

func TestSessionEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(fakeSource{stats: metrics.NewPipelineStats()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session", nil))

	var body Status
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Filter != "dog" || body.Session != "running" {
		t.Fatalf("unexpected status %+v", body)
	}
}

func TestRejectsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(fakeSource{stats: metrics.NewPipelineStats()}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/pipeline", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
