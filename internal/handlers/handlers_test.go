package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roperoray30-create/meetgo/internal/config"
	"github.com/roperoray30-create/meetgo/internal/enrich"
	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/internal/repository"
	"github.com/roperoray30-create/meetgo/internal/services"
)

const chromeWin10UA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// recordingStore is an in-memory VisitStore. Persisted records and the
// paging arguments of listing calls come out of channels so tests can
// join with the handlers' background work.
type recordingStore struct {
	saved  chan *models.VisitRecord
	paging chan [2]int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		saved:  make(chan *models.VisitRecord, 4),
		paging: make(chan [2]int, 4),
	}
}

func (s *recordingStore) SaveVisit(_ context.Context, _ models.StorageKey, record *models.VisitRecord) error {
	s.saved <- record
	return nil
}

func (s *recordingStore) RecentVisits(_ context.Context, limit, offset int) ([]repository.StoredVisit, error) {
	s.paging <- [2]int{limit, offset}
	return nil, nil
}

func (s *recordingStore) awaitSaved(t *testing.T) *models.VisitRecord {
	t.Helper()
	select {
	case rec := <-s.saved:
		return rec
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the background persist")
		return nil
	}
}

// newTestApp wires the handler onto a default fiber app: no Immutable
// option, pooled request contexts, exactly as in production.
func newTestApp(store *recordingStore) *fiber.App {
	cfg := &config.EnrichmentConfig{
		AddressPrimaryURL:  "http://127.0.0.1:1/ip",
		AddressFallbackURL: "http://127.0.0.1:1/fallback",
		GeoURLTemplate:     "http://127.0.0.1:1/%s/json/",
		ProbeTimeout:       100 * time.Millisecond,
		SensorTimeout:      500 * time.Millisecond,
		PipelineTimeout:    2 * time.Second,
	}
	pipeline := enrich.NewPipeline(cfg, nil, enrich.NewSensorHub())
	visits := services.NewVisitService(store, nil, pipeline)
	h := NewHandler(visits, nil, nil)

	app := fiber.New()
	app.Post("/v1/visits", h.Visit)
	app.Post("/v1/visits/:id/location", h.SensorFix)
	app.Get("/api/visits", h.RecentVisits)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body, agent string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if agent != "" {
		req.Header.Set(fiber.HeaderUserAgent, agent)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestVisit_RejectsMalformedBeacon(t *testing.T) {
	app := newTestApp(newRecordingStore())

	resp := postJSON(t, app, "/v1/visits", "{not json", chromeWin10UA)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for malformed beacon, got %d", resp.StatusCode)
	}
}

func TestVisit_RejectsOversizedUserAgent(t *testing.T) {
	app := newTestApp(newRecordingStore())

	body := fmt.Sprintf(`{"browser":{"userAgent":%q}}`, strings.Repeat("a", 1001))
	resp := postJSON(t, app, "/v1/visits", body, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for oversized user agent, got %d", resp.StatusCode)
	}
}

func TestVisit_AcknowledgesWithClassification(t *testing.T) {
	store := newRecordingStore()
	app := newTestApp(store)

	fixed := time.Date(2026, 3, 5, 14, 35, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = time.Now }()

	body := fmt.Sprintf(`{"browser":{"userAgent":%q},"screen":{"width":1920,"height":1080}}`, chromeWin10UA)
	resp := postJSON(t, app, "/v1/visits", body, "")
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}

	var ack struct {
		VisitID string                `json:"visit_id"`
		User    string                `json:"user"`
		Result  models.Classification `json:"classification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("Failed to decode ack: %v", err)
	}
	if ack.VisitID == "" {
		t.Error("Expected a visit id in the ack")
	}
	if ack.Result.OS != "Windows 10" {
		t.Errorf("Expected OS 'Windows 10', got %q", ack.Result.OS)
	}
	if ack.Result.Browser.Name != "Chrome" {
		t.Errorf("Expected browser 'Chrome', got %q", ack.Result.Browser.Name)
	}
	if !strings.HasPrefix(ack.User, "PC_Usuario_") {
		t.Errorf("Expected a PC_Usuario label, got %q", ack.User)
	}

	rec := store.awaitSaved(t)
	if !rec.CapturedAt.Equal(fixed) {
		t.Errorf("Expected capture time %v, got %v", fixed, rec.CapturedAt)
	}
	if rec.Session.UserAgent != chromeWin10UA {
		t.Errorf("Persisted record carries wrong user agent: %q", rec.Session.UserAgent)
	}
}

// Header-derived strings point into the request context's pooled buffers;
// once the handler returns, the next request on the recycled context
// rewrites them. The persisted record must keep the values the visit
// actually arrived with.
func TestVisit_SnapshotSurvivesContextRecycling(t *testing.T) {
	store := newRecordingStore()
	app := newTestApp(store)

	agentOne := "VisitorOne/1.0 (Windows NT 10.0; Win64; x64) " + strings.Repeat("a", 120)
	agentTwo := "VisitorTwo/2.0 (Linux; Android 14; SM-S911B) " + strings.Repeat("b", 120)

	if resp := postJSON(t, app, "/v1/visits", `{}`, agentOne); resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("Expected 202 for first visit, got %d", resp.StatusCode)
	}
	if resp := postJSON(t, app, "/v1/visits", `{}`, agentTwo); resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("Expected 202 for second visit, got %d", resp.StatusCode)
	}

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		seen[store.awaitSaved(t).Session.UserAgent] = true
	}
	if !seen[agentOne] {
		t.Errorf("First visit's user agent was overwritten by a later request; persisted agents: %v", seen)
	}
	if !seen[agentTwo] {
		t.Errorf("Second visit's user agent missing; persisted agents: %v", seen)
	}
}

func TestVisit_FixAfterAckIsAccepted(t *testing.T) {
	store := newRecordingStore()
	app := newTestApp(store)

	resp := postJSON(t, app, "/v1/visits", `{}`, chromeWin10UA)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}
	var ack struct {
		VisitID string `json:"visit_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("Failed to decode ack: %v", err)
	}

	fixBody := `{"latitude":40.4168,"longitude":-3.7038,"accuracy_meters":15}`
	resp = postJSON(t, app, "/v1/visits/"+ack.VisitID+"/location", fixBody, "")
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("Expected 202 for fix report, got %d", resp.StatusCode)
	}
	var report struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode fix response: %v", err)
	}
	if !report.Accepted {
		t.Fatal("Expected the fix to reach the waiting pipeline")
	}

	rec := store.awaitSaved(t)
	if rec.Location.SensorFix == nil {
		t.Fatal("Expected the sensor fix in the persisted record")
	}
	if rec.Location.SensorFix.Latitude != 40.4168 {
		t.Errorf("Sensor fix mutated: %+v", rec.Location.SensorFix)
	}
}

func TestSensorFix_RejectsBadVisitID(t *testing.T) {
	app := newTestApp(newRecordingStore())

	resp := postJSON(t, app, "/v1/visits/not-a-uuid/location", `{"latitude":1,"longitude":1,"accuracy_meters":5}`, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for a bad visit id, got %d", resp.StatusCode)
	}
}

func TestRecentVisits_ClampsPaging(t *testing.T) {
	store := newRecordingStore()
	app := newTestApp(store)

	cases := []struct {
		query         string
		limit, offset int
	}{
		{"limit=-5&offset=-3", 0, 0},
		{"limit=500&offset=10", 100, 10},
		{"", 50, 0},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodGet, "/api/visits?"+tc.query, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("Query %q: expected 200, got %d", tc.query, resp.StatusCode)
			continue
		}
		got := <-store.paging
		if got[0] != tc.limit || got[1] != tc.offset {
			t.Errorf("Query %q: expected limit=%d offset=%d, got limit=%d offset=%d",
				tc.query, tc.limit, tc.offset, got[0], got[1])
		}
	}
}
