package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/config"
	"github.com/roperoray30-create/meetgo/internal/enrich"
	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/internal/repository"
)

// memorySink collects SaveVisit records; tests read them off the channel
// to join with the background half of RecordVisit.
type memorySink struct {
	saved chan *models.VisitRecord
}

func newMemorySink() *memorySink {
	return &memorySink{saved: make(chan *models.VisitRecord, 4)}
}

func (s *memorySink) SaveVisit(_ context.Context, _ models.StorageKey, record *models.VisitRecord) error {
	s.saved <- record
	return nil
}

func (s *memorySink) RecentVisits(_ context.Context, _, _ int) ([]repository.StoredVisit, error) {
	return nil, nil
}

// offlinePipeline probes endpoints that refuse connections, so only the
// sensor wait contributes to the enrichment.
func offlinePipeline() *enrich.Pipeline {
	cfg := &config.EnrichmentConfig{
		AddressPrimaryURL:  "http://127.0.0.1:1/ip",
		AddressFallbackURL: "http://127.0.0.1:1/fallback",
		GeoURLTemplate:     "http://127.0.0.1:1/%s/json/",
		ProbeTimeout:       100 * time.Millisecond,
		SensorTimeout:      500 * time.Millisecond,
		PipelineTimeout:    2 * time.Second,
	}
	return enrich.NewPipeline(cfg, nil, enrich.NewSensorHub())
}

func TestRecordVisit_FixDeliverableRightAfterAck(t *testing.T) {
	sink := newMemorySink()
	svc := NewVisitService(sink, nil, offlinePipeline())

	sig, _, _ := testInputs()
	ack := svc.RecordVisit(context.Background(), sig)

	// The delivery slot must already be open when the ack is returned:
	// the page posts its sensor fix the moment it has the visit id.
	fix := models.GeoFix{Latitude: 40.4168, Longitude: -3.7038, AccuracyMeters: 15}
	if !svc.DeliverSensorFix(ack.VisitID, fix) {
		t.Fatal("Fix posted immediately after the ack was dropped")
	}

	select {
	case rec := <-sink.saved:
		if rec.Location.SensorFix == nil {
			t.Fatal("Expected the delivered sensor fix in the persisted record")
		}
		if rec.Location.SensorFix.Source != models.SourceDeviceSensor {
			t.Errorf("Expected sensor source, got %q", rec.Location.SensorFix.Source)
		}
		if rec.Location.SensorFix.Latitude != 40.4168 {
			t.Errorf("Sensor fix mutated: %+v", rec.Location.SensorFix)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the background persist")
	}
}

func TestRecordVisit_UnknownVisitFixRefused(t *testing.T) {
	sink := newMemorySink()
	svc := NewVisitService(sink, nil, offlinePipeline())

	wrong := models.GeoFix{Latitude: 1, Longitude: 1, AccuracyMeters: 5}
	if svc.DeliverSensorFix(uuid.New(), wrong) {
		t.Error("Expected a fix for an unknown visit to be refused")
	}
}

func TestRecordVisit_AckIsSynchronous(t *testing.T) {
	sink := newMemorySink()
	svc := NewVisitService(sink, nil, offlinePipeline())

	sig, _, _ := testInputs()
	start := time.Now()
	ack := svc.RecordVisit(context.Background(), sig)
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("RecordVisit blocked on enrichment: took %v", elapsed)
	}
	if ack.User == "" || ack.Result.OS == "" {
		t.Errorf("Expected classification in the ack, got %+v", ack)
	}
}
