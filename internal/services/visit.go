package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/enrich"
	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/internal/repository"
	"github.com/roperoray30-create/meetgo/pkg/cache"
	"github.com/roperoray30-create/meetgo/pkg/classify"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

// VisitAck is what the page gets back immediately: classification is
// synchronous, enrichment and persistence are not.
type VisitAck struct {
	VisitID uuid.UUID             `json:"visit_id"`
	User    string                `json:"user"`
	Result  models.Classification `json:"classification"`
}

// VisitStore is the slice of the persistence adapter the visit flow
// needs. *repository.Repository satisfies it.
type VisitStore interface {
	SaveVisit(ctx context.Context, key models.StorageKey, record *models.VisitRecord) error
	RecentVisits(ctx context.Context, limit, offset int) ([]repository.StoredVisit, error)
}

type VisitService struct {
	repo     VisitStore
	cache    *cache.Cache
	pipeline *enrich.Pipeline
	now      func() time.Time
}

func NewVisitService(repo VisitStore, c *cache.Cache, pipeline *enrich.Pipeline) *VisitService {
	return &VisitService{
		repo:     repo,
		cache:    c,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// RecordVisit classifies the snapshot synchronously and returns; the
// enrichment join, assembly and the storage write continue in the
// background so the page is never blocked on a probe or on the sink.
func (s *VisitService) RecordVisit(ctx context.Context, sig models.RawSignals) VisitAck {
	visitID := uuid.New()
	now := s.now()

	cls := classify.Classify(sig)
	user := classify.UserLabel(sig.Browser.UserAgent, now)
	owner := classify.Owner(sig.Browser.UserAgent)

	s.countMetric(ctx, "total_visits")

	// Open the sensor delivery slot before the ack is returned: a fix
	// posted straight after the ack must not race the probe's startup.
	s.pipeline.Sensors().Register(visitID)

	go s.enrichAndPersist(visitID, sig, cls, user, owner)

	return VisitAck{VisitID: visitID, User: user, Result: cls}
}

// enrichAndPersist is the visit's background half. It awaits the probe
// join exactly once, assembles the canonical record and hands it to the
// sink. A failed write is logged and swallowed: there is no fatal path
// here and nothing propagates back to the page.
func (s *VisitService) enrichAndPersist(
	visitID uuid.UUID,
	sig models.RawSignals,
	cls models.Classification,
	user string,
	owner models.DeviceOwner,
) {
	ctx := context.Background()

	enrichment := s.pipeline.Run(ctx, visitID, sig)
	record := Assemble(visitID, sig, cls, user, owner, enrichment, s.now())

	if enrichment.Address != nil || enrichment.SensorFix != nil {
		s.countMetric(ctx, "enriched_visits")
	}
	if enrichment.SensorFix != nil {
		s.countMetric(ctx, "sensor_fixes")
	}

	key := models.NewStorageKey(s.now())
	if err := s.repo.SaveVisit(ctx, key, record); err != nil {
		logger.Warn("Visit write failed", map[string]any{
			"visit_id": visitID,
			"key":      key.String(),
			"error":    err.Error(),
		})
		s.countMetric(ctx, "persist_failures")
		return
	}

	s.countMetric(ctx, "persisted_visits")
	logger.Debug("Visit persisted", map[string]any{"visit_id": visitID, "key": key.String()})
}

// DeliverSensorFix routes a follow-up geolocation report to the waiting
// probe. Returns false when no pipeline is waiting for the visit.
func (s *VisitService) DeliverSensorFix(visitID uuid.UUID, fix models.GeoFix) bool {
	return s.pipeline.Sensors().Deliver(visitID, fix)
}

// RecentVisits lists stored visit documents, newest first.
func (s *VisitService) RecentVisits(ctx context.Context, limit, offset int) ([]repository.StoredVisit, error) {
	visits, err := s.repo.RecentVisits(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (s *VisitService) countMetric(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.IncrementMetric(ctx, name)
}

// Assemble merges the snapshot, classification, identity and enrichment
// into one immutable VisitRecord. Pure function: same inputs, same
// record. Both geolocation fixes are retained verbatim; only
// presentation collapses them (LocationReport.Presented).
func Assemble(
	visitID uuid.UUID,
	sig models.RawSignals,
	cls models.Classification,
	user string,
	owner models.DeviceOwner,
	enr models.Enrichment,
	at time.Time,
) *models.VisitRecord {
	location := models.LocationReport{
		IP:         enr.PublicIP,
		AddressFix: enr.AddressFix,
		SensorFix:  enr.SensorFix,
	}
	if enr.Address != nil {
		location.City = enr.Address.City
		location.Region = enr.Address.Region
		location.Country = enr.Address.Country
		location.ISP = enr.Address.ISP
	}

	var bandwidth *float64
	if sig.Connection != nil && sig.Connection.Downlink > 0 {
		d := sig.Connection.Downlink
		bandwidth = &d
	}

	return &models.VisitRecord{
		VisitID:     visitID,
		User:        user,
		DeviceOwner: owner,
		Device:      cls.Device,
		Browser:     cls.Browser,
		Location:    location,
		System: models.SystemReport{
			Screen:   fmt.Sprintf("%dx%d", sig.Screen.Width, sig.Screen.Height),
			Timezone: sig.Timezone.Timezone,
			Language: sig.Browser.Language,
			Platform: sig.Browser.Platform,
		},
		Session: models.SessionReport{
			URL:       sig.Page.URL,
			Referrer:  sig.Page.Referrer,
			UserAgent: sig.Browser.UserAgent,
			Hostname:  sig.Page.Hostname,
			RemoteIP:  sig.RemoteIP,
		},
		Network: models.NetworkReport{
			OnLine:         sig.Browser.OnLine,
			ConnectionType: enr.ConnectionType,
			Bandwidth:      bandwidth,
			Quality:        enr.Quality,
		},
		Power:       enr.Power,
		Cookies:     sig.Cookies,
		Navigation:  sig.Navigation,
		CapturedAt:  sig.CapturedAt,
		AssembledAt: at,
	}
}
