// Package enrich runs the asynchronous probes that augment a visit
// profile: public address lookup with a fallback chain, address-based
// geolocation, the device-sensor fix wait, power status and network
// quality. Probes fail independently; the pipeline always resolves to a
// best-effort-populated result and never returns an error.
package enrich

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/config"
	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/pkg/geo"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

// addressFixAccuracyMeters is the nominal city-level radius assigned to
// address-based fixes: the provider reports no numeric accuracy.
const addressFixAccuracyMeters = 10000.0

// GeoCache caches address-geolocation results per IP. A nil cache
// disables caching.
type GeoCache interface {
	GetIPInfo(ctx context.Context, ip string) (*models.NetworkAddressInfo, error)
	SetIPInfo(ctx context.Context, ip string, info *models.NetworkAddressInfo) error
}

type Pipeline struct {
	cfg     *config.EnrichmentConfig
	client  *http.Client
	cache   GeoCache
	sensors *SensorHub
}

func NewPipeline(cfg *config.EnrichmentConfig, cache GeoCache, sensors *SensorHub) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.ProbeTimeout},
		cache:   cache,
		sensors: sensors,
	}
}

// Run executes every probe and joins them. The address chain and the
// sensor wait run concurrently; each goroutine writes only its own fields
// of the result, so the merge needs no locking — it is sequenced after
// the join. Run blocks for at most the slowest probe and never past the
// pipeline deadline.
func (p *Pipeline) Run(ctx context.Context, visitID uuid.UUID, sig models.RawSignals) models.Enrichment {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	// Synchronous facts first: these come straight from the beacon.
	enr := models.Enrichment{
		Quality:        QualityFromConnection(sig.Connection),
		ConnectionType: ConnectionLabel(sig.Connection),
		Power:          sig.Battery,
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ip, err := p.resolveAddress(ctx, sig.RemoteIP)
		if err != nil {
			logger.Debug("Address lookup unresolved", map[string]any{"error": err.Error()})
			return
		}
		enr.PublicIP = ip

		info, err := p.locateAddress(ctx, ip)
		if err != nil {
			logger.Debug("Address geolocation failed", map[string]any{"ip": ip, "error": err.Error()})
			return
		}
		if info == nil {
			return // provider reported an explicit error marker
		}
		enr.Address = info

		if info.Latitude != nil && info.Longitude != nil {
			acc := addressFixAccuracyMeters
			enr.AddressFix = &models.GeoFix{
				Latitude:       *info.Latitude,
				Longitude:      *info.Longitude,
				AccuracyMeters: acc,
				Timestamp:      time.Now(),
				Source:         models.SourceAddressBased,
				MapsURL:        geo.MapsLink(*info.Latitude, *info.Longitude, &acc),
			}
		}
	}()

	go func() {
		defer wg.Done()
		fix, ok := p.sensors.Await(ctx, visitID, p.cfg.SensorTimeout)
		if !ok {
			return // denied, timed out, or the capability was absent
		}
		fix.Source = models.SourceDeviceSensor
		if fix.MapsURL == "" {
			acc := fix.AccuracyMeters
			fix.MapsURL = geo.MapsLink(fix.Latitude, fix.Longitude, &acc)
		}
		enr.SensorFix = &fix
	}()

	wg.Wait()
	return enr
}

// Sensors exposes the hub so the transport layer can deliver follow-up
// fixes into a running pipeline.
func (p *Pipeline) Sensors() *SensorHub {
	return p.sensors
}
