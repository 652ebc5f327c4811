package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/collector"
	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/internal/services"
	"github.com/roperoray30-create/meetgo/pkg/cache"
	"github.com/roperoray30-create/meetgo/pkg/logger"
	"github.com/roperoray30-create/meetgo/pkg/validator"
)

// timeNow is a seam for handler tests.
var timeNow = time.Now

type Handler struct {
	visits   *services.VisitService
	bookings *services.BookingService
	cache    *cache.Cache
}

func NewHandler(visits *services.VisitService, bookings *services.BookingService, cache *cache.Cache) *Handler {
	return &Handler{
		visits:   visits,
		bookings: bookings,
		cache:    cache,
	}
}

// Visit handles POST /v1/visits: the page's signal beacon. Classification
// is synchronous; everything else continues in the background, so this
// responds as soon as the snapshot is collected.
func (h *Handler) Visit(c *fiber.Ctx) error {
	var beacon models.RawSignals
	if err := c.BodyParser(&beacon); err != nil {
		logger.Warn("Failed to parse visit beacon", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid beacon body",
		})
	}

	if err := validator.ValidateBeacon(beacon); err != nil {
		logger.Warn("Beacon validation failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Header values are zero-copy views into fasthttp's pooled buffers.
	// The snapshot outlives this request (the background pipeline reads
	// it seconds later), so every header-derived string must be copied
	// out before the ctx is recycled.
	sig := collector.Collect(beacon, collector.RequestFacts{
		RemoteIP:       utils.CopyString(c.IP()),
		UserAgent:      utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		Referer:        utils.CopyString(c.Get(fiber.HeaderReferer)),
		AcceptLanguage: utils.CopyString(c.Get(fiber.HeaderAcceptLanguage)),
		Cookie:         utils.CopyString(c.Get(fiber.HeaderCookie)),
	}, timeNow())

	ack := h.visits.RecordVisit(c.Context(), sig)

	logger.Info("Visit recorded", map[string]any{
		"visit_id": ack.VisitID,
		"user":     ack.User,
		"device":   ack.Result.Device.Type,
	})

	return c.Status(fiber.StatusAccepted).JSON(ack)
}

// SensorFix handles POST /v1/visits/:id/location: the follow-up report
// carrying the device-sensor geolocation fix.
func (h *Handler) SensorFix(c *fiber.Ctx) error {
	visitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid visit id",
		})
	}

	var fix models.GeoFix
	if err := c.BodyParser(&fix); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid fix body",
		})
	}

	if err := validator.ValidateFix(fix); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	accepted := h.visits.DeliverSensorFix(visitID, fix)
	if accepted && h.cache != nil {
		_ = h.cache.IncrementMetric(c.Context(), "sensor_reports")
	}

	// A late report is not an error: the pipeline simply finished
	// without it.
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": accepted,
	})
}

// Booking handles POST /v1/bookings: the booking-confirmation record.
func (h *Handler) Booking(c *fiber.Ctx) error {
	var booking models.BookingRecord
	if err := c.BodyParser(&booking); err != nil {
		logger.Warn("Failed to parse booking", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid booking body",
		})
	}

	if err := validator.ValidateBooking(booking); err != nil {
		logger.Warn("Booking validation failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	confirmed, key := h.bookings.ConfirmBooking(c.Context(), booking)

	logger.Info("Booking confirmed", map[string]any{
		"meeting_id": confirmed.MeetingID,
		"stored":     key != "",
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking":     confirmed,
		"storage_key": key.String(),
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"service": "meetgo-api",
	})
}

// Metrics handles GET /metrics.
func (h *Handler) Metrics(c *fiber.Ctx) error {
	ctx := c.Context()

	totalVisits, _ := h.cache.GetMetric(ctx, "total_visits")
	enriched, _ := h.cache.GetMetric(ctx, "enriched_visits")
	sensorFixes, _ := h.cache.GetMetric(ctx, "sensor_fixes")
	persisted, _ := h.cache.GetMetric(ctx, "persisted_visits")
	persistFailures, _ := h.cache.GetMetric(ctx, "persist_failures")
	bookings, _ := h.cache.GetMetric(ctx, "total_bookings")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"total_visits":     totalVisits,
		"enriched_visits":  enriched,
		"sensor_fixes":     sensorFixes,
		"persisted_visits": persisted,
		"persist_failures": persistFailures,
		"total_bookings":   bookings,
		"enrichment_rate":  calculateRate(enriched, totalVisits),
	})
}

// RecentVisits handles GET /api/visits.
func (h *Handler) RecentVisits(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	// Postgres rejects negative LIMIT/OFFSET; clamp rather than 500.
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	visits, err := h.visits.RecentVisits(c.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to fetch visits", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch visits",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"visits": visits,
		"limit":  limit,
		"offset": offset,
	})
}

func calculateRate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0.0
	}
	return (float64(numerator) / float64(denominator)) * 100
}
