package services

import (
	"context"
	"fmt"
	"time"

	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/pkg/cache"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

// BookingStore is the slice of the persistence adapter the booking flow
// needs. *repository.Repository satisfies it.
type BookingStore interface {
	SaveBooking(ctx context.Context, key models.StorageKey, record *models.BookingRecord) error
}

type BookingService struct {
	repo  BookingStore
	cache *cache.Cache
	now   func() time.Time
}

func NewBookingService(repo BookingStore, c *cache.Cache) *BookingService {
	return &BookingService{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// ConfirmBooking captures the booking-scoped record. The write is
// store-if-possible: on success the storage key is returned, on failure
// the key is empty and the booking flow continues regardless — the sink
// never fails a confirmation.
func (s *BookingService) ConfirmBooking(ctx context.Context, booking models.BookingRecord) (models.BookingRecord, models.StorageKey) {
	now := s.now()

	booking.CreatedAt = now
	if booking.MeetingID == "" {
		booking.MeetingID = fmt.Sprintf("meet-%d", now.UnixMilli())
	}

	if s.cache != nil {
		_ = s.cache.IncrementMetric(ctx, "total_bookings")
	}

	key := models.NewStorageKey(now)
	if err := s.repo.SaveBooking(ctx, key, &booking); err != nil {
		logger.Warn("Booking write failed", map[string]any{
			"meeting_id": booking.MeetingID,
			"key":        key.String(),
			"error":      err.Error(),
		})
		if s.cache != nil {
			_ = s.cache.IncrementMetric(ctx, "persist_failures")
		}
		return booking, ""
	}

	return booking, key
}
