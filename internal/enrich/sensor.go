package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/models"
)

// SensorHub bridges the sensor probe and the transport layer. The server
// cannot read device GPS itself: the page requests a high-accuracy fix
// from the host and reports it in a follow-up call. Await parks the probe
// on a per-visit channel until that report arrives or the deadline
// passes; denial and capability absence simply never deliver.
type SensorHub struct {
	mu    sync.Mutex
	waits map[uuid.UUID]chan models.GeoFix
}

func NewSensorHub() *SensorHub {
	return &SensorHub{
		waits: make(map[uuid.UUID]chan models.GeoFix),
	}
}

// Register opens the visit's delivery slot. Calling it before the visit
// ack is returned closes the window where a fix reported immediately
// after the ack would race the probe's own registration and be dropped.
// The slot is buffered, so a fix delivered before Await starts waiting
// is still received.
func (h *SensorHub) Register(visitID uuid.UUID) {
	h.mu.Lock()
	if _, ok := h.waits[visitID]; !ok {
		h.waits[visitID] = make(chan models.GeoFix, 1)
	}
	h.mu.Unlock()
}

// Await blocks until a fix arrives for the visit, the timeout elapses, or
// the context is cancelled. The boolean reports whether a fix was
// obtained; the probe treats every negative outcome identically. The
// slot is removed on return, so late reports after that are refused.
func (h *SensorHub) Await(ctx context.Context, visitID uuid.UUID, timeout time.Duration) (models.GeoFix, bool) {
	h.mu.Lock()
	ch, ok := h.waits[visitID]
	if !ok {
		ch = make(chan models.GeoFix, 1)
		h.waits[visitID] = ch
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.waits, visitID)
		h.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case fix := <-ch:
		return fix, true
	case <-timer.C:
		return models.GeoFix{}, false
	case <-ctx.Done():
		return models.GeoFix{}, false
	}
}

// Deliver hands a reported fix to the waiting probe. Returns false when
// no probe is waiting, which happens when the pipeline already timed out
// or the visit is unknown.
func (h *SensorHub) Deliver(visitID uuid.UUID, fix models.GeoFix) bool {
	h.mu.Lock()
	ch, ok := h.waits[visitID]
	h.mu.Unlock()

	if !ok {
		return false
	}

	select {
	case ch <- fix:
		return true
	default:
		return false // a fix was already delivered for this visit
	}
}
