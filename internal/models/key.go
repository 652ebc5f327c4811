package models

import (
	"fmt"
	"time"
)

// StorageKey identifies one stored document. It is derived from wall-clock
// time at assembly: day_month_year_hour_minute_second_millisecond, each
// component zero-padded. Keys are distinguishable at millisecond
// granularity only; two assemblies within the same millisecond collide.
// That is accepted behavior, not a bug to paper over.
type StorageKey string

func NewStorageKey(t time.Time) StorageKey {
	return StorageKey(fmt.Sprintf("%02d_%02d_%04d_%02d_%02d_%02d_%03d",
		t.Day(), int(t.Month()), t.Year(),
		t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond()/1e6,
	))
}

func (k StorageKey) String() string { return string(k) }
