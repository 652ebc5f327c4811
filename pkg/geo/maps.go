// Package geo builds externally openable map links for geolocation fixes.
package geo

import (
	"fmt"
	"math"
	"strconv"
)

const (
	defaultZoom = 15
	minZoom     = 10
)

// MapsLink returns a Google Maps URL centered on the fix. Zoom scales
// inversely with the logarithm of the accuracy radius so tighter fixes
// zoom in further, with a floor of 10. Unknown accuracy gets the default
// zoom of 15.
func MapsLink(lat, lng float64, accuracyMeters *float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s&z=%d",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
		Zoom(accuracyMeters),
	)
}

// Zoom computes round(max(10, 20 - log10(accuracy))).
func Zoom(accuracyMeters *float64) int {
	if accuracyMeters == nil || *accuracyMeters <= 0 {
		return defaultZoom
	}
	z := math.Max(minZoom, 20-math.Log10(*accuracyMeters))
	return int(math.Round(z))
}
