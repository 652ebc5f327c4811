package enrich

import "github.com/roperoray30-create/meetgo/internal/models"

// Downlink thresholds in Mbit/s for the ordered quality classification.
const (
	verySlowDownlink = 0.5
	slowDownlink     = 1.5
	moderateDownlink = 10.0
)

// QualityFromConnection classifies network quality from connection hints
// using ordered thresholds: the first band that matches wins. A missing
// capability reports Unknown, never an error.
func QualityFromConnection(c *models.ConnectionSignals) models.NetworkQuality {
	if c == nil {
		return models.QualityUnknown
	}

	et := c.EffectiveType
	d := c.Downlink

	switch {
	case et == "slow-2g" || (d > 0 && d < verySlowDownlink):
		return models.QualityVerySlow
	case et == "2g" || (d > 0 && d < slowDownlink):
		return models.QualitySlow
	case et == "3g" || (d > 0 && d < moderateDownlink):
		return models.QualityModerate
	case et == "4g" || d >= moderateDownlink:
		return models.QualityFast
	default:
		return models.QualityUnknown
	}
}

var connectionLabels = map[string]string{
	"bluetooth": "Bluetooth",
	"cellular":  "Cellular",
	"ethernet":  "Ethernet",
	"wifi":      "WiFi",
	"wimax":     "WiMAX",
	"other":     "Other",
	"unknown":   "Unknown",
	"slow-2g":   "Cellular (slow 2G)",
	"2g":        "Cellular (2G)",
	"3g":        "Cellular (3G)",
	"4g":        "Cellular (4G/LTE)",
	"5g":        "Cellular (5G)",
}

// ConnectionLabel produces the human-readable connection type, preferring
// the physical type over the effective type when both are present.
func ConnectionLabel(c *models.ConnectionSignals) string {
	if c == nil {
		return "Unknown"
	}

	t := c.Type
	if t == "" {
		t = c.EffectiveType
	}
	if t == "" {
		return "Unknown"
	}
	if label, ok := connectionLabels[t]; ok {
		return label
	}
	return "Connection " + t
}
