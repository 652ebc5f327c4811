package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roperoray30-create/meetgo/internal/models"
)

func testInputs() (models.RawSignals, models.Classification, models.DeviceOwner) {
	sig := models.RawSignals{
		Browser: models.BrowserSignals{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0",
			Language:  "es-ES",
			Platform:  "Win32",
			OnLine:    true,
		},
		Screen:   models.ScreenSignals{Width: 1920, Height: 1080},
		Page:     models.PageSignals{URL: "https://meetgo.app/", Hostname: "meetgo.app"},
		Timezone: models.TimezoneSignals{Timezone: "Europe/Madrid"},
		RemoteIP: "203.0.113.9",
	}
	cls := models.Classification{
		OS:      "Windows 10",
		Browser: models.BrowserInfo{Name: "Chrome", Version: "120.0.0.0"},
		Device:  models.DeviceInfo{Type: models.DevicePCLaptop, Brand: "PC"},
	}
	owner := models.DeviceOwner{DeviceName: "PC_Windows", SystemUser: "Usuario_Windows"}
	return sig, cls, owner
}

func TestAssemble_BothFixesRetained(t *testing.T) {
	sig, cls, owner := testInputs()
	addressFix := &models.GeoFix{Latitude: 40.4, Longitude: -3.7, AccuracyMeters: 10000, Source: models.SourceAddressBased}
	sensorFix := &models.GeoFix{Latitude: 40.4168, Longitude: -3.7038, AccuracyMeters: 12, Source: models.SourceDeviceSensor}

	enr := models.Enrichment{
		PublicIP:   "203.0.113.9",
		Address:    &models.NetworkAddressInfo{IP: "203.0.113.9", City: "Madrid", Country: "Spain", ISP: "ExampleNet"},
		AddressFix: addressFix,
		SensorFix:  sensorFix,
		Quality:    models.QualityFast,
	}

	rec := Assemble(uuid.New(), sig, cls, "PC_Usuario_1435", owner, enr, time.Now())

	if rec.Location.AddressFix == nil || rec.Location.SensorFix == nil {
		t.Fatal("Expected both fixes retained in the record")
	}
	if rec.Location.AddressFix.AccuracyMeters != 10000 {
		t.Errorf("Address fix mutated: %+v", rec.Location.AddressFix)
	}
}

func TestPresented_PrefersSensorFix(t *testing.T) {
	addressFix := &models.GeoFix{AccuracyMeters: 10000, Source: models.SourceAddressBased}
	sensorFix := &models.GeoFix{AccuracyMeters: 12, Source: models.SourceDeviceSensor}

	both := models.LocationReport{AddressFix: addressFix, SensorFix: sensorFix}
	if got := both.Presented(); got.Source != models.SourceDeviceSensor {
		t.Errorf("Expected sensor fix presented, got %s", got.Source)
	}

	addressOnly := models.LocationReport{AddressFix: addressFix}
	if got := addressOnly.Presented(); got.Source != models.SourceAddressBased {
		t.Errorf("Expected address fix presented when alone, got %s", got.Source)
	}

	neither := models.LocationReport{}
	if got := neither.Presented(); got != nil {
		t.Errorf("Expected nil with no fixes, got %+v", got)
	}
}

func TestAssemble_TotalEnrichmentFailureDegrades(t *testing.T) {
	sig, cls, owner := testInputs()

	// Nothing resolved: the record still carries every snapshot-derived
	// field.
	enr := models.Enrichment{Quality: models.QualityUnknown}
	rec := Assemble(uuid.New(), sig, cls, "PC_Usuario_1435", owner, enr, time.Now())

	if rec.Device.Brand != "PC" || rec.Browser.Name != "Chrome" {
		t.Errorf("Classification fields missing: %+v", rec)
	}
	if rec.System.Screen != "1920x1080" {
		t.Errorf("Expected screen 1920x1080, got %s", rec.System.Screen)
	}
	if rec.Location.AddressFix != nil || rec.Location.SensorFix != nil {
		t.Error("Expected no fixes on total enrichment failure")
	}
	if rec.Location.City != "" {
		t.Errorf("Expected no address geography, got %q", rec.Location.City)
	}
	if rec.Network.Quality != models.QualityUnknown {
		t.Errorf("Expected Unknown quality, got %s", rec.Network.Quality)
	}
}

func TestAssemble_AddressGeographyCopied(t *testing.T) {
	sig, cls, owner := testInputs()
	enr := models.Enrichment{
		PublicIP: "203.0.113.9",
		Address:  &models.NetworkAddressInfo{IP: "203.0.113.9", City: "Madrid", Region: "MD", Country: "Spain", ISP: "ExampleNet"},
		Quality:  models.QualityModerate,
	}

	rec := Assemble(uuid.New(), sig, cls, "PC_Usuario_1435", owner, enr, time.Now())

	if rec.Location.IP != "203.0.113.9" || rec.Location.City != "Madrid" || rec.Location.ISP != "ExampleNet" {
		t.Errorf("Address geography not copied: %+v", rec.Location)
	}
}
