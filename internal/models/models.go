package models

import (
	"time"

	"github.com/google/uuid"
)

// RawSignals is the snapshot of environment facts the booking page reports
// in its visit beacon, merged with what the server observes on the request.
// It is built once per visit by the collector and read-only afterwards.
type RawSignals struct {
	CapturedAt time.Time `json:"captured_at"`

	Browser    BrowserSignals     `json:"browser"`
	Screen     ScreenSignals      `json:"screen"`
	Window     WindowSignals      `json:"window"`
	Page       PageSignals        `json:"page"`
	Timezone   TimezoneSignals    `json:"timezone"`
	Connection *ConnectionSignals `json:"connection,omitempty"` // nil when the capability is absent
	Memory     *MemorySignals     `json:"memory,omitempty"`
	Battery    *PowerStatus       `json:"battery,omitempty"`
	Cookies    CookieSignals      `json:"cookies"`
	Navigation NavigationSignals  `json:"navigation"`

	// RemoteIP is the peer address the server saw, which may be a proxy.
	RemoteIP string `json:"remote_ip,omitempty"`
}

type BrowserSignals struct {
	UserAgent           string   `json:"userAgent"`
	Language            string   `json:"language,omitempty"`
	Languages           []string `json:"languages,omitempty"`
	Platform            string   `json:"platform,omitempty"`
	Vendor              string   `json:"vendor,omitempty"`
	CookieEnabled       bool     `json:"cookieEnabled"`
	OnLine              bool     `json:"onLine"`
	HardwareConcurrency int      `json:"hardwareConcurrency,omitempty"`
	MaxTouchPoints      int      `json:"maxTouchPoints,omitempty"`
	WebDriver           bool     `json:"webdriver,omitempty"`
	DoNotTrack          string   `json:"doNotTrack,omitempty"`
}

type ScreenSignals struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	AvailWidth       int     `json:"availWidth,omitempty"`
	AvailHeight      int     `json:"availHeight,omitempty"`
	ColorDepth       int     `json:"colorDepth,omitempty"`
	PixelDepth       int     `json:"pixelDepth,omitempty"`
	Orientation      string  `json:"orientation,omitempty"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`
}

type WindowSignals struct {
	InnerWidth  int `json:"innerWidth,omitempty"`
	InnerHeight int `json:"innerHeight,omitempty"`
	OuterWidth  int `json:"outerWidth,omitempty"`
	OuterHeight int `json:"outerHeight,omitempty"`
	ScreenX     int `json:"screenX,omitempty"`
	ScreenY     int `json:"screenY,omitempty"`
	ScrollX     int `json:"scrollX,omitempty"`
	ScrollY     int `json:"scrollY,omitempty"`
}

type PageSignals struct {
	URL      string `json:"url,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Pathname string `json:"pathname,omitempty"`
	Search   string `json:"search,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Title    string `json:"title,omitempty"`
	Charset  string `json:"charset,omitempty"`
}

type TimezoneSignals struct {
	Timezone       string `json:"timezone,omitempty"`
	TimezoneOffset int    `json:"timezoneOffset,omitempty"`
	Locale         string `json:"locale,omitempty"`
}

type ConnectionSignals struct {
	EffectiveType string  `json:"effectiveType,omitempty"`
	Type          string  `json:"type,omitempty"`
	Downlink      float64 `json:"downlink,omitempty"`
	DownlinkMax   float64 `json:"downlinkMax,omitempty"`
	RTT           float64 `json:"rtt,omitempty"`
	SaveData      bool    `json:"saveData,omitempty"`
}

type MemorySignals struct {
	DeviceMemory float64 `json:"deviceMemory"`
}

// PowerStatus mirrors the battery capability. ChargingTime and
// DischargingTime are seconds; Level is 0..1.
type PowerStatus struct {
	Charging        bool    `json:"charging"`
	ChargingTime    float64 `json:"chargingTime,omitempty"`
	DischargingTime float64 `json:"dischargingTime,omitempty"`
	Level           float64 `json:"level"`
}

type CookieSignals struct {
	All     string          `json:"all,omitempty"`
	Enabled bool            `json:"enabled"`
	Count   int             `json:"count"`
	Session []SessionCookie `json:"session_cookies,omitempty"`
}

type SessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type NavigationSignals struct {
	Referrer       string      `json:"referrer,omitempty"`
	PreviousPage   string      `json:"previousPage,omitempty"`
	HistoryLength  int         `json:"historyLength,omitempty"`
	SessionStorage StorageInfo `json:"sessionStorage"`
	LocalStorage   StorageInfo `json:"localStorage"`
}

// StorageInfo describes one key-value storage area. Available=false is the
// typed marker for a locked or missing storage facility.
type StorageInfo struct {
	Available bool              `json:"available"`
	ItemCount int               `json:"itemCount"`
	Keys      []string          `json:"keys,omitempty"`
	Items     map[string]string `json:"items,omitempty"`
}

// Classification is derived deterministically from RawSignals.
type Classification struct {
	OS      string      `json:"os"`
	Browser BrowserInfo `json:"browser"`
	Device  DeviceInfo  `json:"device"`
}

type BrowserInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DeviceInfo.Type keeps the fine-grained labels of the matcher
// ("PC/Laptop", "Touch Laptop", "MacBook", ...); CoarseType folds them into
// the Mobile/Tablet/Laptop/Desktop/Unknown classes.
type DeviceInfo struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	OS       string `json:"os"`
}

const (
	DeviceMobile      = "Mobile"
	DeviceTablet      = "Tablet"
	DevicePCLaptop    = "PC/Laptop"
	DeviceTouchLaptop = "Touch Laptop"
	DeviceMacBook     = "MacBook"
	DeviceMacDesktop  = "iMac/Mac"
	DeviceUnknown     = "Unknown"
)

func (d DeviceInfo) CoarseType() string {
	switch d.Type {
	case DeviceMobile:
		return "Mobile"
	case DeviceTablet:
		return "Tablet"
	case DeviceTouchLaptop, DeviceMacBook:
		return "Laptop"
	case DevicePCLaptop, DeviceMacDesktop:
		return "Desktop"
	default:
		return "Unknown"
	}
}

// DeviceOwner is a coarse, display-only guess at who owns the device.
type DeviceOwner struct {
	DeviceName   string `json:"deviceName"`
	SystemUser   string `json:"systemUser"`
	ComputerName string `json:"computerName,omitempty"`
}

// GeoSource tags which probe produced a fix.
type GeoSource string

const (
	SourceAddressBased GeoSource = "address"
	SourceDeviceSensor GeoSource = "sensor"
)

// GeoFix is one geolocation estimate. Fixes from different sources are
// never merged: their accuracies differ by orders of magnitude.
type GeoFix struct {
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	AccuracyMeters   float64   `json:"accuracy_meters"`
	Altitude         *float64  `json:"altitude,omitempty"`
	AltitudeAccuracy *float64  `json:"altitude_accuracy,omitempty"`
	Heading          *float64  `json:"heading,omitempty"`
	Speed            *float64  `json:"speed,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Source           GeoSource `json:"source"`
	MapsURL          string    `json:"maps_url,omitempty"`
}

// NetworkAddressInfo is present only when both the address lookup and the
// address geolocation probe succeeded.
type NetworkAddressInfo struct {
	IP          string   `json:"ip"`
	City        string   `json:"city,omitempty"`
	Region      string   `json:"region,omitempty"`
	Country     string   `json:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	Postal      string   `json:"postal,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	ISP         string   `json:"isp,omitempty"`
	ASN         string   `json:"asn,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type NetworkQuality string

const (
	QualityVerySlow NetworkQuality = "Very Slow"
	QualitySlow     NetworkQuality = "Slow"
	QualityModerate NetworkQuality = "Moderate"
	QualityFast     NetworkQuality = "Fast"
	QualityUnknown  NetworkQuality = "Unknown"
)

// Enrichment is the join of every asynchronous probe. Each field is owned
// by exactly one probe; absent fields mean the probe failed, timed out or
// the capability did not exist.
type Enrichment struct {
	PublicIP       string              `json:"public_ip,omitempty"`
	Address        *NetworkAddressInfo `json:"address,omitempty"`
	AddressFix     *GeoFix             `json:"address_fix,omitempty"`
	SensorFix      *GeoFix             `json:"sensor_fix,omitempty"`
	Power          *PowerStatus        `json:"power,omitempty"`
	Quality        NetworkQuality      `json:"network_quality"`
	ConnectionType string              `json:"connection_type,omitempty"`
}

// LocationReport carries both fixes verbatim. Presented is the single fix
// presentation contexts should use.
type LocationReport struct {
	IP         string  `json:"ip,omitempty"`
	City       string  `json:"city,omitempty"`
	Region     string  `json:"region,omitempty"`
	Country    string  `json:"country,omitempty"`
	ISP        string  `json:"isp,omitempty"`
	AddressFix *GeoFix `json:"geolocation_ip,omitempty"`
	SensorFix  *GeoFix `json:"geolocation_gps,omitempty"`
}

// Presented prefers the sensor fix: its reported accuracy is always
// tighter than the nominal city-level radius of an address fix.
func (l LocationReport) Presented() *GeoFix {
	if l.SensorFix != nil {
		return l.SensorFix
	}
	return l.AddressFix
}

type SystemReport struct {
	Screen   string `json:"screen"`
	Timezone string `json:"timezone,omitempty"`
	Language string `json:"language,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type SessionReport struct {
	URL       string `json:"url,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	UserAgent string `json:"userAgent"`
	Hostname  string `json:"hostname,omitempty"`
	RemoteIP  string `json:"remote_ip,omitempty"`
}

type NetworkReport struct {
	OnLine         bool           `json:"onLine"`
	ConnectionType string         `json:"connectionType,omitempty"`
	Bandwidth      *float64       `json:"estimatedBandwidth,omitempty"`
	Quality        NetworkQuality `json:"networkQuality"`
}

// VisitRecord is the canonical per-visit profile. It is assembled once and
// immutable afterwards; ownership passes to the persistence adapter.
type VisitRecord struct {
	VisitID     uuid.UUID         `json:"visit_id"`
	User        string            `json:"user"`
	DeviceOwner DeviceOwner       `json:"deviceOwner"`
	Device      DeviceInfo        `json:"device"`
	Browser     BrowserInfo       `json:"browser"`
	Location    LocationReport    `json:"location"`
	System      SystemReport      `json:"system"`
	Session     SessionReport     `json:"session"`
	Network     NetworkReport     `json:"network"`
	Power       *PowerStatus      `json:"battery,omitempty"`
	Cookies     CookieSignals     `json:"cookies"`
	Navigation  NavigationSignals `json:"navigation"`
	CapturedAt  time.Time         `json:"captured_at"`
	AssembledAt time.Time         `json:"assembled_at"`
}

// BookingRecord is the narrower record captured at booking confirmation.
type BookingRecord struct {
	VisitID     *uuid.UUID `json:"visit_id,omitempty"`
	User        string     `json:"user,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	MeetingID   string     `json:"meetingId"`
	MeetingURL  string     `json:"meetingUrl,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
