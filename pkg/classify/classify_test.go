package classify

import (
	"reflect"
	"testing"

	"github.com/roperoray30-create/meetgo/internal/models"
)

const (
	chromeWin10UA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.71 Safari/537.36"
	win11GeckoUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) like Gecko"
	firefoxLinuxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	safariMacUA    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
	iphoneUA       = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	androidPhoneUA = "Mozilla/5.0 (Linux; Android 14; SM-S918B Samsung) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.43 Mobile Safari/537.36"
	androidTabUA   = "Mozilla/5.0 (Linux; Android 13; SM-X906C Samsung) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.5845.92 Safari/537.36"
	edgeWinUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
)

func TestOS_TableOrder(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"windows 11 before windows 10", win11GeckoUA, "Windows 11"},
		{"generic windows 10", chromeWin10UA, "Windows 10"},
		{"windows 7", "Mozilla/5.0 (Windows NT 6.1; WOW64) Gecko", "Windows 7"},
		{"macos", safariMacUA, "macOS"},
		// iPhone UAs carry "like Mac OS X", and the macOS entry precedes
		// the iOS entry. Table order is the tie-break, so macOS wins.
		{"mac entry shadows ios entry", iphoneUA, "macOS"},
		{"android before linux despite linux token", androidPhoneUA, "Android"},
		{"linux", firefoxLinuxUA, "Linux"},
		{"no match", "curl/8.4.0", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OS(tt.ua); got != tt.want {
				t.Errorf("OS(%q) = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestBrowser_VersionCapture(t *testing.T) {
	got := Browser(chromeWin10UA)

	if got.Name != "Chrome" {
		t.Errorf("Expected Chrome, got %s", got.Name)
	}
	if got.Version != "120.0.6099.71" {
		t.Errorf("Expected version 120.0.6099.71, got %s", got.Version)
	}
}

func TestBrowser_TableOrderNotSpecificity(t *testing.T) {
	// An Edge UA carries both Chrome/ and Edg/ tokens. The Chrome entry
	// sits earlier in the table, so it wins; the tie-break is table order.
	got := Browser(edgeWinUA)

	if got.Name != "Chrome" {
		t.Errorf("Expected table-order winner Chrome, got %s", got.Name)
	}
}

func TestBrowser_Unknown(t *testing.T) {
	got := Browser("curl/8.4.0")

	if got.Name != Unknown || got.Version != Unknown {
		t.Errorf("Expected Unknown/Unknown, got %s/%s", got.Name, got.Version)
	}
}

func TestDevice_AndroidTabletRule(t *testing.T) {
	// No "mobile" token OR width >= 768 means tablet.
	tests := []struct {
		name  string
		ua    string
		width int
		want  string
	}{
		{"no mobile token, narrow screen", androidTabUA, 600, models.DeviceTablet},
		{"mobile token, wide screen", androidPhoneUA, 800, models.DeviceTablet},
		{"mobile token, narrow screen", androidPhoneUA, 360, models.DeviceMobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Device(tt.ua, ScreenHints{Width: tt.width})
			if got.Type != tt.want {
				t.Errorf("Device type = %q, want %q", got.Type, tt.want)
			}
		})
	}
}

func TestDevice_AndroidBrand(t *testing.T) {
	got := Device(androidPhoneUA, ScreenHints{Width: 360})

	if got.Brand != "Samsung" {
		t.Errorf("Expected brand Samsung, got %s", got.Brand)
	}
	if got.OS != "Android 14" {
		t.Errorf("Expected OS Android 14, got %s", got.OS)
	}
}

func TestDevice_WindowsTouchRefinement(t *testing.T) {
	noTouch := Device(chromeWin10UA, ScreenHints{Width: 1920, MaxTouchPoints: 0})
	if noTouch.Type != models.DevicePCLaptop {
		t.Errorf("Expected %s without touch, got %s", models.DevicePCLaptop, noTouch.Type)
	}

	touch := Device(chromeWin10UA, ScreenHints{Width: 1920, MaxTouchPoints: 10})
	if touch.Type != models.DeviceTouchLaptop {
		t.Errorf("Expected %s with touch, got %s", models.DeviceTouchLaptop, touch.Type)
	}
}

func TestDevice_MacBookWidthHeuristic(t *testing.T) {
	laptop := Device(safariMacUA, ScreenHints{Width: 1440})
	if laptop.Type != models.DeviceMacBook {
		t.Errorf("Expected %s at width 1440, got %s", models.DeviceMacBook, laptop.Type)
	}

	desktop := Device(safariMacUA, ScreenHints{Width: 2560})
	if desktop.Type != models.DeviceMacDesktop {
		t.Errorf("Expected %s at width 2560, got %s", models.DeviceMacDesktop, desktop.Type)
	}
}

func TestDevice_IPhoneModel(t *testing.T) {
	got := Device(iphoneUA, ScreenHints{Width: 390})

	want := models.DeviceInfo{
		Type:     models.DeviceMobile,
		Category: "Smartphone",
		Brand:    "Apple",
		Model:    "iPhone",
		OS:       "iOS 17.1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Device = %+v, want %+v", got, want)
	}
}

func TestClassify_ChromeOnWindows10EndToEnd(t *testing.T) {
	sig := models.RawSignals{
		Browser: models.BrowserSignals{UserAgent: chromeWin10UA, MaxTouchPoints: 0},
		Screen:  models.ScreenSignals{Width: 1920, Height: 1080},
	}

	got := Classify(sig)

	if got.OS != "Windows 10" {
		t.Errorf("Expected OS Windows 10, got %s", got.OS)
	}
	if got.Browser.Name != "Chrome" || got.Browser.Version == "" {
		t.Errorf("Expected Chrome with captured version, got %+v", got.Browser)
	}
	if got.Device.Type != models.DevicePCLaptop || got.Device.Brand != "PC" {
		t.Errorf("Expected PC/Laptop on brand PC, got %+v", got.Device)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	sig := models.RawSignals{
		Browser: models.BrowserSignals{UserAgent: androidPhoneUA, MaxTouchPoints: 5},
		Screen:  models.ScreenSignals{Width: 412, Height: 915},
	}

	first := Classify(sig)
	for i := 0; i < 50; i++ {
		if got := Classify(sig); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classification diverged on call %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestCoarseType_Mapping(t *testing.T) {
	tests := []struct {
		fine string
		want string
	}{
		{models.DeviceMobile, "Mobile"},
		{models.DeviceTablet, "Tablet"},
		{models.DeviceTouchLaptop, "Laptop"},
		{models.DeviceMacBook, "Laptop"},
		{models.DevicePCLaptop, "Desktop"},
		{models.DeviceMacDesktop, "Desktop"},
		{models.DeviceUnknown, "Unknown"},
	}

	for _, tt := range tests {
		d := models.DeviceInfo{Type: tt.fine}
		if got := d.CoarseType(); got != tt.want {
			t.Errorf("CoarseType(%s) = %s, want %s", tt.fine, got, tt.want)
		}
	}
}
