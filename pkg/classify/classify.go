package classify

import (
	"regexp"
	"strings"

	"github.com/roperoray30-create/meetgo/internal/models"
)

const Unknown = "Unknown"

// The matchers below are ordered rule tables evaluated top to bottom with
// first-match-wins semantics. Ordering is load-bearing: specific entries
// (Windows 11) sit above the generic family entries (Windows 10) that
// would otherwise shadow them. Do not reorder or sort.

type osRule struct {
	name string
	re   *regexp.Regexp
}

var osTable = []osRule{
	{"Windows 11", regexp.MustCompile(`Windows NT 10\.0.*rv:.*\) like Gecko`)},
	{"Windows 10", regexp.MustCompile(`Windows NT 10\.0`)},
	{"Windows 8.1", regexp.MustCompile(`Windows NT 6\.3`)},
	{"Windows 8", regexp.MustCompile(`Windows NT 6\.2`)},
	{"Windows 7", regexp.MustCompile(`Windows NT 6\.1`)},
	{"Windows Vista", regexp.MustCompile(`Windows NT 6\.0`)},
	{"Windows XP", regexp.MustCompile(`Windows NT 5\.1`)},
	{"macOS", regexp.MustCompile(`Mac OS X`)},
	{"iOS", regexp.MustCompile(`iPhone|iPad`)},
	{"Android", regexp.MustCompile(`Android`)},
	{"Linux", regexp.MustCompile(`Linux`)},
	{"Chrome OS", regexp.MustCompile(`CrOS`)},
}

// OS returns the first matching entry of the OS table, or Unknown.
func OS(userAgent string) string {
	for _, rule := range osTable {
		if rule.re.MatchString(userAgent) {
			return rule.name
		}
	}
	return Unknown
}

type browserRule struct {
	name string
	re   *regexp.Regexp
}

var browserTable = []browserRule{
	{"Chrome", regexp.MustCompile(`Chrome/([0-9.]+)`)},
	{"Firefox", regexp.MustCompile(`Firefox/([0-9.]+)`)},
	{"Safari", regexp.MustCompile(`Safari/([0-9.]+)`)},
	{"Edge", regexp.MustCompile(`Edg/([0-9.]+)`)},
	{"Opera", regexp.MustCompile(`OPR/([0-9.]+)`)},
	{"Internet Explorer", regexp.MustCompile(`MSIE ([0-9.]+)`)},
}

// Browser returns the first matching entry of the browser table with its
// captured version token. The tie-break is table order, not specificity:
// an Edge user agent resolves to Chrome because the Chrome entry runs
// first, matching the source table exactly.
func Browser(userAgent string) models.BrowserInfo {
	for _, rule := range browserTable {
		if m := rule.re.FindStringSubmatch(userAgent); m != nil {
			return models.BrowserInfo{Name: rule.name, Version: m[1]}
		}
	}
	return models.BrowserInfo{Name: Unknown, Version: Unknown}
}

// androidTabletBreakpoint is the screen width at or above which an Android
// device is treated as a tablet even when its UA carries a "mobile" token.
const androidTabletBreakpoint = 768

type brandRule struct {
	brand string
	token string
}

var androidBrands = []brandRule{
	{"Samsung", "samsung"},
	{"Huawei", "huawei"},
	{"Xiaomi", "xiaomi"},
	{"Oppo", "oppo"},
	{"Vivo", "vivo"},
	{"LG", "lg"},
	{"Motorola", "motorola"},
}

var (
	iphoneOSRe  = regexp.MustCompile(`iphone os ([0-9_]+)`)
	androidVNRe = regexp.MustCompile(`android ([0-9.]+)`)
)

// ScreenHints carries the screen facts the device matcher refines on.
type ScreenHints struct {
	Width          int
	MaxTouchPoints int
}

// Device classifies the device family from the user agent plus screen
// hints. The laptop-vs-desktop and MacBook-vs-desktop refinements are
// best-effort heuristics over touch capability and screen width, not
// guarantees.
func Device(userAgent string, hints ScreenHints) models.DeviceInfo {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "iphone") {
		osName := "iOS"
		if m := iphoneOSRe.FindStringSubmatch(ua); m != nil {
			osName = "iOS " + strings.ReplaceAll(m[1], "_", ".")
		}
		return models.DeviceInfo{
			Type:     models.DeviceMobile,
			Category: "Smartphone",
			Brand:    "Apple",
			Model:    "iPhone",
			OS:       osName,
		}
	}

	if strings.Contains(ua, "ipad") {
		return models.DeviceInfo{
			Type:     models.DeviceTablet,
			Category: "Tablet",
			Brand:    "Apple",
			Model:    "iPad",
			OS:       "iPadOS",
		}
	}

	if strings.Contains(ua, "android") {
		isTablet := !strings.Contains(ua, "mobile") || hints.Width >= androidTabletBreakpoint

		osName := "Android"
		if m := androidVNRe.FindStringSubmatch(ua); m != nil {
			osName = "Android " + m[1]
		}

		brand := "Android"
		for _, b := range androidBrands {
			if strings.Contains(ua, b.token) {
				brand = b.brand
				break
			}
		}

		model := "Android Smartphone"
		category := "Android Smartphone"
		deviceType := models.DeviceMobile
		if isTablet {
			model = "Android Tablet"
			category = "Android Tablet"
			deviceType = models.DeviceTablet
		}

		return models.DeviceInfo{
			Type:     deviceType,
			Category: category,
			Brand:    brand,
			Model:    model,
			OS:       osName,
		}
	}

	if strings.Contains(ua, "windows") {
		touch := hints.MaxTouchPoints > 0
		deviceType := models.DevicePCLaptop
		model := "Windows PC/Laptop"
		if touch {
			deviceType = models.DeviceTouchLaptop
			model = "Touch-screen laptop"
		}
		return models.DeviceInfo{
			Type:     deviceType,
			Category: "Computer",
			Brand:    "PC",
			Model:    model,
			OS:       OS(userAgent),
		}
	}

	if strings.Contains(ua, "mac os") {
		isMacBook := strings.Contains(ua, "macintosh") && hints.Width <= 1920
		deviceType := models.DeviceMacDesktop
		model := "iMac/Mac Pro"
		if isMacBook {
			deviceType = models.DeviceMacBook
			model = "MacBook"
		}
		return models.DeviceInfo{
			Type:     deviceType,
			Category: "Apple Computer",
			Brand:    "Apple",
			Model:    model,
			OS:       "macOS",
		}
	}

	if strings.Contains(ua, "linux") {
		return models.DeviceInfo{
			Type:     models.DevicePCLaptop,
			Category: "Linux Computer",
			Brand:    "PC",
			Model:    "Linux PC/Laptop",
			OS:       "Linux",
		}
	}

	return models.DeviceInfo{
		Type:     models.DeviceUnknown,
		Category: "Unknown device",
		Brand:    Unknown,
		Model:    Unknown,
		OS:       Unknown,
	}
}

// Classify derives the full classification from a signals snapshot.
// Identical input yields byte-identical output: there is no randomness or
// time-dependence anywhere in the matchers.
func Classify(sig models.RawSignals) models.Classification {
	ua := sig.Browser.UserAgent
	return models.Classification{
		OS:      OS(ua),
		Browser: Browser(ua),
		Device: Device(ua, ScreenHints{
			Width:          sig.Screen.Width,
			MaxTouchPoints: sig.Browser.MaxTouchPoints,
		}),
	}
}
