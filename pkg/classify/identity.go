package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/roperoray30-create/meetgo/internal/models"
)

// UserLabel builds the display name for a visit: a device-brand token plus
// the local hour and minute concatenated without separators. The suffix
// changes every minute, so the label is NOT stable across calls and must
// never be used for deduplication or access control.
func UserLabel(userAgent string, now time.Time) string {
	base := "Usuario_Anonimo"

	switch {
	case strings.Contains(userAgent, "Mac OS X"):
		base = "MacBook_Usuario"
	case strings.Contains(userAgent, "Windows"):
		base = "PC_Usuario"
	case strings.Contains(userAgent, "iPhone"):
		base = "iPhone_Usuario"
		if m := iphoneOSMajorRe.FindStringSubmatch(userAgent); m != nil {
			base = "iPhone_iOS" + m[1]
		}
	case strings.Contains(userAgent, "iPad"):
		base = "iPad_Usuario"
	case strings.Contains(userAgent, "Android"):
		base = "Android_Usuario"
		for _, b := range androidLabelBrands {
			if strings.Contains(userAgent, b.token) {
				base = b.brand + "_Usuario"
				break
			}
		}
	}

	// Hour and minute are deliberately unpadded, matching the observed
	// label format (9:05 yields "_95").
	return fmt.Sprintf("%s_%d%d", base, now.Hour(), now.Minute())
}

var iphoneOSMajorRe = regexp.MustCompile(`iPhone OS ([0-9]+)`)

// Label brand tokens match against the raw (case-preserved) user agent.
var androidLabelBrands = []brandRule{
	{"Samsung", "Samsung"},
	{"Huawei", "Huawei"},
	{"Xiaomi", "Xiaomi"},
	{"Oppo", "OPPO"},
	{"Vivo", "Vivo"},
	{"LG", "LG"},
	{"Motorola", "Motorola"},
}

// Owner derives the coarse device-owner label shown next to a visit. It is
// a heuristic over the user agent only and carries no authenticated
// identity.
func Owner(userAgent string) models.DeviceOwner {
	switch {
	case strings.Contains(userAgent, "Mac OS X"):
		return models.DeviceOwner{DeviceName: "MacBook", SystemUser: "Usuario_Mac"}
	case strings.Contains(userAgent, "Windows"):
		return models.DeviceOwner{DeviceName: "PC_Windows", SystemUser: "Usuario_Windows"}
	case strings.Contains(userAgent, "iPhone"):
		return models.DeviceOwner{DeviceName: "iPhone", SystemUser: "Propietario_iPhone"}
	case strings.Contains(userAgent, "iPad"):
		return models.DeviceOwner{DeviceName: "iPad", SystemUser: "Propietario_iPad"}
	case strings.Contains(userAgent, "Android"):
		brand := "Android"
		for _, b := range androidLabelBrands {
			if strings.Contains(userAgent, b.token) {
				brand = b.brand
				break
			}
		}
		return models.DeviceOwner{DeviceName: brand, SystemUser: "Propietario_" + brand}
	}
	return models.DeviceOwner{DeviceName: "Dispositivo_Desconocido", SystemUser: "Usuario_Desconocido"}
}
