package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roperoray30-create/meetgo/internal/models"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	errors []ValidationError
}

func New() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

func (v *Validator) ErrorMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v.errors {
		result[err.Field] = err.Message
	}
	return result
}

// ValidateBeacon bounds the visit beacon. It only rejects payloads that
// are structurally abusive; absent capabilities are always acceptable.
func ValidateBeacon(sig models.RawSignals) error {
	v := New()

	if len(sig.Browser.UserAgent) > 1000 {
		v.AddError("browser.userAgent", "too long")
	}
	if sig.Screen.Width < 0 || sig.Screen.Width > 32767 {
		v.AddError("screen.width", "out of range")
	}
	if sig.Screen.Height < 0 || sig.Screen.Height > 32767 {
		v.AddError("screen.height", "out of range")
	}
	if sig.Browser.HardwareConcurrency < 0 || sig.Browser.HardwareConcurrency > 256 {
		v.AddError("browser.hardwareConcurrency", "out of range")
	}
	if len(sig.Cookies.All) > 16384 {
		v.AddError("cookies.all", "too long")
	}

	if !v.IsValid() {
		return fmt.Errorf("validation failed: %v", v.ErrorMap())
	}
	return nil
}

// ValidateFix bounds a device-sensor geolocation report.
func ValidateFix(fix models.GeoFix) error {
	v := New()

	if fix.Latitude < -90 || fix.Latitude > 90 {
		v.AddError("latitude", "out of range")
	}
	if fix.Longitude < -180 || fix.Longitude > 180 {
		v.AddError("longitude", "out of range")
	}
	if fix.AccuracyMeters < 0 {
		v.AddError("accuracy_meters", "negative")
	}

	if !v.IsValid() {
		return fmt.Errorf("validation failed: %v", v.ErrorMap())
	}
	return nil
}

// ValidateBooking checks the booking-confirmation payload.
func ValidateBooking(b models.BookingRecord) error {
	v := New()

	if strings.TrimSpace(b.Name) == "" {
		v.AddError("name", "required")
	}
	if b.Email == "" {
		v.AddError("email", "required")
	} else if !emailRegex.MatchString(b.Email) {
		v.AddError("email", "invalid format")
	}
	if b.Date == "" {
		v.AddError("date", "required")
	}
	if b.Time == "" {
		v.AddError("time", "required")
	}
	if len(b.Description) > 4096 {
		v.AddError("description", "too long")
	}

	if !v.IsValid() {
		return fmt.Errorf("validation failed: %v", v.ErrorMap())
	}
	return nil
}

// SanitizeString strips NUL and non-printable control characters.
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	var result strings.Builder
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
