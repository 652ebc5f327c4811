// Package collector normalizes the visit beacon posted by the booking page
// into an immutable RawSignals snapshot, filling gaps from what the server
// observed on the request itself. Collection is a pure read and never
// fails: an inaccessible sub-facility degrades to its typed "unavailable"
// marker instead of aborting the snapshot.
package collector

import (
	"net/url"
	"strings"
	"time"

	"github.com/roperoray30-create/meetgo/internal/models"
)

// RequestFacts are the server-observed request headers backing up the
// beacon when the client omitted a field.
type RequestFacts struct {
	RemoteIP       string
	UserAgent      string
	Referer        string
	AcceptLanguage string
	Cookie         string
}

// sessionTokens mark cookie names that look session-scoped.
var sessionTokens = []string{"session", "sid", "jsessionid", "phpsessid", "auth", "token"}

// Collect merges the beacon with request facts into the per-visit
// snapshot. The returned value is complete: every optional area either
// carries data or its unavailable marker.
func Collect(beacon models.RawSignals, req RequestFacts, now time.Time) models.RawSignals {
	sig := beacon

	if sig.CapturedAt.IsZero() {
		sig.CapturedAt = now
	}
	sig.RemoteIP = req.RemoteIP

	if sig.Browser.UserAgent == "" {
		sig.Browser.UserAgent = req.UserAgent
	}
	if sig.Browser.Language == "" {
		sig.Browser.Language = primaryLanguage(req.AcceptLanguage)
	}
	if sig.Page.Referrer == "" {
		sig.Page.Referrer = req.Referer
	}

	if sig.Cookies.All == "" {
		sig.Cookies.All = req.Cookie
	}
	sig.Cookies.Count = countCookies(sig.Cookies.All)
	sig.Cookies.Session = sessionCookies(sig.Cookies.All)

	if sig.Navigation.Referrer == "" {
		sig.Navigation.Referrer = sig.Page.Referrer
	}
	sig.Navigation.PreviousPage = referrerHost(sig.Navigation.Referrer)
	sig.Navigation.SessionStorage = normalizeStorage(sig.Navigation.SessionStorage)
	sig.Navigation.LocalStorage = normalizeStorage(sig.Navigation.LocalStorage)

	return sig
}

// normalizeStorage keeps the reported area consistent: an area with no
// keys and no availability claim is the "unavailable" marker.
func normalizeStorage(s models.StorageInfo) models.StorageInfo {
	if !s.Available && len(s.Keys) == 0 && len(s.Items) == 0 {
		return models.StorageInfo{Available: false, ItemCount: 0}
	}
	s.Available = true
	if s.ItemCount == 0 {
		s.ItemCount = len(s.Keys)
	}
	return s
}

func countCookies(raw string) int {
	if raw == "" {
		return 0
	}
	count := 0
	for _, c := range strings.Split(raw, ";") {
		if strings.TrimSpace(c) != "" {
			count++
		}
	}
	return count
}

func sessionCookies(raw string) []models.SessionCookie {
	var found []models.SessionCookie
	for _, c := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(c), "=")
		if !ok || name == "" || value == "" {
			continue
		}
		lower := strings.ToLower(name)
		for _, token := range sessionTokens {
			if strings.Contains(lower, token) {
				found = append(found, models.SessionCookie{Name: name, Value: value})
				break
			}
		}
	}
	return found
}

func primaryLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return ""
	}
	first := strings.Split(acceptLanguage, ",")[0]
	lang, _, _ := strings.Cut(strings.TrimSpace(first), ";")
	return lang
}

func referrerHost(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return u.Hostname()
}
