package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/roperoray30-create/meetgo/internal/models"
	"github.com/roperoray30-create/meetgo/pkg/logger"
)

const maxProbeBody = 1 << 20

// resolveAddress determines the visitor's public address. When the
// request already arrived from a public unicast address that address is
// authoritative; otherwise the probe queries the primary resolution
// endpoint and, on any failure, exactly one fallback. Both failing leaves
// the address absent for this invocation — there are no further retries.
func (p *Pipeline) resolveAddress(ctx context.Context, remoteIP string) (string, error) {
	if ip := net.ParseIP(remoteIP); ip != nil && ip.IsGlobalUnicast() && !ip.IsPrivate() {
		return remoteIP, nil
	}

	ip, primaryErr := p.fetchAddress(ctx, p.cfg.AddressPrimaryURL)
	if primaryErr == nil {
		return ip, nil
	}

	ip, fallbackErr := p.fetchAddress(ctx, p.cfg.AddressFallbackURL)
	if fallbackErr == nil {
		return ip, nil
	}

	return "", fmt.Errorf("primary (%v) and fallback failed: %w", primaryErr, fallbackErr)
}

// addressPayload accepts both provider shapes: one names the field "ip",
// the other "origin".
type addressPayload struct {
	IP     string `json:"ip"`
	Origin string `json:"origin"`
}

func (p *Pipeline) fetchAddress(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close probe response body", map[string]any{"error": err.Error()})
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var payload addressPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	addr := payload.IP
	if addr == "" {
		addr = payload.Origin
	}
	// Proxy-aware providers may report a comma-joined chain.
	addr = strings.TrimSpace(strings.Split(addr, ",")[0])
	if addr == "" {
		return "", fmt.Errorf("empty address in response from %s", endpoint)
	}
	return addr, nil
}

// geoPayload is the address-geolocation provider response. An Error of
// true is the provider's explicit "no data" marker and maps to absence.
type geoPayload struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
	Postal      string   `json:"postal"`
	Timezone    string   `json:"timezone"`
	Org         string   `json:"org"`
	ASN         string   `json:"asn"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// locateAddress resolves coarse geography for a public address. Returns
// (nil, nil) when the provider reports the address as unlocatable.
func (p *Pipeline) locateAddress(ctx context.Context, ip string) (*models.NetworkAddressInfo, error) {
	if p.cache != nil {
		if cached, err := p.cache.GetIPInfo(ctx, ip); err == nil && cached != nil {
			return cached, nil
		}
	}

	endpoint := fmt.Sprintf(p.cfg.GeoURLTemplate, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close probe response body", map[string]any{"error": err.Error()})
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload geoPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if payload.Error {
		logger.Debug("Geolocation provider reported no data", map[string]any{
			"ip":     ip,
			"reason": payload.Reason,
		})
		return nil, nil
	}

	info := &models.NetworkAddressInfo{
		IP:          payload.IP,
		City:        payload.City,
		Region:      payload.Region,
		Country:     payload.CountryName,
		CountryCode: payload.CountryCode,
		Postal:      payload.Postal,
		Timezone:    payload.Timezone,
		ISP:         payload.Org,
		ASN:         payload.ASN,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
	}
	if info.IP == "" {
		info.IP = ip
	}

	if p.cache != nil {
		if err := p.cache.SetIPInfo(ctx, ip, info); err != nil {
			logger.Debug("Failed to cache geolocation result", map[string]any{"error": err.Error()})
		}
	}

	return info, nil
}
