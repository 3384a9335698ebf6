package dnac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	apConfigPath     = "/dna/intent/api/v1/wireless/accesspoint-configuration/summary"
	deviceHealthPath = "/dna/intent/api/v1/device-health"
	clientCountPath  = "/dna/intent/api/v1/clients/count"
	clientsPath      = "/dna/intent/api/v1/clients"
	siteHealthPath   = "/dna/intent/api/v1/site-health"
	plannedAPsPath   = "/dna/intent/api/v1/wireless/planned-access-points"
)

// pages walks an offset-paginated listing. fn decodes one page and returns
// how many items it held; the walk stops on an empty page or once totalCount
// is covered.
func (c *Client) pages(ctx context.Context, endpoint, path string, query url.Values, policy retryPolicy, requireTotal bool, fn func(items json.RawMessage) (int, error)) error {
	offset := 1
	for {
		q := url.Values{}
		for key, values := range query {
			q[key] = values
		}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var env listEnvelope
		err := c.withRetry(ctx, endpoint, policy, func() error {
			env = listEnvelope{}
			return c.get(ctx, endpoint, path, q, &env)
		})
		if err != nil {
			return err
		}
		if env.Response == nil {
			return &MalformedResponseError{Endpoint: endpoint, Field: "response"}
		}
		if requireTotal && env.TotalCount == nil {
			return &MalformedResponseError{Endpoint: endpoint, Field: "totalCount"}
		}

		n, err := fn(env.Response)
		if err != nil {
			return fmt.Errorf("dnac: %s: decode page: %w", endpoint, err)
		}
		if n == 0 {
			return nil
		}
		offset += n
		if env.TotalCount != nil && offset > *env.TotalCount {
			return nil
		}
		if n < c.pageSize {
			return nil
		}
	}
}

// FetchAPInventory lists the AP configuration summary. Duplicate MACs keep
// the last occurrence.
func (c *Client) FetchAPInventory(ctx context.Context) ([]APConfig, error) {
	var items []APConfig
	err := c.pages(ctx, "ap_inventory", apConfigPath, nil, c.bulk, false, func(raw json.RawMessage) (int, error) {
		var page []APConfig
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, err
		}
		items = append(items, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(items))
	out := items[:0]
	for _, item := range items {
		mac := strings.ToLower(item.MAC)
		if idx, ok := seen[mac]; ok {
			out[idx] = item
			continue
		}
		seen[mac] = len(out)
		out = append(out, item)
	}
	return out, nil
}

// FetchDeviceHealth lists AP health rows with per-radio client counts.
// Duplicate MACs keep the last occurrence and each row gets its effective
// location resolved.
func (c *Client) FetchDeviceHealth(ctx context.Context) ([]DeviceHealth, error) {
	query := url.Values{}
	query.Set("deviceRole", "AP")

	var items []DeviceHealth
	err := c.pages(ctx, "device_health", deviceHealthPath, query, c.bulk, true, func(raw json.RawMessage) (int, error) {
		var page []DeviceHealth
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, err
		}
		items = append(items, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(items))
	out := items[:0]
	for _, item := range items {
		item.EffectiveLocation = resolveEffectiveLocation(item)
		mac := strings.ToLower(item.MAC)
		if idx, ok := seen[mac]; ok {
			out[idx] = item
			continue
		}
		seen[mac] = len(out)
		out = append(out, item)
	}
	return out, nil
}

// resolveEffectiveLocation prefers the hierarchy location when it carries a
// full path, then the SNMP location unless it is blank or the controller
// placeholder, then the site name unless it is blank or the literal "null".
func resolveEffectiveLocation(d DeviceHealth) string {
	loc := strings.TrimSpace(d.Location)
	if loc != "" && len(strings.Split(loc, "/")) >= 5 {
		return d.Location
	}
	snmp := strings.TrimSpace(d.SNMPLocation)
	if snmp != "" && !strings.EqualFold(snmp, "default location") {
		return d.SNMPLocation
	}
	name := strings.TrimSpace(d.LocationName)
	if name != "" && !strings.EqualFold(name, "null") {
		return d.LocationName
	}
	return d.Location
}

// FetchClientCounts returns the aggregate client count per AP MAC.
func (c *Client) FetchClientCounts(ctx context.Context) (map[string]int, error) {
	const endpoint = "clients_count"

	var env listEnvelope
	err := c.withRetry(ctx, endpoint, c.lookup, func() error {
		env = listEnvelope{}
		return c.get(ctx, endpoint, clientCountPath, nil, &env)
	})
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Field: "response"}
	}

	var items []clientCountItem
	if err := json.Unmarshal(env.Response, &items); err != nil {
		return nil, fmt.Errorf("dnac: %s: decode: %w", endpoint, err)
	}
	counts := make(map[string]int, len(items))
	for _, item := range items {
		counts[strings.ToLower(item.MAC)] = item.Count
	}
	return counts, nil
}

// FetchClients enumerates client sessions within the configured site scope.
func (c *Client) FetchClients(ctx context.Context) ([]ClientSession, error) {
	query := url.Values{}
	if c.siteID != "" {
		query.Set("siteId", c.siteID)
	}

	var sessions []ClientSession
	err := c.pages(ctx, "clients", clientsPath, query, c.bulk, false, func(raw json.RawMessage) (int, error) {
		var page []ClientSession
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, err
		}
		sessions = append(sessions, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// FetchSiteHealth lists per-building wireless aggregates. Duplicate site ids
// keep the last occurrence.
func (c *Client) FetchSiteHealth(ctx context.Context) ([]SiteHealth, error) {
	query := url.Values{}
	query.Set("siteType", "building")

	var sites []SiteHealth
	err := c.pages(ctx, "site_health", siteHealthPath, query, c.bulk, false, func(raw json.RawMessage) (int, error) {
		var page []SiteHealth
		if err := json.Unmarshal(raw, &page); err != nil {
			return 0, err
		}
		sites = append(sites, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(sites))
	out := sites[:0]
	for _, site := range sites {
		if idx, ok := seen[site.SiteID]; ok && site.SiteID != "" {
			out[idx] = site
			continue
		}
		seen[site.SiteID] = len(out)
		out = append(out, site)
	}
	return out, nil
}

// FetchPlannedAPs lists planned access points with their designed placement.
func (c *Client) FetchPlannedAPs(ctx context.Context) ([]PlannedAP, error) {
	const endpoint = "planned_aps"

	var env listEnvelope
	err := c.withRetry(ctx, endpoint, c.lookup, func() error {
		env = listEnvelope{}
		return c.get(ctx, endpoint, plannedAPsPath, nil, &env)
	})
	if err != nil {
		return nil, err
	}
	if env.Response == nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Field: "response"}
	}

	var planned []PlannedAP
	if err := json.Unmarshal(env.Response, &planned); err != nil {
		return nil, fmt.Errorf("dnac: %s: decode: %w", endpoint, err)
	}
	return planned, nil
}
