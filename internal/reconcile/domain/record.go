// Package domain holds the canonical access point record and the fallback
// merge that builds it from the partially-overlapping upstream feeds.
package domain

import "ap-monitor/internal/dnac"

// Source identifies which upstream feed supplied a field.
type Source string

const (
	SourceAPInventory  Source = "ap_inventory"
	SourceDeviceHealth Source = "device_health"
	SourceClientsCount Source = "clients_count"
	SourceClients      Source = "clients"
	SourceSiteHealth   Source = "site_health"
	SourcePlannedAPs   Source = "planned_aps"
	SourceAPName       Source = "ap_name"
)

// Status classifies how completely a record resolved.
type Status string

const (
	// StatusOK means every required field came from a primary source.
	StatusOK Status = "ok"
	// StatusFallback means at least one field came from a fallback tier
	// (planned placement, hostname parse, session counting).
	StatusFallback Status = "fallback"
	// StatusSiteHealth means the client count is a building-level aggregate,
	// not a per-AP observation.
	StatusSiteHealth Status = "siteHealth"
	// StatusIncomplete means location or client count stayed unresolved.
	StatusIncomplete Status = "incomplete"
)

// Record is one canonical access point, merged across all feeds. MAC is the
// reconciliation key. Sources records per-field provenance; Raw retains the
// source fragments for audit.
type Record struct {
	MAC          string
	Name         string
	Model        string
	IPAddress    string
	Location     string
	ClientCount  *int
	RadioCounts  map[string]int
	Reachability string
	Status       Status
	Sources      map[string]Source
	Raw          map[Source]any
}

// HasClientCount reports whether any source resolved a count.
func (r Record) HasClientCount() bool { return r.ClientCount != nil }

// Inputs carries the six fetcher outputs into one merge pass.
type Inputs struct {
	Inventory    []dnac.APConfig
	DeviceHealth []dnac.DeviceHealth
	ClientCounts map[string]int
	Sessions     []dnac.ClientSession
	SiteHealth   []dnac.SiteHealth
	PlannedAPs   []dnac.PlannedAP
}

// IncompleteDevice is the diagnostics-sink view of a record that no source
// could fully resolve.
type IncompleteDevice struct {
	Key           string            `json:"key"`
	MissingFields []string          `json:"missing_fields"`
	Fields        map[string]string `json:"fields"`
}

// Result is one merge pass over a full fetch batch.
type Result struct {
	Records []Record
	// SiteTotals maps canonical building names onto the site-level wireless
	// client aggregates, for buildings the aggregate job may need when no
	// per-AP data exists.
	SiteTotals map[string]int
	// Incomplete lists records with unresolved required fields.
	Incomplete []IncompleteDevice
	// DroppedNoMAC counts upstream rows discarded for missing MACs.
	DroppedNoMAC int
}
