package dnac

import "encoding/json"

// listEnvelope is the common wrapper every intent API answer uses.
type listEnvelope struct {
	Response   json.RawMessage `json:"response"`
	TotalCount *int            `json:"totalCount"`
}

// APConfig is one row from the access point configuration summary.
type APConfig struct {
	Name      string `json:"apName"`
	MAC       string `json:"macAddress"`
	Model     string `json:"apModel"`
	IPAddress string `json:"primaryIpAddress"`
	Location  string `json:"location"`
}

// DeviceHealth is one row from the device health listing for APs.
// EffectiveLocation is resolved client-side after the fetch and is not part
// of the wire format.
type DeviceHealth struct {
	Name         string         `json:"name"`
	MAC          string         `json:"macAddress"`
	Model        string         `json:"model"`
	IPAddress    string         `json:"ipAddress"`
	Location     string         `json:"location"`
	SNMPLocation string         `json:"snmpLocation"`
	LocationName string         `json:"locationName"`
	Reachability string         `json:"reachabilityHealth"`
	RadioCounts  map[string]int `json:"clientCount"`

	EffectiveLocation string `json:"-"`
}

// TotalClients sums the per-radio counts.
func (d DeviceHealth) TotalClients() int {
	total := 0
	for _, n := range d.RadioCounts {
		total += n
	}
	return total
}

// clientCountItem is one row from the clients/count endpoint.
type clientCountItem struct {
	MAC   string `json:"macAddress"`
	Count int    `json:"count"`
}

// ClientSession is one associated client as reported by the clients listing.
type ClientSession struct {
	MAC   string `json:"macAddress"`
	APMac string `json:"apMac"`
}

// SiteHealth is one building-level aggregate row.
type SiteHealth struct {
	SiteID          string `json:"siteId"`
	SiteName        string `json:"siteName"`
	SiteType        string `json:"siteType"`
	WirelessClients *int   `json:"numberOfWirelessClients"`
}

// PlannedAP is one planned access point with its designed placement.
type PlannedAP struct {
	Name     string `json:"name"`
	MAC      string `json:"macAddress"`
	Location string `json:"location"`
}
