package domain

import (
	"fmt"
	"sort"
	"strings"

	"ap-monitor/internal/dnac"
	"ap-monitor/internal/location"
)

// Merge reconciles the fetcher outputs into one record per access point.
// Each required field is filled from the highest-priority source holding a
// value and the winner is recorded per field. Output order is deterministic
// (sorted by MAC), so equal inputs always produce equal results.
func Merge(inputs Inputs) Result {
	result := Result{SiteTotals: siteTotals(inputs.SiteHealth)}

	inventory := make(map[string]dnac.APConfig)
	health := make(map[string]dnac.DeviceHealth)
	planned := make(map[string]dnac.PlannedAP)
	sessions := make(map[string]int)

	macs := make([]string, 0, len(inputs.Inventory)+len(inputs.DeviceHealth))
	add := func(mac string) string {
		mac = strings.ToLower(strings.TrimSpace(mac))
		if mac == "" {
			return ""
		}
		if _, seenInv := inventory[mac]; !seenInv {
			if _, seenHealth := health[mac]; !seenHealth {
				macs = append(macs, mac)
			}
		}
		return mac
	}

	for _, item := range inputs.Inventory {
		mac := add(item.MAC)
		if mac == "" {
			result.DroppedNoMAC++
			continue
		}
		inventory[mac] = item
	}
	for _, item := range inputs.DeviceHealth {
		mac := add(item.MAC)
		if mac == "" {
			result.DroppedNoMAC++
			continue
		}
		health[mac] = item
	}
	for _, item := range inputs.PlannedAPs {
		if mac := strings.ToLower(strings.TrimSpace(item.MAC)); mac != "" {
			planned[mac] = item
		}
	}
	for _, session := range inputs.Sessions {
		if mac := strings.ToLower(strings.TrimSpace(session.APMac)); mac != "" {
			sessions[mac]++
		}
	}

	sort.Strings(macs)
	result.Records = make([]Record, 0, len(macs))
	for _, mac := range macs {
		record := mergeOne(mac, inventory, health, planned, sessions, inputs.ClientCounts, result.SiteTotals)
		if missing := missingFields(record); len(missing) > 0 {
			result.Incomplete = append(result.Incomplete, incompleteDevice(record, missing))
		}
		result.Records = append(result.Records, record)
	}
	return result
}

func mergeOne(
	mac string,
	inventory map[string]dnac.APConfig,
	health map[string]dnac.DeviceHealth,
	planned map[string]dnac.PlannedAP,
	sessions map[string]int,
	counts map[string]int,
	siteTotals map[string]int,
) Record {
	record := Record{
		MAC:     mac,
		Sources: make(map[string]Source),
		Raw:     make(map[Source]any),
	}

	inv, hasInv := inventory[mac]
	dh, hasHealth := health[mac]
	if hasInv {
		record.Raw[SourceAPInventory] = inv
	}
	if hasHealth {
		record.Raw[SourceDeviceHealth] = dh
		record.Reachability = dh.Reachability
		if len(dh.RadioCounts) > 0 {
			record.RadioCounts = make(map[string]int, len(dh.RadioCounts))
			for radio, n := range dh.RadioCounts {
				record.RadioCounts[radio] = n
			}
		}
	}

	pick := func(field, primary, secondary string) {
		switch {
		case hasInv && primary != "":
			setField(&record, field, primary, SourceAPInventory)
		case hasHealth && secondary != "":
			setField(&record, field, secondary, SourceDeviceHealth)
		}
	}
	if hasInv {
		record.Sources["macAddress"] = SourceAPInventory
	} else if hasHealth {
		record.Sources["macAddress"] = SourceDeviceHealth
	}
	pick("name", inv.Name, dh.Name)
	pick("model", inv.Model, dh.Model)
	pick("ipAddress", inv.IPAddress, dh.IPAddress)

	fallbackUsed := mergeLocation(&record, dh, hasHealth, planned[mac])
	fromSite := mergeClientCount(&record, mac, dh, hasHealth, sessions, counts, siteTotals, &fallbackUsed)

	switch {
	case len(missingFields(record)) > 0:
		record.Status = StatusIncomplete
	case fromSite:
		record.Status = StatusSiteHealth
	case fallbackUsed:
		record.Status = StatusFallback
	default:
		record.Status = StatusOK
	}
	return record
}

// mergeLocation fills location from device health, then planned placement,
// then the hostname parse. Reports whether a fallback tier won.
func mergeLocation(record *Record, dh dnac.DeviceHealth, hasHealth bool, plannedAP dnac.PlannedAP) bool {
	if hasHealth && dh.EffectiveLocation != "" {
		setField(record, "location", dh.EffectiveLocation, SourceDeviceHealth)
		return false
	}
	if plannedAP.Location != "" {
		setField(record, "location", plannedAP.Location, SourcePlannedAPs)
		record.Raw[SourcePlannedAPs] = plannedAP
		return true
	}
	if building, floor, number, ok := location.ParseAPName(record.Name); ok {
		synthesized := fmt.Sprintf("Global/Keele Campus/%s/%s/%s", building, floor, number)
		setField(record, "location", synthesized, SourceAPName)
		return true
	}
	return false
}

// mergeClientCount fills the aggregate count from the count endpoint, then
// the per-radio sums, then session counting, then the site aggregate.
// Reports whether the site tier won; session counting flags fallbackUsed.
func mergeClientCount(
	record *Record,
	mac string,
	dh dnac.DeviceHealth,
	hasHealth bool,
	sessions map[string]int,
	counts map[string]int,
	siteTotals map[string]int,
	fallbackUsed *bool,
) bool {
	if n, ok := counts[mac]; ok {
		record.ClientCount = &n
		record.Sources["clientCount"] = SourceClientsCount
		return false
	}
	if hasHealth && len(dh.RadioCounts) > 0 {
		total := dh.TotalClients()
		record.ClientCount = &total
		record.Sources["clientCount"] = SourceDeviceHealth
		return false
	}
	if n := sessions[mac]; n > 0 {
		record.ClientCount = &n
		record.Sources["clientCount"] = SourceClients
		*fallbackUsed = true
		return false
	}
	// Last resort: the building-level aggregate, keyed by site name. Usable
	// only when the record's location maps onto a known site.
	if building, _, ok := location.ParseLocation(record.Location); ok {
		if canonical, ok := location.NormalizeBuilding(building); ok {
			if total, ok := siteTotals[canonical]; ok {
				record.ClientCount = &total
				record.Sources["clientCount"] = SourceSiteHealth
				return true
			}
		}
	}
	return false
}

func siteTotals(sites []dnac.SiteHealth) map[string]int {
	totals := make(map[string]int, len(sites))
	for _, site := range sites {
		if site.WirelessClients == nil {
			continue
		}
		canonical, ok := location.NormalizeBuilding(site.SiteName)
		if !ok {
			continue
		}
		totals[canonical] = *site.WirelessClients
	}
	return totals
}

func setField(record *Record, field, value string, source Source) {
	switch field {
	case "name":
		record.Name = value
	case "model":
		record.Model = value
	case "ipAddress":
		record.IPAddress = value
	case "location":
		record.Location = value
	}
	record.Sources[field] = source
}

func missingFields(record Record) []string {
	var missing []string
	if record.Location == "" {
		missing = append(missing, "location")
	}
	if record.ClientCount == nil {
		missing = append(missing, "clientCount")
	}
	return missing
}

func incompleteDevice(record Record, missing []string) IncompleteDevice {
	fields := make(map[string]string, len(record.Sources))
	for field, source := range record.Sources {
		fields[field] = string(source)
	}
	return IncompleteDevice{
		Key:           record.MAC,
		MissingFields: missing,
		Fields:        fields,
	}
}
