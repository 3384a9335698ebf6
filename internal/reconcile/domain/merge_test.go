package domain

import (
	"reflect"
	"testing"

	"ap-monitor/internal/dnac"
)

func intPtr(n int) *int { return &n }

func TestMergeFieldPriorities(t *testing.T) {
	inputs := Inputs{
		Inventory: []dnac.APConfig{
			{MAC: "AA", Name: "AP1"},
		},
		DeviceHealth: []dnac.DeviceHealth{
			{
				MAC:               "AA",
				EffectiveLocation: "Global/Campus/Building/Floor",
				RadioCounts:       map[string]int{"radio0": 5},
			},
		},
	}

	result := Merge(inputs)
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	record := result.Records[0]

	if record.Name != "AP1" || record.Sources["name"] != SourceAPInventory {
		t.Fatalf("name = %q from %q, want AP1 from ap_inventory", record.Name, record.Sources["name"])
	}
	if record.Location != "Global/Campus/Building/Floor" || record.Sources["location"] != SourceDeviceHealth {
		t.Fatalf("location = %q from %q", record.Location, record.Sources["location"])
	}
	if record.ClientCount == nil || *record.ClientCount != 5 {
		t.Fatalf("clientCount = %v, want 5", record.ClientCount)
	}
	if record.Sources["clientCount"] != SourceDeviceHealth {
		t.Fatalf("clientCount source = %q", record.Sources["clientCount"])
	}
	if record.Status != StatusOK {
		t.Fatalf("status = %q, want ok", record.Status)
	}
}

func TestMergeClientCountTierOrder(t *testing.T) {
	base := Inputs{
		Inventory: []dnac.APConfig{{MAC: "aa", Name: "k388-studc-b-1"}},
		DeviceHealth: []dnac.DeviceHealth{{
			MAC:               "aa",
			EffectiveLocation: "Global/Keele Campus/Student Centre/Basement/1",
			RadioCounts:       map[string]int{"radio0": 2, "radio1": 3},
		}},
		Sessions: []dnac.ClientSession{{APMac: "aa"}, {APMac: "aa"}},
		SiteHealth: []dnac.SiteHealth{
			{SiteName: "Student Centre", WirelessClients: intPtr(40)},
		},
	}

	// clients_count wins over everything.
	withCounts := base
	withCounts.ClientCounts = map[string]int{"aa": 9}
	record := Merge(withCounts).Records[0]
	if *record.ClientCount != 9 || record.Sources["clientCount"] != SourceClientsCount {
		t.Fatalf("clients_count tier: %v from %q", record.ClientCount, record.Sources["clientCount"])
	}

	// Then the per-radio sum.
	record = Merge(base).Records[0]
	if *record.ClientCount != 5 || record.Sources["clientCount"] != SourceDeviceHealth {
		t.Fatalf("device_health tier: %v from %q", record.ClientCount, record.Sources["clientCount"])
	}

	// Then session counting, marked as a fallback.
	noRadios := base
	noRadios.DeviceHealth = []dnac.DeviceHealth{{
		MAC:               "aa",
		EffectiveLocation: "Global/Keele Campus/Student Centre/Basement/1",
	}}
	record = Merge(noRadios).Records[0]
	if *record.ClientCount != 2 || record.Sources["clientCount"] != SourceClients {
		t.Fatalf("clients tier: %v from %q", record.ClientCount, record.Sources["clientCount"])
	}
	if record.Status != StatusFallback {
		t.Fatalf("status = %q, want fallback", record.Status)
	}

	// Then the site aggregate, keyed by normalized site name.
	siteOnly := noRadios
	siteOnly.Sessions = nil
	record = Merge(siteOnly).Records[0]
	if *record.ClientCount != 40 || record.Sources["clientCount"] != SourceSiteHealth {
		t.Fatalf("site_health tier: %v from %q", record.ClientCount, record.Sources["clientCount"])
	}
	if record.Status != StatusSiteHealth {
		t.Fatalf("status = %q, want siteHealth", record.Status)
	}
}

func TestMergeLocationFallbacks(t *testing.T) {
	// Planned placement backfills a missing dynamic location.
	inputs := Inputs{
		Inventory:  []dnac.APConfig{{MAC: "aa", Name: "oddly-named"}},
		PlannedAPs: []dnac.PlannedAP{{MAC: "AA", Location: "Global/Keele Campus/Ross Building/5/3"}},
		ClientCounts: map[string]int{
			"aa": 1,
		},
	}
	record := Merge(inputs).Records[0]
	if record.Location != "Global/Keele Campus/Ross Building/5/3" || record.Sources["location"] != SourcePlannedAPs {
		t.Fatalf("location = %q from %q", record.Location, record.Sources["location"])
	}
	if record.Status != StatusFallback {
		t.Fatalf("status = %q, want fallback", record.Status)
	}

	// Hostname parsing synthesizes a full path when nothing else has one.
	inputs.PlannedAPs = nil
	inputs.Inventory = []dnac.APConfig{{MAC: "aa", Name: "k388-studc-b-1"}}
	record = Merge(inputs).Records[0]
	want := "Global/Keele Campus/Student Centre/Basement/1"
	if record.Location != want || record.Sources["location"] != SourceAPName {
		t.Fatalf("location = %q from %q, want %q from ap_name", record.Location, record.Sources["location"], want)
	}
}

func TestMergeIncompleteRecordsReported(t *testing.T) {
	inputs := Inputs{
		Inventory: []dnac.APConfig{{MAC: "aa", Name: "unparseable"}},
	}
	result := Merge(inputs)
	record := result.Records[0]
	if record.Status != StatusIncomplete {
		t.Fatalf("status = %q, want incomplete", record.Status)
	}
	if len(result.Incomplete) != 1 {
		t.Fatalf("incomplete = %d, want 1", len(result.Incomplete))
	}
	entry := result.Incomplete[0]
	if entry.Key != "aa" {
		t.Fatalf("key = %q", entry.Key)
	}
	if !reflect.DeepEqual(entry.MissingFields, []string{"location", "clientCount"}) {
		t.Fatalf("missing = %v", entry.MissingFields)
	}
	if entry.Fields["name"] != string(SourceAPInventory) {
		t.Fatalf("fields = %v", entry.Fields)
	}
}

func TestMergeDropsRecordsWithoutMAC(t *testing.T) {
	inputs := Inputs{
		Inventory: []dnac.APConfig{
			{MAC: "", Name: "ghost"},
			{MAC: "aa", Name: "real"},
		},
	}
	result := Merge(inputs)
	if len(result.Records) != 1 || result.Records[0].MAC != "aa" {
		t.Fatalf("records = %+v", result.Records)
	}
	if result.DroppedNoMAC != 1 {
		t.Fatalf("dropped = %d, want 1", result.DroppedNoMAC)
	}
}

func TestMergeDeterministicAndIdempotent(t *testing.T) {
	inputs := Inputs{
		Inventory: []dnac.APConfig{
			{MAC: "CC", Name: "ap-c"},
			{MAC: "aa", Name: "ap-a"},
			{MAC: "BB", Name: "ap-b"},
		},
		ClientCounts: map[string]int{"aa": 1, "bb": 2, "cc": 3},
	}

	first := Merge(inputs)
	second := Merge(inputs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge is not idempotent")
	}

	order := []string{first.Records[0].MAC, first.Records[1].MAC, first.Records[2].MAC}
	if !reflect.DeepEqual(order, []string{"aa", "bb", "cc"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestMergeCarriesRadioCountsAlongside(t *testing.T) {
	inputs := Inputs{
		DeviceHealth: []dnac.DeviceHealth{{
			MAC:               "aa",
			Name:              "ap-a",
			EffectiveLocation: "Global/Keele Campus/Ross Building/5/1",
			RadioCounts:       map[string]int{"radio0": 1, "radio2": 4},
		}},
		ClientCounts: map[string]int{"aa": 9},
	}
	record := Merge(inputs).Records[0]
	// Aggregate came from clients_count, radio detail still carried.
	if record.Sources["clientCount"] != SourceClientsCount {
		t.Fatalf("clientCount source = %q", record.Sources["clientCount"])
	}
	if !reflect.DeepEqual(record.RadioCounts, map[string]int{"radio0": 1, "radio2": 4}) {
		t.Fatalf("radio counts = %v", record.RadioCounts)
	}
	if record.Sources["name"] != SourceDeviceHealth {
		t.Fatalf("name source = %q", record.Sources["name"])
	}
}
