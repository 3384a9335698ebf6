// Package domain holds the detail (per-AP, per-radio) store model. The
// detail store mirrors the aggregate store's hierarchy but is keyed
// independently; the two are reconciled by name, not by shared ids.
package domain

import "time"

// Building is one detail-store building.
type Building struct {
	ID   int64
	Name string
}

// Floor belongs to one building.
type Floor struct {
	ID         int64
	BuildingID int64
	Name       string
}

// Room belongs to one floor. Populated only when the location path carries a
// fifth segment.
type Room struct {
	ID      int64
	FloorID int64
	Name    string
}

// RadioType is one of an AP's radio bands. Seeded once at startup.
type RadioType struct {
	ID   int64
	Name string
}

// Radio seed data: the controller reports per-radio counts keyed radio0
// through radio2, mapping onto fixed radio ids and bands.
var RadioSeed = []RadioType{
	{ID: 1, Name: "2.4 GHz"},
	{ID: 2, Name: "5 GHz"},
	{ID: 3, Name: "6 GHz"},
}

// RadioIDForKey maps a controller radio key onto its seeded radio id.
func RadioIDForKey(key string) (int64, bool) {
	switch key {
	case "radio0":
		return 1, true
	case "radio1":
		return 2, true
	case "radio2":
		return 3, true
	default:
		return 0, false
	}
}

// AccessPoint is one physical AP, upserted by MAC.
type AccessPoint struct {
	ID         int64
	BuildingID int64
	FloorID    int64
	RoomID     *int64
	Name       string
	MAC        string
	IPAddress  string
	Model      string
	Active     bool
}

// APClientCount is one per-radio observation, upserted by
// (ap, radio, timestamp).
type APClientCount struct {
	ID        int64
	APID      int64
	RadioID   int64
	Count     int
	Timestamp time.Time
}

// APDetail is the read-side join of an AP with its placement.
type APDetail struct {
	ID       int64
	Name     string
	MAC      string
	IP       string
	Model    string
	Active   bool
	Building string
	Floor    string
	Room     string
}
