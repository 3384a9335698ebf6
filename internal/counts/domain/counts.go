// Package domain holds the aggregate (per-building) count model.
package domain

import "time"

// Campus groups buildings. One row per campus, created lazily.
type Campus struct {
	ID   int64
	Name string
}

// Building is one canonical building in the aggregate store. Created on
// first sighting of its canonical name, never deleted by reconciliation.
type Building struct {
	ID        int64
	Name      string
	CampusID  int64
	Latitude  float64
	Longitude float64
}

// ClientCount is one append-only per-building observation. Zero counts are
// written explicitly so absence stays distinguishable from zero.
type ClientCount struct {
	ID           int64
	BuildingID   int64
	Count        int
	TimeInserted time.Time
}

// BuildingCount is the read-side join of a count with its building name.
type BuildingCount struct {
	Building     string
	Count        int
	TimeInserted time.Time
}
