// Package location turns the controller's free-text location strings and
// structured AP hostnames into a building/floor hierarchy.
package location

import "strings"

// invalidTokens are placeholder values the controller emits instead of a
// real location.
var invalidTokens = map[string]struct{}{
	"":        {},
	"invalid": {},
	"none":    {},
	"unknown": {},
}

func isInvalidToken(s string) bool {
	_, bad := invalidTokens[strings.ToLower(strings.TrimSpace(s))]
	return bad
}

// ParseLocation extracts (building, floor) from a hierarchical location path
// such as "Global/Keele Campus/Ross Building/5/1". Every rule is a hard
// reject; callers must skip the record when ok is false.
func ParseLocation(raw string) (building, floor string, ok bool) {
	if isInvalidToken(raw) {
		return "", "", false
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "/") || strings.HasSuffix(trimmed, "/") {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	segments := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) < 2 {
		return "", "", false
	}

	if segments[0] == "Global" && segments[1] == "Keele Campus" {
		if len(segments) < 4 {
			return "", "", false
		}
		building, floor = segments[2], segments[3]
	} else {
		building, floor = segments[0], segments[1]
	}

	if isInvalidToken(building) || isInvalidToken(floor) {
		return "", "", false
	}
	return building, floor, true
}

// ParseLocationDetail is ParseLocation plus the optional room segment that
// follows the floor. Room is empty when the path stops at the floor.
func ParseLocationDetail(raw string) (building, floor, room string, ok bool) {
	building, floor, ok = ParseLocation(raw)
	if !ok {
		return "", "", "", false
	}

	segments := splitSegments(raw)
	roomIndex := 2
	if segments[0] == "Global" && segments[1] == "Keele Campus" {
		roomIndex = 4
	}
	if len(segments) > roomIndex && !isInvalidToken(segments[roomIndex]) {
		room = segments[roomIndex]
	}
	return building, floor, room, true
}

func splitSegments(raw string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(raw), "/"), "/")
	segments := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// ParseAPName derives (building, floor, apNumber) from a structured AP
// hostname of the form <prefix>-<shortBuilding>-<floorToken>-<apNumber>,
// e.g. "k388-studc-b-1". Unmapped tokens fall back to their title-cased
// form rather than failing; only too few tokens reject.
func ParseAPName(name string) (building, floor, apNumber string, ok bool) {
	if name == "" {
		return "", "", "", false
	}
	parts := strings.Split(strings.ToLower(name), "-")
	if len(parts) < 4 {
		return "", "", "", false
	}

	shortBuilding, floorToken, number := parts[1], parts[2], parts[3]
	building, found := shortToFullBuilding[shortBuilding]
	if !found {
		building = titleCase(shortBuilding)
	}
	floor, found = floorAbbreviations[floorToken]
	if !found {
		floor = titleCase(floorToken)
	}
	return building, floor, number, true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
