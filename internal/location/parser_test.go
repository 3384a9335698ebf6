package location

import "testing"

func TestParseLocation(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		building string
		floor    string
		ok       bool
	}{
		{"keele campus path", "Global/Keele Campus/Ross Building/5/1", "Ross Building", "5", true},
		{"keele campus minimum segments", "Global/Keele Campus/Vari Hall/2", "Vari Hall", "2", true},
		{"keele campus too shallow", "Global/Keele Campus/Ross Building", "", "", false},
		{"generic two segments", "Scott Library/3", "Scott Library", "3", true},
		{"generic takes first two", "Scott Library/3/12", "Scott Library", "3", true},
		{"empty", "", "", "", false},
		{"placeholder invalid", "Invalid", "", "", false},
		{"placeholder none", "none", "", "", false},
		{"placeholder unknown", "UNKNOWN", "", "", false},
		{"leading separator", "/Global/Keele Campus/Ross Building/5", "", "", false},
		{"trailing separator", "Global/Keele Campus/Ross Building/5/", "", "", false},
		{"single segment", "Ross Building", "", "", false},
		{"invalid floor token", "Global/Keele Campus/Ross Building/unknown", "", "", false},
		{"invalid building token", "none/5", "", "", false},
		{"whitespace segments trimmed", "Global/Keele Campus/ Ross Building / 5 ", "Ross Building", "5", true},
		{"case sensitive campus literal", "global/keele campus/Ross Building/5", "global", "keele campus", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			building, floor, ok := ParseLocation(tc.raw)
			if ok != tc.ok || building != tc.building || floor != tc.floor {
				t.Fatalf("ParseLocation(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tc.raw, building, floor, ok, tc.building, tc.floor, tc.ok)
			}
		})
	}
}

func TestParseAPName(t *testing.T) {
	cases := []struct {
		name     string
		ap       string
		building string
		floor    string
		number   string
		ok       bool
	}{
		{"student centre basement", "k388-studc-b-1", "Student Centre", "Basement", "1", true},
		{"ross numeric floor", "k372-ross-6-7", "Ross Building", "6", "7", true},
		{"ground floor token", "k101-vh-g-3", "Vari Hall", "Ground", "3", true},
		{"room token", "k5-scl-r-204", "Scott Library", "Room", "204", true},
		{"unmapped building title cased", "k9-zzz-fl-2", "Zzz", "Floor", "2", true},
		{"uppercase input lowered first", "K388-STUDC-B-1", "Student Centre", "Basement", "1", true},
		{"too few tokens", "k388-studc-b", "", "", "", false},
		{"empty", "", "", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			building, floor, number, ok := ParseAPName(tc.ap)
			if ok != tc.ok || building != tc.building || floor != tc.floor || number != tc.number {
				t.Fatalf("ParseAPName(%q) = (%q, %q, %q, %v), want (%q, %q, %q, %v)",
					tc.ap, building, floor, number, ok, tc.building, tc.floor, tc.number, tc.ok)
			}
		})
	}
}

func TestNormalizeBuilding(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"exact canonical", "Vari Hall", "Vari Hall", true},
		{"exact case insensitive", "ross", "Ross", true},
		{"suffix stripped", "ross building", "Ross", true},
		{"short form", "scl", "Scott Library", true},
		{"short form resolves to canonical", "vh", "Vari Hall", true},
		{"substring unique", "Scott", "Scott Library", true},
		{"unknown", "Nonexistent Hall", "", false},
		{"ambiguous substring", "College", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeBuilding(tc.raw)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("NormalizeBuilding(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
			}
		})
	}
}
