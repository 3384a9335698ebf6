// Command fake_dnac serves a synthetic DNA Center API for local development
// and load testing: the auth token endpoint plus the six feeds the monitor
// polls, with tunable latency, failure injection, and a maintenance mode that
// answers 500 on every intent endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

type fakeDNAC struct {
	start       time.Time
	latency     time.Duration
	failRate    float64
	rateLimit   float64
	maintenance atomic.Bool

	buildings int
	floors    int
	apsPerFlr int

	totalCalls int64
}

type ap struct {
	name     string
	mac      string
	model    string
	ip       string
	location string
	radios   map[string]int
}

func main() {
	addr := getenvDefault("FAKE_DNAC_ADDR", ":18443")
	latencyMs := getenvIntDefault("FAKE_DNAC_LATENCY_MS", 0)
	failRate := getenvFloatDefault("FAKE_DNAC_FAIL_RATE", 0)
	rateLimit := getenvFloatDefault("FAKE_DNAC_RATE_LIMIT_RATE", 0)

	srv := &fakeDNAC{
		start:     time.Now().UTC(),
		latency:   time.Duration(latencyMs) * time.Millisecond,
		failRate:  failRate,
		rateLimit: rateLimit,
		buildings: getenvIntDefault("FAKE_DNAC_BUILDINGS", 5),
		floors:    getenvIntDefault("FAKE_DNAC_FLOORS", 4),
		apsPerFlr: getenvIntDefault("FAKE_DNAC_APS_PER_FLOOR", 6),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/dna/system/api/v1/auth/token", srv.handleToken)
	mux.HandleFunc("/dna/intent/api/v1/wireless/accesspoint-configuration/summary", srv.intent(srv.handleAPConfig))
	mux.HandleFunc("/dna/intent/api/v1/device-health", srv.intent(srv.handleDeviceHealth))
	mux.HandleFunc("/dna/intent/api/v1/clients/count", srv.intent(srv.handleClientCount))
	mux.HandleFunc("/dna/intent/api/v1/clients", srv.intent(srv.handleClients))
	mux.HandleFunc("/dna/intent/api/v1/site-health", srv.intent(srv.handleSiteHealth))
	mux.HandleFunc("/dna/intent/api/v1/wireless/planned-access-points", srv.intent(srv.handlePlannedAPs))
	mux.HandleFunc("/maintenance", srv.handleMaintenance)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("fake DNA Center listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func (s *fakeDNAC) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"Token": fmt.Sprintf("fake-token-%d", time.Now().UnixNano())})
}

// handleMaintenance toggles outage mode: POST /maintenance?on=true|false.
func (s *fakeDNAC) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	on, _ := strconv.ParseBool(r.URL.Query().Get("on"))
	s.maintenance.Store(on)
	writeJSON(w, map[string]bool{"maintenance": on})
}

func (s *fakeDNAC) intent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.totalCalls, 1)
		if r.Header.Get("x-auth-token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.latency > 0 {
			time.Sleep(s.latency)
		}
		if s.maintenance.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if s.rateLimit > 0 && rand.Float64() < s.rateLimit {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if s.failRate > 0 && rand.Float64() < s.failRate {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		next(w, r)
	}
}

func (s *fakeDNAC) aps() []ap {
	names := []string{"Ross Building", "Vari Hall", "Scott Library", "Student Centre", "Lassonde", "Bethune Residence", "Lumbers", "Stong College"}
	var out []ap
	seq := 0
	for b := 0; b < s.buildings && b < len(names); b++ {
		for f := 1; f <= s.floors; f++ {
			for a := 1; a <= s.apsPerFlr; a++ {
				seq++
				out = append(out, ap{
					name:     fmt.Sprintf("k%03d-b%d-%d-%d", seq, b, f, a),
					mac:      fmt.Sprintf("aa:bb:cc:%02x:%02x:%02x", b, f, a),
					model:    "C9130AXI-A",
					ip:       fmt.Sprintf("10.%d.%d.%d", b, f, a),
					location: fmt.Sprintf("Global/Keele Campus/%s/%d/%d", names[b], f, a),
					radios:   map[string]int{"radio0": seq % 7, "radio1": seq % 11, "radio2": seq % 3},
				})
			}
		}
	}
	return out
}

func paginate(r *http.Request, total int) (int, int) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 1 {
		offset = 1
	}
	if limit < 1 {
		limit = 25
	}
	lo := offset - 1
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

func (s *fakeDNAC) handleAPConfig(w http.ResponseWriter, r *http.Request) {
	aps := s.aps()
	lo, hi := paginate(r, len(aps))
	items := make([]map[string]any, 0, hi-lo)
	for _, a := range aps[lo:hi] {
		items = append(items, map[string]any{
			"apName":           a.name,
			"macAddress":       a.mac,
			"apModel":          a.model,
			"primaryIpAddress": a.ip,
			"location":         a.location,
		})
	}
	writeJSON(w, map[string]any{"response": items})
}

func (s *fakeDNAC) handleDeviceHealth(w http.ResponseWriter, r *http.Request) {
	aps := s.aps()
	lo, hi := paginate(r, len(aps))
	items := make([]map[string]any, 0, hi-lo)
	for _, a := range aps[lo:hi] {
		items = append(items, map[string]any{
			"name":               a.name,
			"macAddress":         a.mac,
			"model":              a.model,
			"ipAddress":          a.ip,
			"location":           a.location,
			"reachabilityHealth": "UP",
			"clientCount":        a.radios,
		})
	}
	writeJSON(w, map[string]any{"response": items, "totalCount": len(aps)})
}

func (s *fakeDNAC) handleClientCount(w http.ResponseWriter, r *http.Request) {
	aps := s.aps()
	items := make([]map[string]any, 0, len(aps))
	for _, a := range aps {
		total := 0
		for _, n := range a.radios {
			total += n
		}
		items = append(items, map[string]any{"macAddress": a.mac, "count": total})
	}
	writeJSON(w, map[string]any{"response": items})
}

func (s *fakeDNAC) handleClients(w http.ResponseWriter, r *http.Request) {
	aps := s.aps()
	var items []map[string]any
	for i, a := range aps {
		for c := 0; c < i%3; c++ {
			items = append(items, map[string]any{
				"macAddress": fmt.Sprintf("ee:ff:%02x:%02x:00:%02x", i, c, c),
				"apMac":      a.mac,
			})
		}
	}
	lo, hi := paginate(r, len(items))
	writeJSON(w, map[string]any{"response": items[lo:hi]})
}

func (s *fakeDNAC) handleSiteHealth(w http.ResponseWriter, r *http.Request) {
	names := []string{"Ross Building", "Vari Hall", "Scott Library", "Student Centre", "Lassonde"}
	var items []map[string]any
	for i, name := range names {
		items = append(items, map[string]any{
			"siteId":                  fmt.Sprintf("site-%d", i+1),
			"siteName":                name,
			"siteType":                "building",
			"numberOfWirelessClients": 10 * (i + 1),
		})
	}
	writeJSON(w, map[string]any{"response": items})
}

func (s *fakeDNAC) handlePlannedAPs(w http.ResponseWriter, r *http.Request) {
	aps := s.aps()
	items := make([]map[string]any, 0, len(aps))
	for _, a := range aps {
		items = append(items, map[string]any{
			"name":       a.name,
			"macAddress": a.mac,
			"location":   a.location,
		})
	}
	writeJSON(w, map[string]any{"response": items})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloatDefault(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
