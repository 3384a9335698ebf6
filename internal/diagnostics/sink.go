// Package diagnostics persists merge-time incomplete-device detail and
// analyzes building health for operator inspection.
package diagnostics

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ap-monitor/internal/reconcile/domain"
)

// Sink stores the latest incomplete-device batch as one JSON document on
// disk. Each Record overwrites the previous document; the sink is a
// read-only collaborator for everything but the merge path.
type Sink struct {
	path    string
	enabled bool
	log     zerolog.Logger

	mu sync.Mutex
}

type sinkDocument struct {
	UpdatedAt time.Time                 `json:"updated_at"`
	Devices   []domain.IncompleteDevice `json:"devices"`
}

// NewSink constructs a sink. When disabled, Record is a no-op and Read
// returns empty.
func NewSink(path string, enabled bool, log zerolog.Logger) *Sink {
	return &Sink{
		path:    path,
		enabled: enabled,
		log:     log.With().Str("component", "diagnostics.sink").Logger(),
	}
}

// Enabled reports whether diagnostics collection is on.
func (s *Sink) Enabled() bool { return s != nil && s.enabled }

// Record overwrites the sink document with the given batch.
func (s *Sink) Record(devices []domain.IncompleteDevice) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := sinkDocument{UpdatedAt: time.Now().UTC(), Devices: devices}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return err
	}
	s.log.Debug().Int("devices", len(devices)).Msg("incomplete devices recorded")
	return nil
}

// Read returns the stored batch and when it was written. A missing document
// reads as empty.
func (s *Sink) Read() ([]domain.IncompleteDevice, time.Time, error) {
	if !s.Enabled() {
		return nil, time.Time{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	var doc sinkDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, err
	}
	return doc.Devices, doc.UpdatedAt, nil
}
