package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/demsim/internal/metrics"
)

type ExportData struct {
	Run    RunMetadata      `json:"run"`
	Count  int              `json:"samples"`
	Series []metrics.Sample `json:"series"`
}

// ExportJSON writes a run and its series as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []metrics.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Count: len(samples), Series: samples})
}

// Export loads runID from the store and writes it with ExportJSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, samples)
}
