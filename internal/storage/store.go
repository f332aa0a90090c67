// Package storage keeps finished runs on disk: one directory per run with
// a metadata.json and the sampled observable series in series.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/metrics"
)

const (
	metaFile   = "metadata.json"
	seriesFile = "series.csv"
)

var seriesHeader = []string{"time", "plate_z", "mean_height", "kinetic_energy", "contacts"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("storage: %w: %w", dynamo.ErrResourceUnavailable, err)
	}
	return nil
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Experiment     string             `json:"experiment"`
	Preset         string             `json:"preset,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Dt             float64            `json:"dt"`
	Steps          int                `json:"steps"`
	Particles      int                `json:"particles"`
	PlateParticles int                `json:"plate_particles"`
	Amplitude      float64            `json:"amplitude"`
	Period         float64            `json:"period"`
	Elapsed        float64            `json:"elapsed_seconds"`
	Metrics        map[string]float64 `json:"metrics"`
	Config         *config.Config     `json:"config,omitempty"`
}

// Save writes meta and samples under a fresh run id and returns it. The
// id and timestamp of meta are filled in.
func (s *Store) Save(meta RunMetadata, samples []metrics.Sample) (string, error) {
	now := time.Now()
	exp := meta.Experiment
	if exp == "" {
		exp = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d_%s", exp, now.Unix(), uuid.NewString()[:8])
	meta.Timestamp = now

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("storage: %w: %w", dynamo.ErrResourceUnavailable, err)
	}

	if err := writeFile(filepath.Join(runDir, metaFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, seriesFile), func(w io.Writer) error {
		return WriteSeries(w, samples)
	}); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w: %w", dynamo.ErrResourceUnavailable, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("storage: write %s: %w: %w", filepath.Base(path), dynamo.ErrResourceUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: %w: %w", dynamo.ErrResourceUnavailable, err)
	}
	return nil
}

// WriteSeries writes samples as CSV with a header row.
func WriteSeries(w io.Writer, samples []metrics.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	for _, s := range samples {
		row := []string{f(s.Time), f(s.PlateZ), f(s.MeanHeight), f(s.KineticEnergy), f(s.Contacts)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSeries parses the output of WriteSeries.
func ReadSeries(r io.Reader) ([]metrics.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(seriesHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("storage: series without header")
	}

	out := make([]metrics.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var v [5]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(rec[j], 64); err != nil {
				return out, fmt.Errorf("storage: series row %d: %w", i+2, err)
			}
		}
		out = append(out, metrics.Sample{Time: v[0], PlateZ: v[1], MeanHeight: v[2], KineticEnergy: v[3], Contacts: v[4]})
	}
	return out, nil
}

// List returns every readable run, newest first. Directories without a
// valid metadata.json are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metaFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) ([]metrics.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeries(f)
}
