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

	"github.com/san-kum/thrustsim/internal/config"
	"github.com/san-kum/thrustsim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var header = []string{"time", "x", "y", "z", "vx", "vy", "vz", "omega", "command", "thrust", "torque"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                string             `json:"id"`
	Preset            string             `json:"preset,omitempty"`
	Model             string             `json:"model"`
	Joint             string             `json:"joint"`
	Timestamp         time.Time          `json:"timestamp"`
	Dt                float64            `json:"dt"`
	Duration          float64            `json:"duration"`
	Integrator        string             `json:"integrator"`
	ThrustCoefficient *float64           `json:"thrust_coefficient,omitempty"`
	PropellerDiameter *float64           `json:"propeller_diameter,omitempty"`
	FluidDensity      *float64           `json:"fluid_density,omitempty"`
	Phase             string             `json:"phase"`
	Topics            []string           `json:"topics,omitempty"`
	Steps             uint64             `json:"steps"`
	PausedSteps       uint64             `json:"paused_steps"`
	Metrics           map[string]float64 `json:"metrics"`
}

// Series is a saved run column by column.
type Series struct {
	Times   []float64 `json:"times"`
	X       []float64 `json:"x"`
	Y       []float64 `json:"y"`
	Z       []float64 `json:"z"`
	VX      []float64 `json:"vx"`
	VY      []float64 `json:"vy"`
	VZ      []float64 `json:"vz"`
	Omega   []float64 `json:"omega"`
	Command []float64 `json:"command"`
	Thrust  []float64 `json:"thrust"`
	Torque  []float64 `json:"torque"`
}

func (sr *Series) columns() []*[]float64 {
	return []*[]float64{&sr.Times, &sr.X, &sr.Y, &sr.Z, &sr.VX, &sr.VY, &sr.VZ, &sr.Omega, &sr.Command, &sr.Thrust, &sr.Torque}
}

// Save writes the run under runID, or a generated id when runID is empty,
// and returns the id used.
func (s *Store) Save(runID, preset string, cfg *config.Config, result *experiment.Result) (string, error) {
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", cfg.Model, time.Now().UnixNano())
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:                runID,
		Preset:            preset,
		Model:             cfg.Model,
		Joint:             cfg.Thruster.JointName,
		Timestamp:         time.Now(),
		Dt:                cfg.Sim.Dt,
		Duration:          cfg.Sim.Duration,
		Integrator:        cfg.Sim.Integrator,
		ThrustCoefficient: cfg.Thruster.ThrustCoefficient,
		PropellerDiameter: cfg.Thruster.PropellerDiameter,
		FluidDensity:      cfg.Thruster.FluidDensity,
		Phase:             result.Phase.String(),
		Topics:            result.Topics,
		Steps:             result.Stats.StepsTaken,
		PausedSteps:       result.Stats.PausedSteps,
		Metrics:           result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeStates(filepath.Join(runDir, statesFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// closeFile closes a file that was written to and reports the close error
// unless an earlier one is already set.
func closeFile(f io.Closer, err *error) {
	if cerr := f.Close(); *err == nil {
		*err = cerr
	}
}

func writeStates(path string, samples []experiment.Sample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, sm := range samples {
		vals := []float64{
			sm.Time,
			sm.Position.X(), sm.Position.Y(), sm.Position.Z(),
			sm.Velocity.X(), sm.Velocity.Y(), sm.Velocity.Z(),
			sm.PropellerSpeed, sm.Command, sm.ProducedThrust, sm.Torque,
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns saved runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("states for %s: %w", runID, err)
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}
	cols := series.columns()
	for _, c := range cols {
		*c = make([]float64, 0, len(records)-1)
	}
	for line, record := range records[1:] {
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states for %s line %d: %w", runID, line+2, err)
			}
			*cols[i] = append(*cols[i], v)
		}
	}
	return series, nil
}

type ExportData struct {
	Metadata *RunMetadata `json:"metadata"`
	Series   *Series      `json:"series"`
}

// ExportJSON writes a saved run's metadata and series to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: meta, Series: series})
}
