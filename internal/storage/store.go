// Package storage persists simulation runs: one directory per run with
// metadata.json and a states.csv trajectory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/rigidlab/internal/advance"
	"github.com/san-kum/rigidlab/internal/engine"
)

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Timestep   float64            `json:"timestep"`
	Duration   float64            `json:"duration"`
	Policy     string             `json:"policy"`
	Collisions int                `json:"collisions"`
	Searches   int                `json:"searches"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run as <scenario>_<unix>/metadata.json plus states.csv
// where each row is time followed by (x, vx, y, vy, angle, w) per body.
func (s *Store) Save(scenarioName string, timestep, duration float64, seed int64, policy string, result *advance.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenarioName, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenarioName,
		Timestamp:  time.Now(),
		Seed:       seed,
		Timestep:   timestep,
		Duration:   duration,
		Policy:     policy,
		Collisions: result.Totals.Collisions,
		Searches:   result.Totals.Searches,
		Metrics:    result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.States) == 0 {
		return runID, nil
	}

	if err := w.Write(stateHeader(len(result.States[0]))); err != nil {
		return "", err
	}
	for i, x := range result.States {
		row := make([]string, 0, len(x))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		// all slots except the trailing time copy
		for _, v := range x[:len(x)-1] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func stateHeader(stateLen int) []string {
	header := []string{"time"}
	slots := [...]string{"x", "vx", "y", "vy", "angle", "w"}
	for i := 0; i < (stateLen-1)/engine.SlotsPerBody; i++ {
		for _, s := range slots {
			header = append(header, fmt.Sprintf("b%d_%s", i, s))
		}
	}
	return header
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads back the trajectory as raw rows without the header,
// returning states and the matching times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, v)
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, nil
}
