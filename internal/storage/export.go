package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/rigidlab/internal/advance"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Policy     string             `json:"policy"`
	Timestep   float64            `json:"timestep"`
	Duration   float64            `json:"duration"`
	Seed       int64              `json:"seed"`
	Steps      int                `json:"steps"`
	Collisions int                `json:"collisions"`
	Searches   int                `json:"searches"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes the full run to w as indented JSON.
func ExportJSON(w io.Writer, scenarioName, policy string, timestep, duration float64, seed int64, result *advance.Result) error {
	data := ExportData{
		Scenario:   scenarioName,
		Policy:     policy,
		Timestep:   timestep,
		Duration:   duration,
		Seed:       seed,
		Steps:      result.Steps(),
		Collisions: result.Totals.Collisions,
		Searches:   result.Totals.Searches,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Metrics:    result.Metrics,
	}
	for i, x := range result.States {
		data.States[i] = x[:len(x)-1]
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSONFile writes the run to a file.
func ExportJSONFile(path, scenarioName, policy string, timestep, duration float64, seed int64, result *advance.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, scenarioName, policy, timestep, duration, seed, result)
}

// ExportCSV writes the trajectory to w in the states.csv layout.
func ExportCSV(w io.Writer, result *advance.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(result.States) == 0 {
		return nil
	}
	if err := cw.Write(stateHeader(len(result.States[0]))); err != nil {
		return err
	}
	for i, x := range result.States {
		row := make([]string, 0, len(x))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, v := range x[:len(x)-1] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
