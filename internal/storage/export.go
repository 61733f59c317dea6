package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/qgsim/internal/dynamo"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// Export writes a stored run as a single JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, states, times)
}

func ExportJSON(w io.Writer, meta RunMetadata, states []dynamo.State, times []float64) error {
	data := ExportData{
		Run:    meta,
		Times:  times,
		States: make([][]float64, len(states)),
	}
	for i, x := range states {
		data.States[i] = x
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
