package watchlist

import (
	"encoding/json"
	"os"
	"time"
)

// State is the persisted outcome of scheduled universe scans.
type State struct {
	CurrentCandidate      string    `json:"current_candidate"`
	RecentCandidates      []string  `json:"recent_candidates"`
	ConsecutiveEmptyScans int       `json:"consecutive_empty_scans"`
	ScansTotal            int       `json:"scans_total"`
	LastScanAt            time.Time `json:"last_scan_at"`
	LastCandidateAt       time.Time `json:"last_candidate_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// LoadState reads the watchlist state from a JSON file. Returns a zero state
// if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the watchlist state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
