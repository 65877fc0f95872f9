package watchlist

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxRecentCandidates caps how many past candidates the state remembers.
const maxRecentCandidates = 20

// Manager tracks scan outcomes across restarts with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{state: state, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current watchlist state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// RecordScanResult updates the state after a universe scan. An empty
// candidate means the scan found nothing.
func (m *Manager) RecordScanResult(candidate string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.state.ScansTotal++
	m.state.LastScanAt = now

	if candidate == "" {
		m.state.ConsecutiveEmptyScans++
	} else {
		m.state.ConsecutiveEmptyScans = 0
		m.state.CurrentCandidate = candidate
		m.state.LastCandidateAt = now
		m.state.RecentCandidates = append(m.state.RecentCandidates, candidate)
		if len(m.state.RecentCandidates) > maxRecentCandidates {
			m.state.RecentCandidates = m.state.RecentCandidates[len(m.state.RecentCandidates)-maxRecentCandidates:]
		}
	}

	if err := m.save(); err != nil {
		log.Errorf("failed to save watchlist state: %v", err)
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
