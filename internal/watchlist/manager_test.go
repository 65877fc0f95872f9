package watchlist

import (
	"path/filepath"
	"testing"
)

func TestManager_RecordScanResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	m.RecordScanResult("")
	m.RecordScanResult("")
	state := m.GetState()
	if state.ConsecutiveEmptyScans != 2 || state.ScansTotal != 2 {
		t.Errorf("empty scans: %+v", state)
	}

	m.RecordScanResult("NVDA")
	state = m.GetState()
	if state.CurrentCandidate != "NVDA" {
		t.Errorf("current candidate: %s", state.CurrentCandidate)
	}
	if state.ConsecutiveEmptyScans != 0 {
		t.Errorf("empty scan counter not reset: %d", state.ConsecutiveEmptyScans)
	}
	if len(state.RecentCandidates) != 1 || state.RecentCandidates[0] != "NVDA" {
		t.Errorf("recent candidates: %v", state.RecentCandidates)
	}
}

func TestManager_StatePersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.RecordScanResult("AAPL")

	m2, err := NewManager(path)
	if err != nil {
		t.Fatalf("reopen manager: %v", err)
	}
	if state := m2.GetState(); state.CurrentCandidate != "AAPL" {
		t.Errorf("candidate after reload: %s", state.CurrentCandidate)
	}
}

func TestManager_RecentCandidatesCapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for i := 0; i < maxRecentCandidates+5; i++ {
		m.RecordScanResult("AAPL")
	}
	if state := m.GetState(); len(state.RecentCandidates) != maxRecentCandidates {
		t.Errorf("recent candidates: %d, want %d", len(state.RecentCandidates), maxRecentCandidates)
	}
}
