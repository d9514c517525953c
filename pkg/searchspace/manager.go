// Package searchspace owns the search-space transitions of a session:
// initial population, refinement (with snapshotting for reset), and reset
// back to the previous snapshot.
package searchspace

import (
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/store"
)

type Manager struct {
	log logger.ILogger
}

func NewManager(log logger.ILogger) *Manager {
	return &Manager{log: log}
}

// ApplyInitial installs the first search result as the working set. The
// snapshot is seeded with the same set so an immediate reset is a no-op
// rather than a restore to nothing.
func (m *Manager) ApplyInitial(session *store.Session, results []string) {
	session.Space.Current = append([]string(nil), results...)
	session.Space.PreviousSnapshot = append([]string(nil), results...)
	m.log.Info("searchspace", "Initial search space installed", map[string]interface{}{
		"session_id": session.ID,
		"size":       len(results),
	})
}

// ApplyRefine snapshots the pre-turn working set, then narrows it to the
// refined results. Results are constrained to the pre-turn set: a refine
// can only ever shrink the space.
func (m *Manager) ApplyRefine(session *store.Session, results []string) {
	allowed := make(map[string]bool, len(session.Space.Current))
	for _, name := range session.Space.Current {
		allowed[name] = true
	}

	narrowed := make([]string, 0, len(results))
	for _, name := range results {
		if allowed[name] {
			narrowed = append(narrowed, name)
		}
	}

	session.Space.PreviousSnapshot = session.Space.Current
	session.Space.Current = narrowed

	m.log.Info("searchspace", "Search space refined", map[string]interface{}{
		"session_id": session.ID,
		"before":     len(session.Space.PreviousSnapshot),
		"after":      len(narrowed),
	})
}

// ApplyReset restores the previous snapshot as the working set. No new
// computation happens; calling it twice in a row yields the same set.
func (m *Manager) ApplyReset(session *store.Session) {
	session.Space.Current = append([]string(nil), session.Space.PreviousSnapshot...)
	m.log.Info("searchspace", "Search space reset to previous snapshot", map[string]interface{}{
		"session_id": session.ID,
		"size":       len(session.Space.Current),
	})
}
