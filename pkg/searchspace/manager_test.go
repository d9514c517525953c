package searchspace

import (
	"testing"

	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func newSession(current ...string) *store.Session {
	s := &store.Session{ID: "test"}
	s.Space.Current = current
	s.Space.PreviousSnapshot = append([]string(nil), current...)
	return s
}

func TestApplyInitial(t *testing.T) {
	m := NewManager(logger.NewNopLogger())
	s := &store.Session{ID: "test"}

	m.ApplyInitial(s, []string{"a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, s.Space.Current)
	assert.Equal(t, []string{"a", "b", "c"}, s.Space.PreviousSnapshot)
}

func TestApplyRefineNarrows(t *testing.T) {
	m := NewManager(logger.NewNopLogger())
	s := newSession("a", "b", "c")

	// "d" was not in the pre-turn working set and must not sneak in
	m.ApplyRefine(s, []string{"b", "d"})

	assert.Equal(t, []string{"b"}, s.Space.Current)
	assert.Equal(t, []string{"a", "b", "c"}, s.Space.PreviousSnapshot)
}

func TestApplyRefineIsSubset(t *testing.T) {
	m := NewManager(logger.NewNopLogger())
	s := newSession("x", "y", "z")
	before := map[string]bool{"x": true, "y": true, "z": true}

	m.ApplyRefine(s, []string{"z", "x"})

	for _, name := range s.Space.Current {
		assert.True(t, before[name], "refined set contains %q which was not in the pre-turn set", name)
	}
}

func TestApplyResetRestoresSnapshot(t *testing.T) {
	m := NewManager(logger.NewNopLogger())
	s := newSession("a", "b", "c")

	m.ApplyRefine(s, []string{"a"})
	assert.Equal(t, []string{"a"}, s.Space.Current)

	m.ApplyReset(s)
	assert.Equal(t, []string{"a", "b", "c"}, s.Space.Current)
}

func TestApplyResetIdempotent(t *testing.T) {
	m := NewManager(logger.NewNopLogger())
	s := newSession("a", "b")

	m.ApplyRefine(s, []string{"b"})

	m.ApplyReset(s)
	first := append([]string(nil), s.Space.Current...)
	m.ApplyReset(s)

	assert.Equal(t, first, s.Space.Current)
}
