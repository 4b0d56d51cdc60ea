package storage

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListMarkers(t *testing.T) {
	s := openTestStore(t)

	m1, err := s.AddMarker(entities.MarkerConstruction, orb.Point{139.6917, 35.6895})
	require.NoError(t, err)
	require.NotEmpty(t, m1.ID)

	m2, err := s.AddMarker(entities.MarkerFacility, orb.Point{139.7017, 35.6995})
	require.NoError(t, err)

	markers, err := s.ListMarkers()
	require.NoError(t, err)
	require.Len(t, markers, 2)

	assert.Equal(t, m1.ID, markers[0].ID)
	assert.Equal(t, entities.MarkerConstruction, markers[0].Type)
	assert.InDelta(t, 139.6917, markers[0].Coordinates[0], 1e-9)
	assert.Equal(t, m2.Type, markers[1].Type)
}

func TestClearMarkers(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AddMarker(entities.MarkerConstruction, orb.Point{139.69, 35.68})
	require.NoError(t, err)

	require.NoError(t, s.ClearMarkers())

	markers, err := s.ListMarkers()
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestSaveResult(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveResult(map[string]any{"driving_distance": "385 km"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	n, err := s.ResultCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
