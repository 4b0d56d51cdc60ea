// Package storage persists markers and simulation results in SQLite.
// Two value-carrying collections, server-assigned ids, no referential
// integrity. Writes are serialized through a single mutex.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	_ "modernc.org/sqlite"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS markers (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	lng        REAL NOT NULL,
	lat        REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS simulation_results (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and creates if needed) the database at path. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection: the write path is mutex-serialized anyway and
	// this keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddMarker stores a marker and returns it with its assigned id.
func (s *Store) AddMarker(markerType entities.MarkerType, coords orb.Point) (entities.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := entities.Marker{
		ID:          uuid.New().String(),
		Type:        markerType,
		Coordinates: coords,
	}
	_, err := s.db.Exec(
		`INSERT INTO markers (id, type, lng, lat, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, string(m.Type), coords[0], coords[1], time.Now().UTC(),
	)
	if err != nil {
		return entities.Marker{}, fmt.Errorf("insert marker: %w", err)
	}
	return m, nil
}

// ListMarkers returns all markers in insertion order.
func (s *Store) ListMarkers() ([]entities.Marker, error) {
	rows, err := s.db.Query(`SELECT id, type, lng, lat FROM markers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	markers := []entities.Marker{}
	for rows.Next() {
		var m entities.Marker
		var typ string
		var lng, lat float64
		if err := rows.Scan(&m.ID, &typ, &lng, &lat); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		m.Type = entities.MarkerType(typ)
		m.Coordinates = orb.Point{lng, lat}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

// ClearMarkers deletes every stored marker.
func (s *Store) ClearMarkers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM markers`); err != nil {
		return fmt.Errorf("clear markers: %w", err)
	}
	return nil
}

// SaveResult persists a simulation response payload as JSON and
// returns the assigned id.
func (s *Store) SaveResult(payload any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	id := uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO simulation_results (id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert result: %w", err)
	}
	return id, nil
}

// ResultCount reports how many results have been stored.
func (s *Store) ResultCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM simulation_results`).Scan(&n)
	return n, err
}
