// Package store provides the SQLite-backed durable store: the trend-concept
// cache, persisted run records and idea review decisions.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ideaforge/internal/core"
)

// ConceptCacheKey is the single key under which the concept set is stored.
const ConceptCacheKey = "trend_concepts"

// Store represents the SQLite-based durable store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance backed by a SQLite database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ideaforge.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables.
func (s *Store) initialize() error {
	// Whole-document KV table; documents are replaced as a unit, never merged.
	documentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		document TEXT,
		updated_at DATETIME
	);`

	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		company_name TEXT,
		success INTEGER,
		degraded INTEGER,
		record TEXT,
		created_at DATETIME
	);`

	reviewsTable := `
	CREATE TABLE IF NOT EXISTS idea_reviews (
		run_id TEXT,
		idea_index INTEGER,
		decision TEXT,
		note TEXT,
		reviewed_at DATETIME,
		PRIMARY KEY (run_id, idea_index)
	);`

	tables := []string{documentsTable, runsTable, reviewsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetDocument stores a JSON document under key, replacing any existing one.
func (s *Store) SetDocument(key string, document any) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `INSERT OR REPLACE INTO documents (key, document, updated_at) VALUES (?, ?, ?)`
	if _, err := s.db.Exec(query, key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// GetDocument loads the JSON document stored under key into out.
// Returns false with no error on a miss.
func (s *Store) GetDocument(key string, out any) (bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT document FROM documents WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read document: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return true, nil
}

// DeleteDocument removes the document stored under key, if any.
func (s *Store) DeleteDocument(key string) error {
	if _, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// SaveRun persists a run record.
func (s *Store) SaveRun(record core.RunRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO runs (id, company_name, success, degraded, record, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		record.ID,
		record.CompanyName,
		boolToInt(record.Success),
		boolToInt(record.Degraded),
		string(payload),
		record.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store run record: %w", err)
	}
	return nil
}

// GetRun loads a run record by ID.
func (s *Store) GetRun(runID string) (*core.RunRecord, error) {
	var payload string
	err := s.db.QueryRow(`SELECT record FROM runs WHERE id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var record core.RunRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

// ListRuns returns the most recent run records, newest first.
func (s *Store) ListRuns(limit int) ([]core.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT record FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []core.RunRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		var record core.RunRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveReview persists a human approval decision for one idea.
func (s *Store) SaveReview(review core.IdeaReview) error {
	query := `
	INSERT OR REPLACE INTO idea_reviews (run_id, idea_index, decision, note, reviewed_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		review.RunID,
		review.IdeaIndex,
		review.Decision,
		review.Note,
		review.ReviewedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store review: %w", err)
	}
	return nil
}

// GetReviews returns all review decisions for a run.
func (s *Store) GetReviews(runID string) ([]core.IdeaReview, error) {
	rows, err := s.db.Query(
		`SELECT run_id, idea_index, decision, note, reviewed_at FROM idea_reviews WHERE run_id = ? ORDER BY idea_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []core.IdeaReview
	for rows.Next() {
		var review core.IdeaReview
		if err := rows.Scan(&review.RunID, &review.IdeaIndex, &review.Decision, &review.Note, &review.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// StoreStats represents statistics about the durable store.
type StoreStats struct {
	DocumentCount int
	RunCount      int
	ReviewCount   int
	FileSize      int64
	LastUpdated   time.Time
}

// GetStats returns statistics about the store.
func (s *Store) GetStats() (*StoreStats, error) {
	stats := &StoreStats{}

	queries := map[string]*int{
		"SELECT COUNT(*) FROM documents":    &stats.DocumentCount,
		"SELECT COUNT(*) FROM runs":         &stats.RunCount,
		"SELECT COUNT(*) FROM idea_reviews": &stats.ReviewCount,
	}

	for query, target := range queries {
		if err := s.db.QueryRow(query).Scan(target); err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.FileSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

// Clear removes all stored data and reclaims space.
func (s *Store) Clear() error {
	tables := []string{"documents", "runs", "idea_reviews"}

	for _, table := range tables {
		if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
