package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Schema creates the crack history table.
const Schema = `
	CREATE TABLE IF NOT EXISTS cracks (
		id TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		checksum INTEGER NOT NULL,
		candidates TEXT NOT NULL,
		elapsed_ms REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cracks_created_at ON cracks(created_at);
`

// CrackRecord is a crack stored in the history table.
type CrackRecord struct {
	ID         uuid.UUID
	Hash       string
	Checksum   uint32
	Candidates []Candidate
	ElapsedMs  float64
	CreatedAt  time.Time
}

// InitDB initializes and returns a SQLite database connection
func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// CreateSchema creates the history table if it does not exist.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertCrack stores a crack and returns its new record ID.
func InsertCrack(db *sql.DB, hash string, sum uint32, candidates []Candidate, elapsedMs float64, createdAt time.Time) (uuid.UUID, error) {
	id := uuid.New()

	data, err := json.Marshal(candidates)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode candidates: %w", err)
	}

	query := `INSERT INTO cracks (id, hash, checksum, candidates, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := db.Exec(query, id.String(), hash, int64(sum), string(data), elapsedMs, createdAt.UTC()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert crack: %w", err)
	}

	return id, nil
}

// GetCrackByID fetches a single crack by its ID
func GetCrackByID(db *sql.DB, id uuid.UUID) (*CrackRecord, error) {
	query := `SELECT id, hash, checksum, candidates, elapsed_ms, created_at FROM cracks WHERE id = ?`

	rec, err := scanCrack(db.QueryRow(query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil // Crack not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query crack: %w", err)
	}

	return rec, nil
}

// ListCracks fetches the most recent cracks, newest first.
func ListCracks(db *sql.DB, limit int) ([]CrackRecord, error) {
	query := `SELECT id, hash, checksum, candidates, elapsed_ms, created_at FROM cracks ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cracks: %w", err)
	}
	defer rows.Close()

	records := []CrackRecord{}
	for rows.Next() {
		rec, err := scanCrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crack: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cracks: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrack(row rowScanner) (*CrackRecord, error) {
	var rec CrackRecord
	var id, candidates string
	var sum int64

	if err := row.Scan(&id, &rec.Hash, &sum, &candidates, &rec.ElapsedMs, &rec.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid crack id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(candidates), &rec.Candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}

	rec.ID = parsed
	rec.Checksum = uint32(sum)
	return &rec, nil
}
