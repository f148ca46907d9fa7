package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// TranscriptRecord is one row of the finished-transcript index.
type TranscriptRecord struct {
	JobID     string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Language  string    `json:"language"`
	LocalPath string    `json:"local_path"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"`
	WordCount int       `json:"word_count"`
}

// MetadataDB indexes completed transcripts in SQLite. Jobs themselves
// are never persisted; only finished artifacts are recorded here.
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed initializes) the transcript index.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		language TEXT,
		local_path TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		duration REAL,
		word_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript records one finished transcript.
func (mdb *MetadataDB) SaveTranscript(jobID, filename, language, localPath string, duration float64, wordCount int) error {
	query := `
	INSERT INTO transcripts (job_id, filename, language, local_path, created_at, duration, word_count)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, jobID, filename, language, localPath, time.Now(), duration, wordCount)
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %v", err)
	}
	return nil
}

// GetTranscript retrieves one transcript record by job ID.
func (mdb *MetadataDB) GetTranscript(jobID string) (*TranscriptRecord, error) {
	query := `
	SELECT job_id, filename, language, local_path, created_at, duration, word_count
	FROM transcripts WHERE job_id = ?
	`

	var rec TranscriptRecord
	err := mdb.db.QueryRow(query, jobID).Scan(
		&rec.JobID, &rec.Filename, &rec.Language, &rec.LocalPath,
		&rec.CreatedAt, &rec.Duration, &rec.WordCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %v", err)
	}
	return &rec, nil
}

// ListTranscripts returns the newest transcripts first.
func (mdb *MetadataDB) ListTranscripts(limit int) ([]TranscriptRecord, error) {
	query := `
	SELECT job_id, filename, language, local_path, created_at, duration, word_count
	FROM transcripts ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %v", err)
	}
	defer rows.Close()

	var records []TranscriptRecord
	for rows.Next() {
		var rec TranscriptRecord
		if err := rows.Scan(
			&rec.JobID, &rec.Filename, &rec.Language, &rec.LocalPath,
			&rec.CreatedAt, &rec.Duration, &rec.WordCount,
		); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
