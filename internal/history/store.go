// Package history persists generated summaries in a DuckDB database so
// they survive restarts and can be exported as a single text file.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// exportRule separates the document name from its summary in exports.
const exportRule = "========================================"

// Store is a DuckDB-backed summary archive.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore opens or creates the history database at dbPath.
func NewStore(dbPath string, log *slog.Logger) (*Store, error) {
	connector, err := duckdb.NewConnector(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create history connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id            VARCHAR PRIMARY KEY,
			document_id   VARCHAR,
			document_name VARCHAR NOT NULL,
			page_count    INTEGER NOT NULL DEFAULT 0,
			model         VARCHAR,
			prompt_id     VARCHAR,
			summary       VARCHAR NOT NULL,
			created_at    TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count); err == nil && count > 0 {
		log.Info("loaded summary history", "entries", count)
	}

	return &Store{db: db, log: log}, nil
}

// Add archives one summary. Missing ID and timestamp are filled in.
func (s *Store) Add(entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO history (id, document_id, document_name, page_count, model, prompt_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DocumentID, entry.DocumentName, entry.PageCount,
		entry.Model, entry.PromptID, entry.Summary, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns entries newest first. A non-positive limit returns all.
func (s *Store) List(limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, document_id, document_name, page_count, model, prompt_id, summary, created_at
		FROM history ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.DocumentName, &e.PageCount,
			&e.Model, &e.PromptID, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Clear removes all entries and returns how many were deleted.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec("DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

// Stats returns the number of summaries and the accumulated page count.
func (s *Store) Stats() (*models.HistoryStats, error) {
	var stats models.HistoryStats
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(page_count), 0) FROM history",
	).Scan(&stats.Summaries, &stats.TotalPages)
	if err != nil {
		return nil, fmt.Errorf("query history stats: %w", err)
	}
	return &stats, nil
}

// Export renders the archive as plain text, oldest first: each summary
// under its document name and a rule line.
func (s *Store) Export() (string, error) {
	rows, err := s.db.Query(
		"SELECT document_name, summary FROM history ORDER BY created_at ASC")
	if err != nil {
		return "", fmt.Errorf("query history export: %w", err)
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var name, summary string
		if err := rows.Scan(&name, &summary); err != nil {
			return "", fmt.Errorf("scan history export: %w", err)
		}
		sections = append(sections, fmt.Sprintf("📄 %s\n%s\n%s", name, exportRule, summary))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return strings.Join(sections, "\n\n"), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
