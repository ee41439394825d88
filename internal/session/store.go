// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists one pipeline run to a per-run SQLite file.
// The coordinator is the single writer; phases hand it batches and it
// writes them inside one transaction each, so a crashed run leaves a
// consistent store that later phases can reload from.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litpipe/pkg/types"
)

const dbFile = "session.db"

// Session statuses as stored in research_sessions.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Store manages the session database for a single run directory.
type Store struct {
	db        *sql.DB
	sessionID string
}

// Open opens or creates <runDir>/session.db and ensures the schema.
func Open(runDir string) (*Store, error) {
	dbPath := filepath.Join(runDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID returns the id of the session begun or resumed on this store.
func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS research_sessions (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			completed_at TEXT,
			config TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			session_id TEXT NOT NULL REFERENCES research_sessions(id),
			doi TEXT,
			title TEXT,
			authors TEXT,
			year INTEGER,
			venue TEXT,
			abstract TEXT,
			citations INTEGER,
			source_api TEXT,
			api_metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_session ON candidates(session_id)`,
		`CREATE TABLE IF NOT EXISTS papers (
			session_id TEXT NOT NULL REFERENCES research_sessions(id),
			doi TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			year INTEGER,
			venue TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			abstract TEXT,
			citations INTEGER,
			source_api TEXT,
			url TEXT,
			score_relevance REAL,
			score_recency REAL,
			score_quality REAL,
			score_authority REAL,
			score_total REAL,
			rank INTEGER,
			pdf_path TEXT,
			pdf_source TEXT,
			PRIMARY KEY (session_id, doi)
		)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			session_id TEXT NOT NULL REFERENCES research_sessions(id),
			paper_doi TEXT NOT NULL,
			text TEXT NOT NULL,
			page INTEGER,
			context_before TEXT,
			context_after TEXT,
			score REAL,
			validated INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_session ON quotes(session_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin records a new running session and returns its id.
func (s *Store) Begin(ctx context.Context, query string, mode types.Mode, cfg *types.PipelineConfig) (string, error) {
	id := uuid.NewString()
	configJSON := "{}"
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("marshaling config: %w", err)
		}
		configJSON = string(raw)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO research_sessions (id, query, mode, status, created_at, config)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, query, string(mode), StatusRunning,
		time.Now().UTC().Format(time.RFC3339), configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	s.sessionID = id
	return id, nil
}

// Finish writes the terminal status and completion time.
func (s *Store) Finish(ctx context.Context, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE research_sessions SET status = ?, completed_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}
	return nil
}

// SaveCandidates replaces the candidate set for the session.
func (s *Store) SaveCandidates(ctx context.Context, records []types.PaperRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE session_id = ?`, s.sessionID); err != nil {
		return fmt.Errorf("clearing candidates: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (session_id, doi, title, authors, year, venue, abstract, citations, source_api, api_metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		authorsJSON, _ := json.Marshal(rec.Authors)
		metaJSON, _ := json.Marshal(rec.APIMetadata)
		_, err := stmt.ExecContext(ctx,
			s.sessionID, rec.DOI, rec.Title, string(authorsJSON), rec.Year,
			rec.Venue, rec.Abstract, nullableInt(rec.Citations),
			rec.SourceAPI, string(metaJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting candidate %q: %w", rec.DOI, err)
		}
	}
	return tx.Commit()
}

// SavePapers replaces the ranked paper set for the session. It is
// called once after ranking and again after acquisition to persist the
// PDF columns.
func (s *Store) SavePapers(ctx context.Context, papers []types.ScoredPaper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers WHERE session_id = ?`, s.sessionID); err != nil {
		return fmt.Errorf("clearing papers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (session_id, doi, title, authors, year, venue, volume, issue, pages,
			abstract, citations, source_api, url,
			score_relevance, score_recency, score_quality, score_authority, score_total,
			rank, pdf_path, pdf_source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range papers {
		p := &papers[i]
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := stmt.ExecContext(ctx,
			s.sessionID, p.DOI, p.Title, string(authorsJSON), p.Year,
			p.Venue, p.Volume, p.Issue, p.Pages,
			p.Abstract, nullableInt(p.Citations), p.SourceAPI, p.URL,
			p.Scores.Relevance, p.Scores.Recency, p.Scores.Quality,
			p.Scores.Authority, p.Scores.Total,
			p.Rank, p.PDFPath, p.PDFSource,
		)
		if err != nil {
			return fmt.Errorf("inserting paper %q: %w", p.DOI, err)
		}
	}
	return tx.Commit()
}

// SaveQuotes appends validated quotes for the session.
func (s *Store) SaveQuotes(ctx context.Context, quotes []types.Quote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quotes (session_id, paper_doi, text, page, context_before, context_after, score, validated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		_, err := stmt.ExecContext(ctx,
			s.sessionID, q.PaperDOI, q.Text, q.Page,
			q.ContextBefore, q.ContextAfter, q.Relevance, boolToInt(q.Validated),
		)
		if err != nil {
			return fmt.Errorf("inserting quote for %q: %w", q.PaperDOI, err)
		}
	}
	return tx.Commit()
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
