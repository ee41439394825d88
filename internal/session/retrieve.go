// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Info is the research_sessions row for one run.
type Info struct {
	ID          string
	Query       string
	Mode        types.Mode
	Status      string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// ErrNoSession is returned when the store holds no session row.
var ErrNoSession = errors.New("session: no session recorded")

// Load returns the session row. A fresh Open on an existing file
// resumes the stored session id so the read side works across runs.
func (s *Store) Load(ctx context.Context) (Info, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, mode, status, created_at, completed_at
		 FROM research_sessions ORDER BY created_at DESC LIMIT 1`)

	var (
		info        Info
		mode        string
		createdAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&info.ID, &info.Query, &mode, &info.Status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, ErrNoSession
	}
	if err != nil {
		return Info{}, fmt.Errorf("loading session: %w", err)
	}

	info.Mode = types.Mode(mode)
	info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if completedAt.Valid {
		info.CompletedAt, _ = time.Parse(time.RFC3339, completedAt.String)
	}
	s.sessionID = info.ID
	return info, nil
}

// LoadCandidates returns the merged candidate set in insertion order.
func (s *Store) LoadCandidates(ctx context.Context) ([]types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doi, title, authors, year, venue, abstract, citations, source_api, api_metadata
		 FROM candidates WHERE session_id = ?`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var records []types.PaperRecord
	for rows.Next() {
		var (
			rec         types.PaperRecord
			authorsJSON string
			metaJSON    string
			citations   sql.NullInt64
		)
		if err := rows.Scan(&rec.DOI, &rec.Title, &authorsJSON, &rec.Year,
			&rec.Venue, &rec.Abstract, &citations, &rec.SourceAPI, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &rec.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %q: %w", rec.DOI, err)
		}
		if metaJSON != "" && metaJSON != "null" {
			if err := json.Unmarshal([]byte(metaJSON), &rec.APIMetadata); err != nil {
				return nil, fmt.Errorf("decoding api_metadata for %q: %w", rec.DOI, err)
			}
		}
		if citations.Valid {
			c := int(citations.Int64)
			rec.Citations = &c
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LoadPapers returns the ranked papers ordered by rank.
func (s *Store) LoadPapers(ctx context.Context) ([]types.ScoredPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doi, title, authors, year, venue, volume, issue, pages,
			abstract, citations, source_api, url,
			score_relevance, score_recency, score_quality, score_authority, score_total,
			rank, pdf_path, pdf_source
		 FROM papers WHERE session_id = ? ORDER BY rank`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.ScoredPaper
	for rows.Next() {
		var (
			p           types.ScoredPaper
			authorsJSON string
			citations   sql.NullInt64
		)
		if err := rows.Scan(&p.DOI, &p.Title, &authorsJSON, &p.Year,
			&p.Venue, &p.Volume, &p.Issue, &p.Pages,
			&p.Abstract, &citations, &p.SourceAPI, &p.URL,
			&p.Scores.Relevance, &p.Scores.Recency, &p.Scores.Quality,
			&p.Scores.Authority, &p.Scores.Total,
			&p.Rank, &p.PDFPath, &p.PDFSource); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %q: %w", p.DOI, err)
		}
		if citations.Valid {
			c := int(citations.Int64)
			p.Citations = &c
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// LoadQuotes returns all stored quotes grouped in insertion order.
func (s *Store) LoadQuotes(ctx context.Context) ([]types.Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_doi, text, page, context_before, context_after, score, validated
		 FROM quotes WHERE session_id = ?`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []types.Quote
	for rows.Next() {
		var (
			q         types.Quote
			validated int
		)
		if err := rows.Scan(&q.PaperDOI, &q.Text, &q.Page,
			&q.ContextBefore, &q.ContextAfter, &q.Relevance, &validated); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		q.Validated = validated != 0
		q.WordCount = wordCount(q.Text)
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
