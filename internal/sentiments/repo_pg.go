package sentiments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"review-analyzer/internal/analysis"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, source_url, analysis_title, analysis_stats, full_transcription, sentiment_details, created_at`

// Insert writes one record. id and created_at are generated when unset.
func (r *PGRepo) Insert(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO sentiments (id, user_id, source_url, analysis_title, analysis_stats, full_transcription, sentiment_details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.AnalysisStats == nil {
		rec.AnalysisStats = []analysis.Stat{}
	}
	if rec.SentimentDetails == nil {
		rec.SentimentDetails = map[string]analysis.FeatureSentiment{}
	}
	stats, err := json.Marshal(rec.AnalysisStats)
	if err != nil {
		return Record{}, fmt.Errorf("marshal stats: %w", err)
	}
	details, err := json.Marshal(rec.SentimentDetails)
	if err != nil {
		return Record{}, fmt.Errorf("marshal sentiment details: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		nullString(rec.SourceURL),
		nullString(rec.AnalysisTitle),
		stats,
		nullString(rec.FullTranscription),
		details,
		rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByUser returns the user's records, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	query := `SELECT ` + selectColumns + ` FROM sentiments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	query := `SELECT ` + selectColumns + ` FROM sentiments WHERE id = $1 AND user_id = $2`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sentiments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec           Record
		sourceURL     sql.NullString
		title         sql.NullString
		transcription sql.NullString
		stats         []byte
		details       []byte
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &sourceURL, &title, &stats, &transcription, &details, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.SourceURL = sourceURL.String
	rec.AnalysisTitle = title.String
	rec.FullTranscription = transcription.String
	rec.AnalysisStats = []analysis.Stat{}
	rec.SentimentDetails = map[string]analysis.FeatureSentiment{}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &rec.AnalysisStats); err != nil {
			return Record{}, fmt.Errorf("decode analysis_stats: %w", err)
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.SentimentDetails); err != nil {
			return Record{}, fmt.Errorf("decode sentiment_details: %w", err)
		}
	}
	return rec.normalized(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
