package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/marketscan/internal/domain"
)

// RunSummary is one row of the runs history, without the payload.
type RunSummary struct {
	RunID               string    `json:"run_id"`
	AnalysisDate        string    `json:"analysis_date"`
	GeneratedAt         time.Time `json:"generated_at"`
	Version             string    `json:"version"`
	MarketCondition     string    `json:"market_condition"`
	RiskAppetite        string    `json:"risk_appetite"`
	InstrumentsAnalyzed int       `json:"instruments_analyzed"`
	FailedSymbols       int       `json:"failed_symbols"`
}

// RunRepository persists analysis results.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save stores one analysis result. The full result is kept as a JSON
// payload; headline fields are lifted into columns for listing.
func (r *RunRepository) Save(result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO analysis_runs
			(run_id, analysis_date, generated_at, version, market_condition,
			 risk_appetite, instruments_analyzed, failed_symbols, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Metadata.RunID,
		result.Metadata.AnalysisDate,
		result.Metadata.GeneratedAt.Format(time.RFC3339),
		result.Metadata.Version,
		result.MarketRegime.MarketCondition,
		result.MarketRegime.RiskAppetite,
		result.Metadata.InstrumentsAnalyzed,
		len(result.FailedSymbols),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Latest returns the most recent stored result, or nil when the table
// is empty.
func (r *RunRepository) Latest() (*domain.AnalysisResult, error) {
	var payload string
	err := r.db.QueryRow(`
		SELECT payload FROM analysis_runs
		ORDER BY generated_at DESC LIMIT 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode run payload: %w", err)
	}
	return &result, nil
}

// List returns run summaries, newest first.
func (r *RunRepository) List(limit int) ([]RunSummary, error) {
	rows, err := r.db.Query(`
		SELECT run_id, analysis_date, generated_at, version, market_condition,
		       risk_appetite, instruments_analyzed, failed_symbols
		FROM analysis_runs
		ORDER BY generated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var generated string
		if err := rows.Scan(&s.RunID, &s.AnalysisDate, &generated, &s.Version,
			&s.MarketCondition, &s.RiskAppetite, &s.InstrumentsAnalyzed, &s.FailedSymbols); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.GeneratedAt, _ = time.Parse(time.RFC3339, generated)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}
