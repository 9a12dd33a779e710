// Package report renders analysis results to JSON files for the
// dashboard and other downstream consumers. All non-finite numbers are
// emitted as null.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/domain"
)

// Writer persists one JSON report per analysis date plus a rolling
// latest.json.
type Writer struct {
	outputDir string
	log       zerolog.Logger
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string, log zerolog.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		log:       log.With().Str("component", "report").Logger(),
	}
}

// Write stores the result as dma_data_<analysis date>.json and copies
// it to latest.json. It returns the dated file path.
func (w *Writer) Write(result *domain.AnalysisResult) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	payload, err := Render(result)
	if err != nil {
		return "", err
	}

	dated := filepath.Join(w.outputDir, fmt.Sprintf("dma_data_%s.json", result.Metadata.AnalysisDate))
	if err := os.WriteFile(dated, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	latest := filepath.Join(w.outputDir, "latest.json")
	if err := os.WriteFile(latest, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write latest report: %w", err)
	}

	w.log.Info().
		Str("path", dated).
		Int("bytes", len(payload)).
		Msg("Report written")
	return dated, nil
}

// Render serializes a result to indented JSON. NaN and infinities are
// handled by the domain.Float marshaler, so the output is always valid
// JSON.
func Render(result *domain.AnalysisResult) ([]byte, error) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return payload, nil
}
