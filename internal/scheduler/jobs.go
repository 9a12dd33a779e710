package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/analysis"
	"github.com/aristath/marketscan/internal/database"
	"github.com/aristath/marketscan/internal/notify"
	"github.com/aristath/marketscan/internal/report"
)

// DailyAnalysisJob runs the full pipeline and fans the result out to
// the store, the runs table, the report writer and the notifier. Every
// sink after the store is best-effort: a failed report write or
// notification never fails the job.
type DailyAnalysisJob struct {
	analysis *analysis.Service
	store    *analysis.Store
	runs     *database.RunRepository
	writer   *report.Writer // nil disables report files
	notifier *notify.Notifier
	log      zerolog.Logger
}

// NewDailyAnalysisJob wires the daily job.
func NewDailyAnalysisJob(
	svc *analysis.Service,
	store *analysis.Store,
	runs *database.RunRepository,
	writer *report.Writer,
	notifier *notify.Notifier,
	log zerolog.Logger,
) *DailyAnalysisJob {
	return &DailyAnalysisJob{
		analysis: svc,
		store:    store,
		runs:     runs,
		writer:   writer,
		notifier: notifier,
		log:      log.With().Str("job", "daily_analysis").Logger(),
	}
}

// Name implements Job.
func (j *DailyAnalysisJob) Name() string { return "daily_analysis" }

// Run implements Job.
func (j *DailyAnalysisJob) Run(ctx context.Context) error {
	result, err := j.analysis.Run(ctx)
	if err != nil {
		if nerr := j.notifier.SendError(context.Background(), err); nerr != nil {
			j.log.Warn().Err(nerr).Msg("Failed to send error notification")
		}
		return err
	}

	j.store.Put(result)

	if j.runs != nil {
		if err := j.runs.Save(result); err != nil {
			j.log.Error().Err(err).Msg("Failed to persist run")
		}
	}

	if j.writer != nil {
		if _, err := j.writer.Write(result); err != nil {
			j.log.Error().Err(err).Msg("Failed to write report")
		}
	}

	// Notification gets its own context so a cancelled run timeout
	// does not swallow the summary.
	if err := j.notifier.SendSummary(context.Background(), result); err != nil {
		j.log.Warn().Err(err).Msg("Failed to send summary")
	}

	return nil
}
