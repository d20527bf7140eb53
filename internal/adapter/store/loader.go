package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// hydroRecordColumns is the column order used by both the staging-table CopyFrom and
// the merge INSERT ... SELECT, so the two statements stay in lockstep.
var hydroRecordColumns = []string{
	"feature_id", "valid_time", "variable", "value", "source", "forecast_hour", "ingested_at",
}

// hydroRecordRows adapts a []domain.HydroRecord to pgx.CopyFromSource.
type hydroRecordRows struct {
	records []domain.HydroRecord
	idx     int
}

func (r *hydroRecordRows) Next() bool {
	r.idx++
	return r.idx <= len(r.records)
}

func (r *hydroRecordRows) Values() ([]any, error) {
	rec := r.records[r.idx-1]
	return []any{rec.FeatureID, rec.ValidTime, string(rec.Variable), rec.Value, string(rec.Source), rec.ForecastHour, rec.IngestedAt}, nil
}

func (r *hydroRecordRows) Err() error { return nil }

// Loader performs the idempotent bulk insert of §4.5: COPY into a staging table, then a
// single INSERT ... ON CONFLICT DO UPDATE merge into nwm.hydro_record, all inside one
// transaction per (product, cycle_time) job. Conflicts are resolved by overwriting with
// the new value, so re-running a job for corrected data is always safe.
type Loader struct {
	pool   PgxIface
	logger *slog.Logger
}

func NewLoader(pool PgxIface, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{pool: pool, logger: logger}
}

// LoadJob describes one ingestion job's worth of records and is used to populate the
// IngestionLog row the Loader writes alongside the data.
type LoadJob struct {
	Product   string
	CycleTime time.Time
	Domain    string
	Records   []domain.HydroRecord
}

// Load runs the full bulk-insert + merge + IngestionLog write in a single transaction.
// On any mid-job error it rolls back and writes a failed IngestionLog row via a
// separate, best-effort transaction (the failed-row write must survive the rollback of
// the data transaction it is reporting on).
func (l *Loader) Load(ctx context.Context, job LoadJob) error {
	jobID := uuid.NewString()
	startedAt := time.Now().UTC()

	err := WithTransaction(ctx, l.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			CREATE TEMP TABLE hydro_record_staging (
				feature_id    bigint,
				valid_time    timestamptz,
				variable      text,
				value         double precision,
				source        text,
				forecast_hour integer,
				ingested_at   timestamptz
			) ON COMMIT DROP
		`); err != nil {
			return fmt.Errorf("creating staging table: %w", err)
		}

		rows := &hydroRecordRows{records: job.Records}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"hydro_record_staging"}, hydroRecordColumns, rows); err != nil {
			return fmt.Errorf("copying into staging table: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO nwm.hydro_record (feature_id, valid_time, variable, value, source, forecast_hour, ingested_at)
			SELECT feature_id, valid_time, variable, value, source, forecast_hour, ingested_at
			FROM hydro_record_staging
			ON CONFLICT (feature_id, valid_time, variable, source)
			DO UPDATE SET
				value         = EXCLUDED.value,
				forecast_hour = EXCLUDED.forecast_hour,
				ingested_at   = EXCLUDED.ingested_at
		`); err != nil {
			return fmt.Errorf("merging staging table: %w", err)
		}

		completedAt := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO nwm.ingestion_log (job_id, product, cycle_time, domain, status, records_ingested, error_message, started_at, completed_at, duration_seconds)
			VALUES ($1, $2, $3, $4, 'success', $5, '', $6, $7, $8)
		`, jobID, job.Product, job.CycleTime, job.Domain, len(job.Records), startedAt, completedAt, completedAt.Sub(startedAt).Seconds()); err != nil {
			return fmt.Errorf("writing ingestion log: %w", err)
		}

		return nil
	})

	if err != nil {
		l.logger.Error("ingestion job failed", "job_id", jobID, "product", job.Product, "cycle_time", job.CycleTime, "error", err)
		l.writeFailedLog(ctx, jobID, job, startedAt, err)
		return domain.NewJobError(domain.JobErrorStore, err)
	}

	l.logger.Info("ingestion job succeeded", "job_id", jobID, "product", job.Product, "cycle_time", job.CycleTime, "records", len(job.Records))
	return nil
}

// writeFailedLog records a failed IngestionLog row outside the rolled-back data
// transaction. Best-effort: a failure here is logged but does not mask the original
// job error returned to the caller.
func (l *Loader) writeFailedLog(ctx context.Context, jobID string, job LoadJob, startedAt time.Time, cause error) {
	completedAt := time.Now().UTC()
	_, err := l.pool.Exec(ctx, `
		INSERT INTO nwm.ingestion_log (job_id, product, cycle_time, domain, status, records_ingested, error_message, started_at, completed_at, duration_seconds)
		VALUES ($1, $2, $3, $4, 'failed', 0, $5, $6, $7, $8)
	`, jobID, job.Product, job.CycleTime, job.Domain, cause.Error(), startedAt, completedAt, completedAt.Sub(startedAt).Seconds())
	if err != nil {
		l.logger.Error("failed to write failed ingestion log", "job_id", jobID, "error", err)
	}
}
