// Command ingestreport summarizes nwm.ingestion_log over a time window: per-product
// success/failure counts, records ingested, and the most recent failure's error message,
// for a quick read on ingestion health without a database console.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSummary struct {
	product         string
	succeeded       int64
	failed          int64
	recordsIngested int64
	lastFailureAt   *time.Time
	lastFailureMsg  string
}

func main() {
	dsn := flag.String("dsn", "", "Postgres connection string (required)")
	product := flag.String("product", "", "Restrict to a single product (default: all products)")
	since := flag.String("since", "", "Only include jobs started at or after this RFC3339 time (default: 24h ago)")
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "ingestreport: -dsn is required")
		os.Exit(2)
	}

	sinceTime := time.Now().UTC().Add(-24 * time.Hour)
	if *since != "" {
		parsed, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ingestreport: invalid -since: %v\n", err)
			os.Exit(2)
		}
		sinceTime = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestreport: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	summaries, err := queryIngestionLog(ctx, pool, *product, sinceTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestreport: %v\n", err)
		os.Exit(1)
	}

	if len(summaries) == 0 {
		fmt.Printf("no ingestion_log rows since %s\n", sinceTime.Format(time.RFC3339))
		return
	}

	printReport(summaries, sinceTime)
}

func queryIngestionLog(ctx context.Context, pool *pgxpool.Pool, product string, since time.Time) ([]productSummary, error) {
	rows, err := pool.Query(ctx, `
		SELECT product, status, count(*), coalesce(sum(records_ingested), 0)
		FROM nwm.ingestion_log
		WHERE started_at >= $1 AND ($2 = '' OR product = $2)
		GROUP BY product, status
		ORDER BY product
	`, since, product)
	if err != nil {
		return nil, fmt.Errorf("querying ingestion log: %w", err)
	}
	defer rows.Close()

	byProduct := make(map[string]*productSummary)
	order := make([]string, 0)

	for rows.Next() {
		var name, status string
		var count, records int64
		if err := rows.Scan(&name, &status, &count, &records); err != nil {
			return nil, fmt.Errorf("scanning ingestion log row: %w", err)
		}
		s, ok := byProduct[name]
		if !ok {
			s = &productSummary{product: name}
			byProduct[name] = s
			order = append(order, name)
		}
		switch status {
		case "success":
			s.succeeded += count
			s.recordsIngested += records
		case "failed":
			s.failed += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingestion log: %w", err)
	}

	for _, name := range order {
		failureAt, failureMsg, err := latestFailure(ctx, pool, name, since)
		if err != nil {
			return nil, err
		}
		byProduct[name].lastFailureAt = failureAt
		byProduct[name].lastFailureMsg = failureMsg
	}

	summaries := make([]productSummary, 0, len(order))
	for _, name := range order {
		summaries = append(summaries, *byProduct[name])
	}
	return summaries, nil
}

func latestFailure(ctx context.Context, pool *pgxpool.Pool, product string, since time.Time) (*time.Time, string, error) {
	row := pool.QueryRow(ctx, `
		SELECT completed_at, error_message
		FROM nwm.ingestion_log
		WHERE product = $1 AND status = 'failed' AND started_at >= $2
		ORDER BY completed_at DESC
		LIMIT 1
	`, product, since)

	var completedAt time.Time
	var message string
	if err := row.Scan(&completedAt, &message); err != nil {
		if err.Error() == "no rows in result set" {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("querying latest failure for %s: %w", product, err)
	}
	return &completedAt, message, nil
}

func printReport(summaries []productSummary, since time.Time) {
	fmt.Printf("ingestion report since %s\n\n", since.Format(time.RFC3339))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tSUCCEEDED\tFAILED\tRECORDS\tLAST FAILURE")
	for _, s := range summaries {
		lastFailure := "-"
		if s.lastFailureAt != nil {
			lastFailure = fmt.Sprintf("%s (%s)", s.lastFailureAt.Format(time.RFC3339), s.lastFailureMsg)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", s.product, s.succeeded, s.failed, s.recordsIngested, lastFailure)
	}
	_ = w.Flush()
}
