package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund/internal/domain"
	"crowdfund/internal/infra"
	"crowdfund/internal/sqlinline"
)

// Operator tool for inspecting the persisted journal without going through
// the API: list campaigns, tail raw events, count records.
func main() {
	var (
		listFlag   bool
		eventsFlag bool
		countFlag  bool
		sinceFlag  int64
	)

	flag.BoolVar(&listFlag, "list", false, "list all campaigns recorded in the journal")
	flag.BoolVar(&eventsFlag, "events", false, "dump raw journal events")
	flag.BoolVar(&countFlag, "count", false, "print the number of journal records")
	flag.Int64Var(&sinceFlag, "since", 0, "with -events, only show records after this sequence number")
	flag.Parse()

	if !listFlag && !eventsFlag && !countFlag {
		exitWithError(errors.New("one of -list, -events or -count must be provided"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "campaigns").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	switch {
	case countFlag:
		var total int64
		row := runner.QueryRow(ctx, sqlinline.QCountEvents)
		if err := row.Scan(&total); err != nil {
			exitWithError(fmt.Errorf("failed to count events: %w", err))
		}
		fmt.Printf("journal records: %d\n", total)

	case listFlag:
		rows, err := runner.Query(ctx, sqlinline.QListCampaignStarts)
		if err != nil {
			exitWithError(fmt.Errorf("failed to list campaigns: %w", err))
		}
		defer rows.Close()

		for rows.Next() {
			var (
				seq        int64
				payload    []byte
				occurredAt time.Time
			)
			if err := rows.Scan(&seq, &payload, &occurredAt); err != nil {
				exitWithError(fmt.Errorf("failed to scan campaign row: %w", err))
			}
			var started domain.ProjectStarted
			if err := json.Unmarshal(payload, &started); err != nil {
				exitWithError(fmt.Errorf("failed to decode campaign payload: %w", err))
			}
			fmt.Printf("%s  %q by %s  min=%d target=%d deadline=%s\n",
				started.CampaignID, started.Title, started.Creator,
				started.MinimumContribution, started.TargetContribution,
				started.Deadline.Format(time.RFC3339))
		}
		if err := rows.Err(); err != nil {
			exitWithError(fmt.Errorf("failed to read campaigns: %w", err))
		}

	case eventsFlag:
		rows, err := runner.Query(ctx, sqlinline.QListEventsSince, sinceFlag)
		if err != nil {
			exitWithError(fmt.Errorf("failed to list events: %w", err))
		}
		defer rows.Close()

		for rows.Next() {
			var (
				seq        int64
				campaignID string
				eventType  string
				payload    []byte
				occurredAt time.Time
			)
			if err := rows.Scan(&seq, &campaignID, &eventType, &payload, &occurredAt); err != nil {
				exitWithError(fmt.Errorf("failed to scan event row: %w", err))
			}
			fmt.Printf("%6d  %s  %-26s %s  %s\n",
				seq, occurredAt.Format(time.RFC3339), eventType, campaignID, string(payload))
		}
		if err := rows.Err(); err != nil {
			exitWithError(fmt.Errorf("failed to read events: %w", err))
		}
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
