package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/vitrinnea/admin-console/internal/data"
)

type auditTailOptions struct {
	Limit int
}

func parseAuditTailFlags(args []string) (auditTailOptions, error) {
	var opts auditTailOptions
	fs := flag.NewFlagSet("audit-tail", flag.ContinueOnError)
	fs.IntVar(&opts.Limit, "limit", 50, "maximum number of events to print")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func runAuditTail(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditTailFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, 2*time.Minute, func(ctx context.Context, db *sql.DB) error {
		events, listErr := data.NewAuditRepo(db).ListRecent(ctx, opts.Limit)
		if listErr != nil {
			return fmt.Errorf("list audit events: %w", listErr)
		}

		if len(events) == 0 {
			return writef(os.Stdout, "No audit events recorded.\n")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, "OCCURRED AT\tACTOR\tACTION\tTARGET\tCOUNTRY\tREQUEST ID"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, ev := range events {
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				ev.OccurredAt.Format(time.RFC3339),
				ev.ActorEmail, ev.Action, ev.Target, ev.Country, ev.RequestID,
			); err != nil {
				return fmt.Errorf("write event row: %w", err)
			}
		}
		return tw.Flush()
	})
}
