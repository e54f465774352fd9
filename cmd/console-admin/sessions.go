package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vitrinnea/admin-console/internal/bootstrap"
)

type listSessionsOptions struct {
	Limit int
}

type clearSessionOptions struct {
	SID string
	Yes bool
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	var opts listSessionsOptions
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.IntVar(&opts.Limit, "limit", 100, "maximum number of sessions to print")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseClearSessionFlags(args []string) (clearSessionOptions, error) {
	var opts clearSessionOptions
	fs := flag.NewFlagSet("clear-session", flag.ContinueOnError)
	fs.StringVar(&opts.SID, "sid", "", "console session ID to clear (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.SID == "" {
		return opts, errors.New("--sid is required")
	}
	return opts, nil
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	prefix := cmdCtx.Config.Session.KeyPrefix
	keysBySID := map[string][]string{}

	iter := client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		rest := strings.TrimPrefix(key, prefix)
		sid, _, found := strings.Cut(rest, ":")
		if !found {
			continue
		}
		keysBySID[sid] = append(keysBySID[sid], key)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan session keys: %w", err)
	}

	if len(keysBySID) == 0 {
		return writef(os.Stdout, "No persisted console sessions found under %q.\n", prefix)
	}

	sids := make([]string, 0, len(keysBySID))
	for sid := range keysBySID {
		sids = append(sids, sid)
	}
	sort.Strings(sids)
	if len(sids) > opts.Limit {
		sids = sids[:opts.Limit]
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "SESSION ID\tKEYS\tTTL"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, sid := range sids {
		ttl, ttlErr := client.TTL(ctx, prefix+sid+":token").Result()
		ttlText := "-"
		if ttlErr == nil && ttl > 0 {
			ttlText = ttl.Round(time.Second).String()
		}
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\n", sid, len(keysBySID[sid]), ttlText); err != nil {
			return fmt.Errorf("write session row: %w", err)
		}
	}
	return tw.Flush()
}

func runClearSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionFlags(args)
	if err != nil {
		return err
	}

	if confirmErr := confirmAction(opts.Yes, "clear persisted session", opts.SID); confirmErr != nil {
		return confirmErr
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	prefix := cmdCtx.Config.Session.KeyPrefix + opts.SID + ":"
	deleted, err := client.Del(ctx,
		prefix+"token",
		prefix+"user",
		prefix+"country",
	).Result()
	if err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}

	return writef(os.Stdout, "Deleted %d key(s) for session %s.\n", deleted, opts.SID)
}
