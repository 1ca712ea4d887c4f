package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"volunteermatch/config"
	"volunteermatch/internal/adapters/cache"
	"volunteermatch/internal/domain"
	"volunteermatch/internal/repository/postgres"
	"volunteermatch/internal/services"
)

func autoMatchCmd() *cobra.Command {
	var eventID string
	var opts domain.AutoMatchOptions

	cmd := &cobra.Command{
		Use:   "auto-match",
		Short: "Assign the best-scoring eligible volunteers to an event",
		Long:  `Ranks every volunteer for the event and confirms each eligible one in order until the event is full or --max is reached. Uses DATABASE_URL and the other server settings.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := config.NewLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			weights, err := config.LoadScoringWeights(cfg.MatchWeightsFile)
			if err != nil {
				return err
			}
			db, err := sql.Open("postgres", cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			scoreCache, closeCache, err := cache.NewScoreCache(ctx, cache.Config{
				Provider: cfg.CacheProvider,
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			if err != nil {
				return err
			}
			defer closeCache()

			svc := services.NewMatchService(
				postgres.NewVolunteerRepository(db),
				postgres.NewEventRepository(db),
				postgres.NewMatchRepository(db),
				scoreCache, weights, cfg.ScoreCacheTTL, logger,
				// Batch runs get at least a minute.
				max(cfg.ContextTimeout, time.Minute),
			)
			result, err := svc.AutoMatch(ctx, eventID, opts)
			if err != nil {
				return err
			}
			printAutoAssign(cmd.OutOrStdout(), result, opts.DryRun)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "Event ID")
	cmd.Flags().IntVar(&opts.MinScore, "min-score", 0, "Skip volunteers scoring below this")
	cmd.Flags().IntVar(&opts.MaxMatches, "max", 0, "Stop after this many assignments (0 for no limit)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the assignments without saving them")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func printAutoAssign(w io.Writer, r *domain.AutoAssignResult, dryRun bool) {
	verb := "Assigned"
	if dryRun {
		verb = "Would assign"
	}
	fmt.Fprintf(w, "%s %d volunteer(s):\n", verb, len(r.Assigned))
	for _, id := range r.Assigned {
		fmt.Fprintf(w, "  + %s\n", id)
	}
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "Skipped %d:\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  - %s (score %d): %s\n", s.VolunteerID, s.Score, s.Reason)
		for _, c := range s.Conflicts {
			fmt.Fprintf(w, "      overlaps %s (%s)\n", c.Name, c.EventID)
		}
	}
}
