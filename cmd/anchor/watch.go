package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scraperhq/anchor/pkg/history"
	"scraperhq/anchor/pkg/resolver"
	"scraperhq/anchor/pkg/schema"
)

var (
	watchDebounce  time.Duration
	watchSchedule  string
	watchHistoryDB string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configuration file and report reloads",
	Long: `Watch resolves the configuration, then watches the file for changes.
Each burst of filesystem events triggers a single debounced re-resolution;
failed resolutions keep the previous configuration active and are reported.

With --schedule the configuration is additionally re-resolved on a cron
schedule. With --history-db every resolution attempt is recorded in a
SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		var store history.Store = history.NewMemoryStore(0)
		if watchHistoryDB != "" {
			sqliteStore, err := history.NewSQLiteStore(watchHistoryDB)
			if err != nil {
				return err
			}
			store = sqliteStore
		}

		mgr, err := resolver.New(cmd.Context(), resolver.Options{
			FilePath:         cfgFile,
			Strict:           strict,
			Logger:           logger,
			DebounceInterval: watchDebounce,
			History:          store,
			Metrics:          resolver.NewMetrics(nil),
		})
		if err != nil {
			if mgr == nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "initial resolution failed, serving defaults until the file is fixed:\n%v\n", err)
		}
		defer mgr.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := mgr.Watch(ctx, func(res *schema.Resolved, werr error) {
			if werr != nil {
				fmt.Fprintf(os.Stderr, "reload failed, keeping previous configuration:\n%v\n", werr)
				return
			}
			fmt.Printf("configuration changed: snapshot %s (fingerprint %s)\n",
				res.ID(), res.Fingerprint()[:12])
		}); err != nil {
			return err
		}

		sched := resolver.NewScheduler(mgr, watchSchedule, logger)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		snap := mgr.Snapshot()
		fmt.Printf("watching %s (snapshot %s)\n", cfgFile, snap.ID())

		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", resolver.DefaultDebounceInterval,
		"quiet period before a change triggers a reload")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "",
		"cron expression for periodic re-resolution (e.g. '*/5 * * * *')")
	watchCmd.Flags().StringVar(&watchHistoryDB, "history-db", "",
		"SQLite database recording resolution history")
	rootCmd.AddCommand(watchCmd)
}
