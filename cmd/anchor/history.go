package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scraperhq/anchor/pkg/history"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded resolution attempts",
	Long: `History lists the resolution attempts recorded in a SQLite history
database, newest first, with outcome and snapshot fingerprint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewSQLiteStore(historyDB)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no resolutions recorded")
			return nil
		}

		for _, e := range entries {
			fp := e.Fingerprint
			if len(fp) > 12 {
				fp = fp[:12]
			}
			fmt.Printf("%s  %-8s %-8s %s\n",
				e.Time.Format("2006-01-02 15:04:05"), e.Trigger, e.Outcome, fp)
			for _, v := range e.Violations {
				fmt.Printf("    %s\n", v)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "history-db", "anchor-history.db",
		"SQLite database recording resolution history")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to list")
	rootCmd.AddCommand(historyCmd)
}
