package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/resolver"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Long: `Validate resolves the full configuration (defaults, file, environment) and
reports every violation found, with the source layer that supplied each
offending value. The exit code is non-zero when the configuration is
invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := resolver.New(cmd.Context(), resolver.Options{
			FilePath: cfgFile,
			Strict:   strict,
			Logger:   newLogger(),
		})
		if err != nil {
			var list *conferr.List
			if errors.As(err, &list) {
				fmt.Fprintf(os.Stderr, "configuration invalid: %d violation(s)\n", list.Len())
				for _, v := range list.Violations {
					fmt.Fprintf(os.Stderr, "  - %s\n", v.Error())
				}
				os.Exit(1)
			}
			return err
		}
		defer mgr.Close()

		snap := mgr.Snapshot()
		fmt.Printf("configuration valid (snapshot %s)\n", snap.ID())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
