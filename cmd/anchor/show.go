package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"scraperhq/anchor/pkg/resolver"
)

var (
	showFormat  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Show resolves the full configuration and prints the effective values after
merging every layer. Secret fields are masked unless --include-secrets is
given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := resolver.New(cmd.Context(), resolver.Options{
			FilePath: cfgFile,
			Strict:   strict,
			Logger:   newLogger(),
		})
		if err != nil {
			return err
		}
		defer mgr.Close()

		nested, err := mgr.Export(showSecrets)
		if err != nil {
			return err
		}

		var data []byte
		switch showFormat {
		case "json":
			data, err = json.MarshalIndent(nested, "", "  ")
			if err == nil {
				data = append(data, '\n')
			}
		case "yaml", "":
			data, err = yaml.Marshal(nested)
		default:
			return fmt.Errorf("unknown format %q: must be 'yaml' or 'json'", showFormat)
		}
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "yaml", "output format (yaml or json)")
	showCmd.Flags().BoolVar(&showSecrets, "include-secrets", false, "include secret fields in the output")
	rootCmd.AddCommand(showCmd)
}
