package main

import (
	"os"

	"github.com/spf13/cobra"

	"scraperhq/anchor/pkg/resolver"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Generate an annotated configuration template",
	Long: `Template prints a YAML document with every configuration field at its
default value and its description as a comment. The output is a valid
configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := resolver.New(cmd.Context(), resolver.Options{
			Logger: newLogger(),
		})
		if err != nil {
			return err
		}
		defer mgr.Close()

		data, err := mgr.CreateTemplate()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
}
