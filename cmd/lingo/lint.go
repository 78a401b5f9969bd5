package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-lingo/internal/validator"
)

func (c *cli) lintCmd() *cobra.Command {
	var (
		source      string
		translation string
		ratio       float64
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check one translation against its source string",
		Long: `Reports placeholder and tag differences plus translations longer than
--ratio times the source. Prints the issues as JSON and exits 1 when any exist.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			issues := validator.New(validator.WithLengthRatio(ratio)).ValidateString(source, translation)
			if issues == nil {
				issues = []validator.Issue{}
			}
			if err := c.printJSON(issues); err != nil {
				return err
			}
			if len(issues) > 0 {
				return errReportFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source string")
	cmd.Flags().StringVar(&translation, "translation", "", "Translated string")
	cmd.Flags().Float64Var(&ratio, "ratio", 2, "Maximum translation to source length ratio")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("translation")
	return cmd
}
