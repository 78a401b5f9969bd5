package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lingo "github.com/goliatone/go-lingo"
	"github.com/goliatone/go-lingo/internal/validator"
)

func (c *cli) validateCmd() *cobra.Command {
	var (
		dir       string
		base      string
		languages []string
		ratio     float64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compare every language in a bundle directory against the base language",
		Long: `Reads {namespace}/{language}.{json,yaml,yml,toml} documents under --dir,
prints the validation report as JSON and exits 1 when it contains errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") && cfg.Loader.Dir != "" {
				dir = cfg.Loader.Dir
			}
			if base == "" {
				base = cfg.Validator.BaseLanguage
			}
			if !cmd.Flags().Changed("ratio") && cfg.Validator.LengthRatio > 0 {
				ratio = cfg.Validator.LengthRatio
			}

			set, err := lingo.LoadBundles(os.DirFS(dir))
			if err != nil {
				return fmt.Errorf("load bundles: %w", err)
			}

			// without a config file the directory decides which languages exist
			codes := splitList(languages)
			if len(codes) == 0 {
				codes = set.Languages()
				if c.cfgFile != "" {
					codes = cfg.Languages
				}
			}

			v := validator.New(
				validator.WithBaseLanguage(base),
				validator.WithLanguages(codes...),
				validator.WithLengthRatio(ratio),
			)
			result := v.Validate(set)
			if err := c.printJSON(result); err != nil {
				return err
			}
			if !result.IsValid {
				return errReportFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "locales", "Bundle directory laid out as {namespace}/{language}.{ext}")
	cmd.Flags().StringVar(&base, "base", "", "Base language (defaults to the configured base)")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "Languages to check, comma separated (defaults to the languages found in --dir)")
	cmd.Flags().Float64Var(&ratio, "ratio", 2, "Length ratio used by the string lint")
	return cmd
}
