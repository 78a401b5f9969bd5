package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	lingo "github.com/goliatone/go-lingo"
	"github.com/goliatone/go-lingo/internal/di"
)

func (c *cli) resolveCmd() *cobra.Command {
	var (
		dir      string
		language string
	)

	cmd := &cobra.Command{
		Use:   "resolve KEY [NAME=VALUE...]",
		Short: "Resolve one key from a bundle directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			cfg.Loader.Source = lingo.SourceFS
			cfg.Loader.Watch = false
			if cmd.Flags().Changed("dir") || cfg.Loader.Dir == "" {
				cfg.Loader.Dir = dir
			}

			values, err := parseValues(args[1:])
			if err != nil {
				return err
			}

			module, err := lingo.New(cfg, di.WithLoggerProvider(c.loggerProvider()))
			if err != nil {
				return err
			}
			defer module.Close()

			fmt.Fprintln(c.stdout, module.Resolve(cmd.Context(), language, args[0], values))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "locales", "Bundle directory laid out as {namespace}/{language}.{ext}")
	cmd.Flags().StringVar(&language, "lang", "", "Language code (defaults to the configured default)")
	return cmd
}

func parseValues(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q, expected NAME=VALUE", arg)
		}
		values[name] = value
	}
	return values, nil
}
