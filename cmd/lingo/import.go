package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	lingo "github.com/goliatone/go-lingo"
	"github.com/goliatone/go-lingo/internal/di"
)

type importReport struct {
	Dir       string   `json:"dir"`
	Written   int      `json:"written"`
	Languages []string `json:"languages"`
}

func (c *cli) importCmd() *cobra.Command {
	var (
		dir     string
		driver  string
		dsn     string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a bundle directory into the catalog database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			cfg.Loader.Source = lingo.SourceCatalog
			cfg.Loader.Watch = false
			if cmd.Flags().Changed("driver") || strings.TrimSpace(cfg.Catalog.Driver) == "" {
				cfg.Catalog.Driver = driver
			}
			if cmd.Flags().Changed("dsn") || strings.TrimSpace(cfg.Catalog.DSN) == "" {
				cfg.Catalog.DSN = dsn
			}
			if cmd.Flags().Changed("migrate") || !cfg.Catalog.Migrate {
				cfg.Catalog.Migrate = migrate
			}

			set, err := lingo.LoadBundles(os.DirFS(dir))
			if err != nil {
				return err
			}

			module, err := lingo.New(cfg, di.WithLoggerProvider(c.loggerProvider()))
			if err != nil {
				return err
			}
			defer module.Close()

			written, err := module.Import(cmd.Context(), set)
			if err != nil {
				return err
			}
			return c.printJSON(importReport{Dir: dir, Written: written, Languages: set.Languages()})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "locales", "Bundle directory laid out as {namespace}/{language}.{ext}")
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "Catalog driver: sqlite or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Catalog data source name")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply embedded migrations before importing")
	return cmd
}
