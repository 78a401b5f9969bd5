package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	lingo "github.com/goliatone/go-lingo"
	"github.com/goliatone/go-lingo/internal/logging/console"
	"github.com/goliatone/go-lingo/internal/runtimeconfig"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// errReportFailed signals a report that was printed but contains errors.
var errReportFailed = errors.New("report contains errors")

type cli struct {
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "lingo",
		Short:         "Validate, lint and resolve translation bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "YAML or TOML config file (LINGO_* variables override it)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(c.validateCmd(), c.lintCmd(), c.resolveCmd(), c.importCmd())
	return root
}

func (c *cli) config() (lingo.Config, error) {
	if path := strings.TrimSpace(c.cfgFile); path != "" {
		return lingo.LoadConfig(path)
	}
	cfg := lingo.DefaultConfig()
	if err := runtimeconfig.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *cli) loggerProvider() interfaces.LoggerProvider {
	level := console.LevelWarn
	if c.verbose {
		level = console.LevelDebug
	}
	return console.NewProvider(console.Options{Writer: c.stderr, MinLevel: &level})
}

func (c *cli) printJSON(value any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
