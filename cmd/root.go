// Package cmd implements the rtable command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/rtable/internal/config"
	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/render"
	"github.com/oakwood-commons/rtable/internal/ui"
	"github.com/oakwood-commons/rtable/pkg/loader"
	"github.com/oakwood-commons/rtable/pkg/logger"
	"github.com/oakwood-commons/rtable/pkg/settings"
)

// rootOptions holds the flag values of one command tree.
type rootOptions struct {
	interactive bool
	output      string
	configFile  string
	logLevel    string
	noColor     bool
	width       int
	keyMode     string
	title       string

	inputFormat string
	sqlDSN      string
	sqlTable    string
	refresh     time.Duration

	fields      []string
	sortKey     string
	descending  bool
	rowsPerPage int
	page        int
	filter      string
	where       string

	cfg config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}
	name := settings.CliBinaryName

	root := &cobra.Command{
		Use:   name + " [file]",
		Short: name + " - paginated, sortable, filterable tables over records",
		Long: name + ` shows records from a JSON, NDJSON, YAML, TOML or CSV file, from stdin,
or from a SQL table, as a table that can be sorted by column, filtered by
free text and paged. Without -i it prints one page and exits.

Filter text is split on whitespace; "quoted phrases" stay together. A record
matches when every term appears in at least one displayed field, ignoring
case.`,
		Example: `  ` + name + ` people.json
  ` + name + ` people.csv --sort age --desc --rows-per-page 20 --page 2
  ` + name + ` people.yaml --fields 'name,email:E-mail,active:Active:yesno' --filter 'alice "bob smith"'
  cat people.ndjson | ` + name + ` -o json
  ` + name + ` --sql-dsn ./app.db --sql-table users -i --refresh 5s`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config-file", "", "path to a YAML or TOML config file (default $XDG_CONFIG_HOME/rtable/config.yaml)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level: debug|info|warn|error or a zap level number (default from config)")

	f := root.Flags()
	f.BoolVarP(&o.interactive, "interactive", "i", false, "start the interactive table")
	f.StringVarP(&o.output, "output", "o", "", "output format: "+strings.Join(render.Formats, "|")+" (default from config)")
	f.BoolVar(&o.noColor, "no-color", false, "disable color output")
	f.IntVar(&o.width, "width", 0, "output width in columns (0 = terminal width)")
	f.StringVar(&o.keyMode, "key-mode", "", "interactive keybindings: vim|emacs (default from config)")
	f.StringVar(&o.title, "title", "", "title shown above the interactive table")
	f.StringVar(&o.inputFormat, "input-format", "", "input format: json|ndjson|yaml|toml|csv (default detected)")
	f.StringVar(&o.sqlDSN, "sql-dsn", "", "read records from a database (sqlite path, postgres:// or mysql:// DSN)")
	f.StringVar(&o.sqlTable, "sql-table", "", "table to read with --sql-dsn")
	f.DurationVar(&o.refresh, "refresh", 0, "with --sql-dsn and -i, re-query the table at this interval")
	f.StringSliceVar(&o.fields, "fields", nil, "columns as key[:label[:format]]; formats: "+strings.Join(field.FormatterNames(), ", "))
	f.StringVar(&o.sortKey, "sort", "", "initial sort field (default first column)")
	f.BoolVar(&o.descending, "desc", false, "sort descending")
	f.IntVar(&o.rowsPerPage, "rows-per-page", 0, "rows per page (default from config)")
	f.IntVar(&o.page, "page", 1, "page to show, starting at 1")
	f.StringVar(&o.filter, "filter", "", "initial filter text")
	f.StringVar(&o.where, "where", "", "CEL predicate over each record as '_', e.g. '_.age >= 30' (file and stdin input)")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(newVersionCmd(), newConfigCmd(o))
	return root
}

// setup loads config and installs the logger in the command context.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	path := config.ResolvePath(o.configFile)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	o.cfg = cfg

	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		levelName = o.logLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}

	lgr := logger.Get(level)
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	run := settings.NewCliParams()
	run.MinLogLevel = level
	run.ConfigPath = path

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	ctx = settings.IntoContext(ctx, run)
	cmd.SetContext(ctx)
	if path != "" {
		lgr.V(1).Info("loaded config", "path", path)
	}
	return nil
}

func (o *rootOptions) validate(cmd *cobra.Command) error {
	if o.output != "" && !contains(render.Formats, o.output) {
		return fmt.Errorf("invalid --output %q (want one of %s)", o.output, strings.Join(render.Formats, ", "))
	}
	if o.keyMode != "" && !ui.IsValidKeyMode(o.keyMode) {
		return fmt.Errorf("invalid --key-mode %q (want vim or emacs)", o.keyMode)
	}
	if cmd.Flags().Changed("rows-per-page") && o.rowsPerPage <= 0 {
		return fmt.Errorf("--rows-per-page must be positive, got %d", o.rowsPerPage)
	}
	if o.width < 0 {
		return fmt.Errorf("--width must not be negative, got %d", o.width)
	}
	if o.sqlDSN != "" && o.sqlTable == "" {
		return fmt.Errorf("--sql-table is required with --sql-dsn")
	}
	if o.sqlTable != "" && o.sqlDSN == "" {
		return fmt.Errorf("--sql-dsn is required with --sql-table")
	}
	if o.refresh < 0 {
		return fmt.Errorf("--refresh must not be negative")
	}
	switch loader.Format(o.inputFormat) {
	case loader.FormatAuto, loader.FormatJSON, loader.FormatNDJSON, loader.FormatYAML, loader.FormatTOML, loader.FormatCSV:
	default:
		return fmt.Errorf("invalid --input-format %q", o.inputFormat)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

func newVersionCmd() *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "version",
		Short: "Print " + settings.CliBinaryName + " version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch format {
			case "", "text":
				_, err := fmt.Fprintln(out, versionString())
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(settings.VersionInformation)
			case "yaml":
				return yaml.NewEncoder(out).Encode(settings.VersionInformation)
			default:
				return fmt.Errorf("invalid version output %q (want text, json or yaml)", format)
			}
		},
	}
	c.Flags().StringVarP(&format, "output", "o", "text", "output format: text|json|yaml")
	return c
}

// Execute runs the command line until it completes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
