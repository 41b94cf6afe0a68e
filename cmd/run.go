package cmd

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/render"
	"github.com/oakwood-commons/rtable/internal/source"
	"github.com/oakwood-commons/rtable/internal/table"
	"github.com/oakwood-commons/rtable/internal/ui"
	"github.com/oakwood-commons/rtable/pkg/loader"
	"github.com/oakwood-commons/rtable/pkg/logger"
	"github.com/oakwood-commons/rtable/pkg/settings"
)

// errNoInput is returned when there is nothing to read.
var errNoInput = errors.New("no input: pass a file, pipe records on stdin, or use --sql-dsn")

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	if err := o.validate(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	lgr := *logger.FromContext(ctx)

	data, name, closeFn, err := o.openInput(cmd, args)
	if err != nil {
		return err
	}
	defer closeFn()

	topts, err := o.tableOptions(cmd.Flags(), name, lgr)
	if err != nil {
		return err
	}

	run, ok := settings.FromContext(ctx)
	if !ok {
		run = settings.NewCliParams()
	}
	run.Interactive = o.interactive
	run.Output = o.outputFormat()
	run.KeyMode = o.keyModeSetting()
	run.NoColor = o.noColorSetting(cmd.OutOrStdout())
	run.Width = o.widthSetting(cmd.OutOrStdout())
	ropts := o.renderOptions(run)

	if !o.interactive {
		tbl, err := table.New(ctx, data, topts)
		if err != nil {
			return err
		}
		defer tbl.Close()
		v, err := tbl.View(ctx)
		if err != nil {
			return err
		}
		out, err := render.Render(v, run.Output, ropts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	bridge := &ui.Bridge{}
	topts.OnDataChange = bridge.Notify
	tbl, err := table.New(ctx, data, topts)
	if err != nil {
		return err
	}
	defer tbl.Close()

	if sqlSrc, ok := data.(*source.SQL); ok && o.refresh > 0 {
		stop := pollSource(ctx, sqlSrc, o.refresh)
		defer stop()
	}

	progOpts, cleanup := getProgramOptions(ctx)
	defer cleanup()
	title := o.title
	if title == "" {
		title = name
	}
	return ui.Run(ctx, tbl, bridge, ui.Options{
		Title:   title,
		KeyMode: ui.KeyMode(run.KeyMode),
		Render:  ropts,
	}, progOpts...)
}

// openInput returns the table data, a display name and a release function.
func (o *rootOptions) openInput(cmd *cobra.Command, args []string) (any, string, func(), error) {
	noop := func() {}
	if o.sqlDSN != "" {
		if len(args) > 0 {
			return nil, "", noop, fmt.Errorf("a file argument cannot be combined with --sql-dsn")
		}
		src, err := source.Open(o.sqlDSN, o.sqlTable)
		if err != nil {
			return nil, "", noop, err
		}
		return src, o.sqlTable, func() { _ = src.Close() }, nil
	}

	format := loader.Format(o.inputFormat)
	if len(args) == 1 && args[0] != "-" {
		path := args[0]
		var (
			records []map[string]any
			err     error
		)
		if format == loader.FormatAuto {
			records, err = loader.LoadRecords(path)
		} else {
			var raw []byte
			raw, err = os.ReadFile(path)
			if err == nil {
				records, err = loader.LoadRecordsBytes(raw, format)
			}
		}
		if err != nil {
			return nil, "", noop, fmt.Errorf("load %s: %w", path, err)
		}
		base := filepath.Base(path)
		return records, strings.TrimSuffix(base, filepath.Ext(base)), noop, nil
	}

	in := cmd.InOrStdin()
	if in == os.Stdin && !stdinIsPiped() && len(args) == 0 {
		return nil, "", noop, errNoInput
	}
	records, err := loader.LoadRecordsReader(in, format)
	if err != nil {
		return nil, "", noop, fmt.Errorf("load stdin: %w", err)
	}
	return records, "", noop, nil
}

// tableOptions layers flags that were set explicitly over the config.
func (o *rootOptions) tableOptions(flags *pflag.FlagSet, name string, lgr logr.Logger) (table.Options, error) {
	cfg := o.cfg

	var fields []field.Field
	if len(o.fields) > 0 {
		for _, spec := range o.fields {
			f, err := field.ParseSpec(spec)
			if err != nil {
				return table.Options{}, fmt.Errorf("--fields: %w", err)
			}
			fields = append(fields, f)
		}
	} else {
		var err error
		if fields, err = cfg.FieldList(); err != nil {
			return table.Options{}, err
		}
	}

	opts := table.Options{
		Name:              name,
		Fields:            fields,
		SortKey:           cfg.Table.Sort,
		Descending:        cfg.Table.Descending,
		RowsPerPage:       cfg.Table.RowsPerPage,
		CurrentPage:       o.page - 1,
		Filter:            o.filter,
		ResetPageOnChange: cfg.Table.ResetPageOnChange,
		Where:             o.where,
		Logger:            lgr,
	}
	if flags.Changed("sort") {
		opts.SortKey = o.sortKey
	}
	if flags.Changed("desc") {
		opts.Descending = o.descending
	}
	if flags.Changed("rows-per-page") {
		opts.RowsPerPage = o.rowsPerPage
	}
	return opts, nil
}

func (o *rootOptions) outputFormat() string {
	if o.output != "" {
		return o.output
	}
	if o.cfg.Display.Output != "" {
		return o.cfg.Display.Output
	}
	return render.FormatTable
}

func (o *rootOptions) keyModeSetting() string {
	if o.keyMode != "" {
		return o.keyMode
	}
	if ui.IsValidKeyMode(o.cfg.UI.KeyMode) {
		return o.cfg.UI.KeyMode
	}
	return string(ui.DefaultKeyMode)
}

func (o *rootOptions) noColorSetting(out io.Writer) bool {
	if o.noColor || o.cfg.Display.NoColor || os.Getenv("NO_COLOR") != "" {
		return true
	}
	return !o.interactive && !isTerminal(out)
}

func (o *rootOptions) widthSetting(out io.Writer) int {
	if o.width > 0 {
		return o.width
	}
	if o.cfg.Display.Width > 0 {
		return o.cfg.Display.Width
	}
	if o.interactive || isTerminal(out) {
		w, _ := detectTerminalSize()
		return w
	}
	return 0
}

func (o *rootOptions) renderOptions(run *settings.Run) render.Options {
	c := o.cfg.Display.Colors
	return render.Options{
		Width:   run.Width,
		NoColor: run.NoColor,
		Colors: render.Colors{
			HeaderFG: colorOrNil(c.HeaderFG),
			HeaderBG: colorOrNil(c.HeaderBG),
			Active:   colorOrNil(c.Active),
			Disabled: colorOrNil(c.Disabled),
			Filter:   colorOrNil(c.Filter),
		},
	}
}

func colorOrNil(s string) color.Color {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return lipgloss.Color(s)
}

// pollSource re-announces src at every interval so views re-query it.
func pollSource(ctx context.Context, src *source.SQL, every time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				src.Notify()
			}
		}
	}()
	return cancel
}
