package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/rtable/internal/config"
	"github.com/oakwood-commons/rtable/pkg/settings"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	var format string
	var defaults bool
	c := &cobra.Command{
		Use:   "config",
		Short: "Show the merged " + settings.CliBinaryName + " configuration",
		Long: `Print the configuration in effect: the built-in defaults with the config
file merged on top. Use --defaults to print the built-in file, which is a
starting point for $XDG_CONFIG_HOME/rtable/config.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if defaults {
				_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
				return err
			}
			out, err := encodeConfig(o.cfg, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	c.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml|json")
	c.Flags().BoolVar(&defaults, "defaults", false, "print the built-in default config")
	return c
}

func encodeConfig(cfg config.Config, format string) (string, error) {
	switch format {
	case "", "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		return buf.String(), nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("invalid config output %q (want yaml or json)", format)
	}
}
