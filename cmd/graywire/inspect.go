package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/logging"
	"github.com/nerrad567/graywire/internal/registry"
)

// inspect loads the configuration at path into a registry without a cache
// and without any sinks. Logs go to stderr so stdout stays parseable.
func inspect(ctx context.Context, path string, stderr io.Writer) (*config.Config, *registry.Registry, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.NewWithWriter(cfg.Logging, version, stderr)
	reg, _, err := loadServices(ctx, cfg, log, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

func newServicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List configured services and their classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, reg, err := inspect(cmd.Context(), opts.path(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer reg.Close() //nolint:errcheck // Nothing was instantiated

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCLASS")
			for _, name := range reg.Names() {
				d, err := reg.GetConfig(name, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, d.Class)
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print the resolved descriptor of a service as JSON",
		Long: `Print the resolved descriptor of a service as JSON.

Each --set key=value is merged over the configured params, the same way
instance params are at build time. Values are parsed as YAML scalars, so
--set port=6543 yields a number and --set tls=true a boolean.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseSets(sets)
			if err != nil {
				return err
			}

			_, reg, err := inspect(cmd.Context(), opts.path(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer reg.Close() //nolint:errcheck // Nothing was instantiated

			d, err := reg.GetConfig(args[0], params)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "instance param as key=value (repeatable)")
	return cmd
}

// parseSets turns key=value pairs into a params map, parsing each value as
// a YAML scalar. Later pairs override earlier ones.
func parseSets(sets []string) (*configtree.Map, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	params := configtree.NewMap()
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		v, err := configtree.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		params.Set(key, v)
	}
	return params, nil
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the configuration and build the preload services",
		Long: `Load the configuration, resolve every descriptor, and build the services
listed under services.preload. With --all every service is built. Built
services are closed again before the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, reg, err := inspect(ctx, opts.path(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer reg.Close() //nolint:errcheck // Reported through the build results

			names := reg.Names()
			for _, name := range names {
				if _, err := reg.GetConfig(name, nil); err != nil {
					return err
				}
			}

			build := cfg.Services.Preload
			if all {
				build = names
			}
			if err := preload(ctx, reg, build); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d services resolved, %d built\n", len(names), len(reg.Instances()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "build every service, not only the preload list")
	return cmd
}
