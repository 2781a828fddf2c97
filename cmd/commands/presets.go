package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/dancepractice/internal/adapter/repository/file"
	"github.com/tejashwikalptaru/dancepractice/internal/app"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

func newPresetsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "presets",
		Aliases: []string{"practice-types"},
		Short:   "Manage practice types",
		Long: `List, show and delete practice types.

Built-in practice types are read-only. Custom practice types live in the
custom_presets_path file of the configuration; an entry with a built-in
name replaces the built-in one until it is deleted.`,
	}
	cmd.AddCommand(
		newPresetsListCommand(opts),
		newPresetsShowCommand(opts),
		newPresetsDeleteCommand(opts),
	)
	return cmd
}

// withTools runs fn against headless components.
func withTools(opts *options, fn func(*app.Tools) error) error {
	tools, err := app.NewTools(opts.appConfig())
	if err != nil {
		return err
	}
	defer tools.Close()
	return fn(tools)
}

func newPresetsListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List practice types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTools(opts, func(tools *app.Tools) error {
				presets := tools.Presets()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tKIND\tDANCES\tSONGS")
				for _, name := range presets.ListPresetNames() {
					p, ok := presets.Lookup(name)
					if !ok {
						continue
					}
					kind := "built-in"
					if presets.IsCustom(name) {
						kind = "custom"
					}
					songs := fmt.Sprint(p.NumSelections)
					if p.PlayAllSongs {
						songs = "all"
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, kind, len(p.Dances), songs)
				}
				return w.Flush()
			})
		},
	}
}

func newPresetsShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a practice type as JSON",
		Long: `Print a practice type in the custom file format. The output can be
pasted into the custom file as a starting point for a new practice type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTools(opts, func(tools *app.Tools) error {
				p, ok := tools.Presets().Lookup(args[0])
				if !ok {
					return fmt.Errorf("%w: %q", domain.ErrPresetNotFound, args[0])
				}
				data, err := file.MarshalPreset(p)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newPresetsDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a custom practice type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTools(opts, func(tools *app.Tools) error {
				if err := tools.Presets().DeleteCustom(args[0]); err != nil {
					return fmt.Errorf("delete %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
