package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/dancepractice/internal/app"
	"github.com/tejashwikalptaru/dancepractice/internal/domain"
)

func newGenerateCommand(opts *options) *cobra.Command {
	var pathsOnly bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a playlist without playing it",
		Long: `Generate one playlist from the music folder and practice type and print it.

Example:
  dancepractice generate --dir ~/Music/Ballroom --preset "NC 60min"
  dancepractice generate --paths > practice.m3u`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := app.NewTools(opts.appConfig())
			if err != nil {
				return err
			}
			defer tools.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return generate(ctx, cmd, tools, opts, pathsOnly)
		},
	}
	cmd.Flags().BoolVar(&pathsOnly, "paths", false, "print only file paths, one per line")
	return cmd
}

func generate(ctx context.Context, cmd *cobra.Command, tools *app.Tools, opts *options, pathsOnly bool) error {
	playlist, err := tools.Generate(ctx, opts.musicDir, opts.practiceType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if pathsOnly {
		for _, t := range playlist.Tracks {
			fmt.Fprintln(out, t.Path)
		}
		return nil
	}

	if playlist.IsEmpty() {
		fmt.Fprintf(out, "No songs found for %q in %s\n", playlist.PresetName, playlist.MusicDir)
		return nil
	}

	var total time.Duration
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDANCE\tLENGTH\tTITLE")
	for i, t := range playlist.Tracks {
		dance := t.Dance
		if t.IsAnnouncement() {
			dance = "(" + t.Introduces + ")"
		}
		total += t.Duration()
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, dance, domain.FormatDuration(t.Duration()), t.Label())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s: %d tracks from %s, %s in total before play limits\n",
		playlist.PresetName, playlist.Len(), playlist.MusicDir, domain.FormatDuration(total))
	return nil
}
