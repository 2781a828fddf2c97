// Package commands implements the dancepractice command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/dancepractice/internal/app"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath   string
	mockAudio    bool
	musicDir     string
	practiceType string
}

func (o *options) appConfig() app.Config {
	cfg := app.DefaultConfig()
	cfg.ConfigPath = o.configPath
	cfg.UseMockAudio = o.mockAudio
	cfg.MusicDir = o.musicDir
	cfg.PracticeType = o.practiceType
	return cfg
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dancepractice",
		Short: "Ballroom and latin practice player",
		Long: `Builds practice playlists from a music folder with one subfolder per
dance and plays them with per-dance time limits and a fade out.

Without a subcommand the player window opens.`,
		Version:       app.GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default: XDG config dir, then ./config.toml)")
	pf.BoolVar(&opts.mockAudio, "mock-audio", false, "use a silent audio engine")
	pf.StringVarP(&opts.musicDir, "dir", "d", "", "music folder")
	pf.StringVarP(&opts.practiceType, "preset", "p", "", "practice type")

	root.AddCommand(newGenerateCommand(opts), newPresetsCommand(opts))
	return root
}

// Execute runs the command line.
func Execute() error {
	return NewRootCommand().Execute()
}

func runPlayer(opts *options) (err error) {
	application, err := app.NewApplication(opts.appConfig())
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := application.Shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()
	return application.Run()
}
