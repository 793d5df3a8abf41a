package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:     "install [version]",
	Short:   "Download a Minecraft version and everything it needs (default is the version of the profile)",
	Aliases: []string{"add", "get"},
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		var version string
		if len(args) > 0 {
			version = args[0]
		} else {
			profile, err := cmdshared.LoadProfile()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			version = profile.Version
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		version, err = cmdshared.CheckVersion(ctx, l, version)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		inst, err := install(ctx, l, version)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Installed %s (%d libraries, %d native archives)\n", inst.Manifest.ID, len(inst.Libraries), len(inst.Natives))
	},
}

// install runs the install stages of a version with a progress bar
func install(ctx context.Context, l *core.Launcher, version string) (core.ResolvedInstallation, error) {
	bar := cmdshared.NewProgressBar(version)
	l.Downloader.Progress = bar.Update
	inst, err := l.Install(ctx, version)
	bar.Wait()
	if errors.Is(err, core.ErrCancelled) {
		return inst, errors.New("installation cancelled, run the command again to continue where it stopped")
	}
	return inst, err
}

func init() {
	rootCmd.AddCommand(installCmd)
}
