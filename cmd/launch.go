package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:     "launch",
	Short:   "Install the version of the profile if needed, and start the game",
	Aliases: []string{"run", "play"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		profile, err := cmdshared.LoadProfile()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if java := viper.GetString("launch.java"); java != "" {
			profile.Java = java
		}
		if memory := viper.GetString("launch.memory"); memory != "" {
			profile.Memory, err = core.ParseMemoryMB(memory)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}

		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		bar := cmdshared.NewProgressBar(profile.Version)
		l.Downloader.Progress = bar.Update
		plan, err := l.Prepare(ctx, profile)
		bar.Wait()
		if err != nil {
			printLaunchError(err)
			os.Exit(1)
		}

		if viper.GetBool("launch.dry-run") {
			fmt.Println(plan.String())
			return
		}

		fmt.Printf("Starting Minecraft %s with %dM of memory...\n", profile.Version, plan.Memory.MaxMB)
		// The game keeps running if launchwiz is interrupted
		game := plan.Command(context.Background())
		game.Stdin = os.Stdin
		game.Stdout = os.Stdout
		game.Stderr = os.Stderr
		if err := game.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				fmt.Printf("Minecraft exited with code %d\n", exitErr.ExitCode())
				os.Exit(exitErr.ExitCode())
			}
			fmt.Printf("Failed to start Minecraft: %s\n", err)
			os.Exit(1)
		}
	},
}

func printLaunchError(err error) {
	switch {
	case errors.Is(err, core.ErrInsufficientMemory):
		fmt.Println(err)
		fmt.Println("Use 'launchwiz settings memory' to request less memory.")
	case errors.Is(err, core.ErrNoRuntimeFound), errors.Is(err, core.ErrRuntimeTooOld):
		fmt.Println(err)
		fmt.Println("Install a suitable Java runtime, or choose one with --java; 'launchwiz runtimes' lists the runtimes found.")
	case errors.Is(err, core.ErrCancelled):
		fmt.Println("Launch cancelled, run the command again to continue where it stopped")
	default:
		fmt.Println(err)
	}
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().Bool("dry-run", false, "Print the command that would start the game instead of running it")
	_ = viper.BindPFlag("launch.dry-run", launchCmd.Flags().Lookup("dry-run"))
	launchCmd.Flags().String("java", "", "The java executable to use, overriding the profile and runtime discovery")
	_ = viper.BindPFlag("launch.java", launchCmd.Flags().Lookup("java"))
	launchCmd.Flags().StringP("memory", "m", "", "The memory given to the game, overriding the profile, e.g. 4096 or 4G")
	_ = viper.BindPFlag("launch.memory", launchCmd.Flags().Lookup("memory"))
}
