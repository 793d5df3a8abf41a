package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/camelcase"
	"github.com/igorsobreira/titlecase"
	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a launch profile in the current directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		profilePath := viper.GetString("profile")
		_, err := os.Stat(profilePath)
		if err == nil && !viper.GetBool("init.reinit") {
			fmt.Println("Profile file already exists, use -r to override!")
			os.Exit(1)
		} else if err != nil && !os.IsNotExist(err) {
			fmt.Printf("Error checking profile file: %s\n", err)
			os.Exit(1)
		}

		profile := core.NewProfile(profilePath)

		name, err := cmd.Flags().GetString("name")
		if err != nil || len(name) == 0 {
			// Get the name of the directory the profile is created in
			directoryName := "."
			if abs, err := filepath.Abs(filepath.Dir(profilePath)); err == nil {
				directoryName = filepath.Base(abs)
			}
			if directoryName != "." && len(directoryName) > 0 {
				// Turn directory name into a space-seperated proper name
				name = titlecase.Title(strings.ReplaceAll(strings.ReplaceAll(strings.Join(camelcase.Split(directoryName), " "), " - ", " "), " _ ", " "))
				name = cmdshared.ReadValue("Profile name ["+name+"]: ", name)
			} else {
				name = cmdshared.ReadValue("Profile name: ", "")
			}
		}
		profile.Name = name

		profile.Username = viper.GetString("init.username")
		if len(profile.Username) == 0 {
			profile.Username = cmdshared.ReadValue("Username [Player]: ", "Player")
		}

		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		ctx := context.Background()
		mcVersions, err := l.Remote.Versions(ctx)
		if err != nil {
			fmt.Printf("Failed to get latest minecraft versions: %s\n", err)
			os.Exit(1)
		}

		mcVersion := viper.GetString("init.mc-version")
		if len(mcVersion) == 0 {
			var latestVersion string
			if viper.GetBool("init.snapshot") {
				latestVersion = mcVersions.Latest.Snapshot
			} else {
				latestVersion = mcVersions.Latest.Release
			}
			if viper.GetBool("init.latest") {
				mcVersion = latestVersion
			} else {
				mcVersion = cmdshared.ReadValue("Minecraft version ["+latestVersion+"]: ", latestVersion)
			}
		}
		profile.Version, err = cmdshared.CheckVersion(ctx, l, mcVersion)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		memory := viper.GetString("init.memory")
		if len(memory) == 0 {
			def := strconv.FormatUint(profile.Memory, 10)
			memory = cmdshared.ReadValue("Memory in MB ["+def+"]: ", def)
		}
		profile.Memory, err = core.ParseMemoryMB(memory)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if err := profile.Validate(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := profile.Write(); err != nil {
			fmt.Printf("Error writing profile: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(profilePath + " created!")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("name", "", "The name of the profile (omit to define interactively)")
	initCmd.Flags().String("username", "", "The offline username to play as (omit to define interactively)")
	_ = viper.BindPFlag("init.username", initCmd.Flags().Lookup("username"))
	initCmd.Flags().String("mc-version", "", "The Minecraft version to use (omit to define interactively)")
	_ = viper.BindPFlag("init.mc-version", initCmd.Flags().Lookup("mc-version"))
	initCmd.Flags().String("memory", "", "The memory given to the game, e.g. 4096 or 4G (omit to define interactively)")
	_ = viper.BindPFlag("init.memory", initCmd.Flags().Lookup("memory"))
	initCmd.Flags().BoolP("latest", "l", false, "Automatically select the latest version of Minecraft")
	_ = viper.BindPFlag("init.latest", initCmd.Flags().Lookup("latest"))
	initCmd.Flags().BoolP("snapshot", "s", false, "Use the latest snapshot version with --latest")
	_ = viper.BindPFlag("init.snapshot", initCmd.Flags().Lookup("snapshot"))
	initCmd.Flags().BoolP("reinit", "r", false, "Recreate the profile file if it already exists, rather than exiting")
	_ = viper.BindPFlag("init.reinit", initCmd.Flags().Lookup("reinit"))
}
