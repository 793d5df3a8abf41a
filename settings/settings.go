package settings

import (
	"fmt"
	"os"

	"github.com/packwiz/launchwiz/cmd"
	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
)

// settingsCmd represents the base command when called without any subcommands
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage profile settings",
}

// loadProfile loads the profile, exiting if it cannot be loaded
func loadProfile() core.Profile {
	profile, err := cmdshared.LoadProfile()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return profile
}

func writeProfile(profile core.Profile) {
	if err := profile.Write(); err != nil {
		fmt.Printf("Error writing profile: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	cmd.Add(settingsCmd)
}
