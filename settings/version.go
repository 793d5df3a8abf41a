package settings

import (
	"context"
	"fmt"
	"os"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/spf13/cobra"
	"github.com/unascribed/FlexVer/go/flexver"
)

var versionCommand = &cobra.Command{
	Use:     "version [version]",
	Short:   "Set the Minecraft version of the profile",
	Aliases: []string{"mc-version"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile := loadProfile()
		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		version, err := cmdshared.CheckVersion(context.Background(), l, args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if version == profile.Version {
			fmt.Printf("Profile already uses %s!\n", version)
			return
		}
		if profile.Version != "" && flexver.Less(version, profile.Version) {
			fmt.Printf("Warning: %s is older than %s, worlds saved by a newer version may not load.\n", version, profile.Version)
			if !cmdshared.PromptYesNo("Do you want to continue? [Y/n] ") {
				return
			}
		}
		profile.Version = version
		writeProfile(profile)
		fmt.Printf("Version set to %s, it is installed the next time the game is launched\n", version)
	},
}

func init() {
	settingsCmd.AddCommand(versionCommand)
}
