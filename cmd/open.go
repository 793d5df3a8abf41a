package cmd

import (
	"fmt"
	"os"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:       "open [game|store]",
	Short:     "Open the game directory of the profile, or the launcher's store, in the file manager",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"game", "store"},
	Run: func(cmd *cobra.Command, args []string) {
		var dir string
		if len(args) > 0 && args[0] == "store" {
			root, err := cmdshared.GetStoreRoot()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			dir = root
		} else {
			profile, err := cmdshared.LoadProfile()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			dir = profile.GetGameDir()
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating directory: %s\n", err)
			os.Exit(1)
		}

		fmt.Println("Opening " + dir + "...")
		if err := open.Start(dir); err != nil {
			fmt.Println("Opening the directory failed, its location is:")
			fmt.Println(dir)
		}
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
