package settings

import (
	"fmt"
	"os"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cobra"
)

// Usernames the game accepts for offline play
var usernamePattern = regexp2.MustCompile(`^[A-Za-z0-9_]{3,16}$`, regexp2.None)

var usernameCommand = &cobra.Command{
	Use:     "username [name]",
	Short:   "Set the offline username to play as",
	Aliases: []string{"name"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if ok, err := usernamePattern.MatchString(args[0]); err != nil || !ok {
			fmt.Println("Usernames must be 3 to 16 letters, digits or underscores!")
			os.Exit(1)
		}
		profile := loadProfile()
		profile.Username = args[0]
		writeProfile(profile)
		fmt.Printf("Username set to %s\n", profile.Username)
	},
}

func init() {
	settingsCmd.AddCommand(usernameCommand)
}
