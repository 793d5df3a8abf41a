package settings

import (
	"fmt"
	"os"

	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var memoryCommand = &cobra.Command{
	Use:     "memory [amount]",
	Short:   "Set the memory given to the game, e.g. 4096, 4096M or 4G",
	Aliases: []string{"ram"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		memory, err := core.ParseMemoryMB(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Check the request now rather than when launching
		if total, err := core.SystemMemoryMB(); err == nil {
			policy := core.MemoryPolicy{
				ReserveMB: viper.GetUint64("memory.reserve"),
				MinimumMB: viper.GetUint64("memory.minimum"),
			}
			bounds, err := policy.Clamp(memory, total)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			if bounds.MaxMB != memory {
				fmt.Printf("Warning: the game will only be given %dM, as this system has %dM of memory\n", bounds.MaxMB, total)
			}
		}

		profile := loadProfile()
		profile.Memory = memory
		writeProfile(profile)
		fmt.Printf("Memory set to %dM\n", memory)
	},
}

var javaCommand = &cobra.Command{
	Use:   "java [path]",
	Short: "Set the java executable the game runs with; use \"auto\" to find one automatically",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile := loadProfile()
		if args[0] == "auto" {
			profile.Java = ""
			writeProfile(profile)
			fmt.Println("Java runtime is now found automatically")
			return
		}
		if _, err := os.Stat(args[0]); err != nil {
			fmt.Printf("Error checking java executable: %s\n", err)
			os.Exit(1)
		}
		profile.Java = args[0]
		writeProfile(profile)
		fmt.Printf("Java set to %s\n", profile.Java)
	},
}

func init() {
	settingsCmd.AddCommand(memoryCommand)
	settingsCmd.AddCommand(javaCommand)
}
