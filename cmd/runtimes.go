package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
)

// runtimesCmd represents the runtimes command
var runtimesCmd = &cobra.Command{
	Use:     "runtimes",
	Short:   "List the Java runtimes that can run the game",
	Aliases: []string{"java"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		found := l.Locator.Discover(context.Background())
		if len(found) == 0 {
			fmt.Println("No Java runtimes found!")
			fmt.Printf("Install one, or place one in %s as java-<version>\n", l.Dirs.Runtimes())
			os.Exit(1)
		}

		// Show which runtime the profile would use, if there is one
		var selected string
		if profile, err := core.LoadProfile(cmdshared.ProfilePath()); err == nil {
			if inst, err := l.Resolver.Resolve(context.Background(), profile.Version); err == nil {
				locator := *l.Locator
				locator.Override = profile.Java
				if rt, err := locator.Locate(context.Background(), inst.RequiredJava()); err == nil {
					selected = rt.Path
				}
			}
		}

		for _, rt := range found {
			marker := " "
			if rt.Path == selected {
				marker = "*"
			}
			fmt.Printf("%s Java %-3d %-12s %s\n", marker, rt.Major, rt.Version, rt.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(runtimesCmd)
}
