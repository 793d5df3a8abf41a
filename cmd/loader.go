package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loaderCmd represents the loader command
var loaderCmd = &cobra.Command{
	Use:   "loader [name] [version]",
	Short: "Install a mod loader for the Minecraft version of the profile, and use it in the profile",
	Long:  "Install a mod loader for the Minecraft version of the profile, and use it in the profile. The loader inherits from the Minecraft version, so both are installed when launching.",
	Args:  cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return loaderNames(), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		loader, ok := core.Loaders[strings.ToLower(args[0])]
		if !ok {
			fmt.Println("Given mod loader is not supported!")
			fmt.Println("The following mod loaders are supported: " + strings.Join(loaderNames(), ", "))
			os.Exit(1)
		}

		profile, err := cmdshared.LoadProfile()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		mcVersion := viper.GetString("loader.mc-version")
		if mcVersion == "" {
			mcVersion = profile.Version
		}
		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		ctx := context.Background()
		f := cmdshared.NewFetcher()

		var loaderVersion string
		if len(args) > 1 {
			loaderVersion = args[1]
			versions, _, err := core.FetchMavenVersionList(ctx, f, loader.MetadataURL)
			if err != nil {
				fmt.Printf("Error loading versions: %s\n", err)
				os.Exit(1)
			}
			if !slices.Contains(versions, loaderVersion) {
				fmt.Println("Given " + loader.FriendlyName + " version cannot be found!")
				os.Exit(1)
			}
		}

		id, err := core.InstallLoader(ctx, f, core.LocalCatalog{Dirs: l.Dirs}, loader, mcVersion, loaderVersion)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		profile.Version = id
		if err := profile.Write(); err != nil {
			fmt.Printf("Error writing profile: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s installed, profile now uses %s\n", loader.FriendlyName, id)
	},
}

func loaderNames() []string {
	names := make([]string, 0, len(core.Loaders))
	for name := range core.Loaders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func init() {
	rootCmd.AddCommand(loaderCmd)

	loaderCmd.Flags().String("mc-version", "", "The Minecraft version to install the loader for (default is the version of the profile)")
	_ = viper.BindPFlag("loader.mc-version", loaderCmd.Flags().Lookup("mc-version"))
}
