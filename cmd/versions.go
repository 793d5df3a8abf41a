package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/igorsobreira/titlecase"
	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// versionsCmd represents the versions command
var versionsCmd = &cobra.Command{
	Use:     "versions",
	Short:   "List the Minecraft versions that can be installed",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		l, err := cmdshared.NewLauncher()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if viper.GetBool("versions.installed") {
			installed, err := core.LocalCatalog{Dirs: l.Dirs}.Installed()
			if err != nil {
				fmt.Printf("Error listing installed versions: %s\n", err)
				os.Exit(1)
			}
			if len(installed) == 0 {
				fmt.Println("No versions installed yet, use 'launchwiz install' to install one!")
				return
			}
			for _, id := range installed {
				fmt.Println(id)
			}
			return
		}

		list, err := l.Remote.Versions(context.Background())
		if err != nil {
			fmt.Printf("Failed to get minecraft versions: %s\n", err)
			os.Exit(1)
		}
		types := []string{"release"}
		if viper.GetBool("versions.snapshots") {
			types = append(types, "snapshot")
		}
		if viper.GetBool("versions.all") {
			types = nil
		}
		for _, v := range list.Versions {
			if len(types) > 0 && !slices.Contains(types, v.Type) {
				continue
			}
			fmt.Printf("%-24s %-10s %s\n", v.ID, versionTypeName(v.Type), v.ReleaseTime.Format("2006-01-02"))
		}
		fmt.Printf("Latest release: %s, latest snapshot: %s\n", list.Latest.Release, list.Latest.Snapshot)
	},
}

// versionTypeName turns a type such as old_beta into Old Beta
func versionTypeName(t string) string {
	return titlecase.Title(strings.ReplaceAll(t, "_", " "))
}

func init() {
	rootCmd.AddCommand(versionsCmd)

	versionsCmd.Flags().BoolP("snapshots", "s", false, "Include snapshots")
	_ = viper.BindPFlag("versions.snapshots", versionsCmd.Flags().Lookup("snapshots"))
	versionsCmd.Flags().BoolP("all", "a", false, "Include every version, including old alpha and beta versions")
	_ = viper.BindPFlag("versions.all", versionsCmd.Flags().Lookup("all"))
	versionsCmd.Flags().Bool("installed", false, "List installed versions instead")
	_ = viper.BindPFlag("versions.installed", versionsCmd.Flags().Lookup("installed"))
}
