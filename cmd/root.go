package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/packwiz/launchwiz/cmdshared"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "launchwiz",
	Short: "A command line launcher for Minecraft",
}

// Execute starts the root command for launchwiz
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Add adds a new command as a subcommand to launchwiz
func Add(newCommand *cobra.Command) {
	rootCmd.AddCommand(newCommand)
}

func init() {
	cobra.OnInitialize(initConfig)
	// Completion scripts are generated by the utils completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "The directory game files are stored in (default is the user data directory)")
	_ = viper.BindPFlag("root", flags.Lookup("root"))
	flags.String("profile", core.DefaultProfileFile, "The profile file to use")
	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	flags.String("manifest-url", core.DefaultManifestURL, "The version catalog to fetch versions from")
	_ = viper.BindPFlag("manifest-url", flags.Lookup("manifest-url"))
	flags.Int("workers", core.DefaultWorkers, "The number of files downloaded at once")
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
	flags.Int("retries", core.DefaultRetries, "The number of times a failed download is retried")
	_ = viper.BindPFlag("retries", flags.Lookup("retries"))
	flags.Duration("backoff", core.DefaultBackoff, "The delay before the first retry of a download, doubled for each further retry")
	_ = viper.BindPFlag("backoff", flags.Lookup("backoff"))
	flags.Bool("allow-missing-assets", false, "Launch even if some assets could not be downloaded")
	_ = viper.BindPFlag("allow-missing-assets", flags.Lookup("allow-missing-assets"))
	flags.BoolP("verbose", "v", false, "Log every download and cache hit")
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	flags.BoolP("yes", "y", false, "Accept all prompts with the default option (non-interactive mode)")
	_ = viper.BindPFlag("non-interactive", flags.Lookup("yes"))

	viper.SetDefault("memory.reserve", core.DefaultMemoryReserveMB)
	viper.SetDefault("memory.minimum", core.DefaultMemoryMinimumMB)

	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.launchwiz.toml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".launchwiz" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".launchwiz")
	}

	// LAUNCHWIZ_MEMORY_RESERVE sets memory.reserve
	viper.SetEnvPrefix("launchwiz")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		cmdshared.Logger().Debug("using config file", "path", viper.ConfigFileUsed())
	}
}
