package cmdshared

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/packwiz/launchwiz/core"
	"github.com/spf13/viper"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the logger shared by every command; --verbose enables debug output
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = core.NewLogger(os.Stderr, viper.GetBool("verbose"))
	})
	return logger
}

// GetStoreRoot returns the directory game files are stored in
func GetStoreRoot() (string, error) {
	if root := viper.GetString("root"); root != "" {
		return root, nil
	}
	return core.GetLauncherDataDir()
}

// NewFetcher creates the fetcher used for every download
func NewFetcher() core.Fetcher {
	return core.NewHTTPFetcher(nil)
}

// NewLauncher creates a launcher configured from flags, the config file and the environment
func NewLauncher() (*core.Launcher, error) {
	root, err := GetStoreRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find the launcher directory: %w", err)
	}
	l := core.NewLauncher(root, NewFetcher(), viper.GetString("manifest-url"), Logger())
	if workers := viper.GetInt("workers"); workers > 0 {
		l.Downloader.Workers = workers
	}
	if retries := viper.GetInt("retries"); retries >= 0 {
		l.Downloader.Retries = retries
	}
	if backoff := viper.GetDuration("backoff"); backoff > 0 {
		l.Downloader.Backoff = backoff
	}
	l.Builder.Memory = core.MemoryPolicy{
		ReserveMB: viper.GetUint64("memory.reserve"),
		MinimumMB: viper.GetUint64("memory.minimum"),
	}
	l.AllowMissingAssets = viper.GetBool("allow-missing-assets")
	return l, nil
}

// ProfilePath returns the profile file selected with --profile
func ProfilePath() string {
	return viper.GetString("profile")
}

// LoadProfile loads the profile selected with --profile
func LoadProfile() (core.Profile, error) {
	path := ProfilePath()
	profile, err := core.LoadProfile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Profile{}, fmt.Errorf("no %s file found, run 'launchwiz init' to create one", path)
		}
		return core.Profile{}, fmt.Errorf("error loading profile: %w", err)
	}
	return profile, nil
}
