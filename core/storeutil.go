package core

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
)

// GetLauncherDataDir returns the default root of the launcher's content store
func GetLauncherDataDir() (string, error) {
	if //goland:noinspection GoBoolExpressions
	runtime.GOOS == "linux" {
		// Prefer $XDG_DATA_HOME over the config dir
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome != "" {
			return filepath.Join(dataHome, "launchwiz"), nil
		}
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "launchwiz"), nil
}

// Dirs is the layout of a content store. Every stage of the pipeline is handed one
// explicitly, so separate roots never interfere with each other.
type Dirs struct {
	Root string
}

func (d Dirs) Versions() string {
	return filepath.Join(d.Root, "versions")
}

func (d Dirs) VersionDir(id string) string {
	return filepath.Join(d.Versions(), id)
}

func (d Dirs) VersionManifest(id string) string {
	return filepath.Join(d.VersionDir(id), id+".json")
}

func (d Dirs) ClientJar(id string) string {
	return filepath.Join(d.VersionDir(id), id+".jar")
}

func (d Dirs) Natives(id string) string {
	return filepath.Join(d.VersionDir(id), "natives")
}

func (d Dirs) Libraries() string {
	return filepath.Join(d.Root, "libraries")
}

// Library returns the location of a library from its forward slash repository path
func (d Dirs) Library(repoPath string) string {
	return filepath.Join(d.Libraries(), filepath.FromSlash(path.Clean("/" + repoPath)))
}

func (d Dirs) Assets() string {
	return filepath.Join(d.Root, "assets")
}

func (d Dirs) AssetIndex(id string) string {
	return filepath.Join(d.Assets(), "indexes", id+".json")
}

// AssetObject returns the content addressed location of an asset
func (d Dirs) AssetObject(hash string) string {
	return filepath.Join(d.Assets(), "objects", hash[:2], hash)
}

func (d Dirs) LogConfig(id string) string {
	return filepath.Join(d.Assets(), "log_configs", id)
}

// Runtimes is where managed Java runtimes live, as runtimes/java-<major>
func (d Dirs) Runtimes() string {
	return filepath.Join(d.Root, "runtimes")
}

// Temp holds in-progress downloads; nothing in it is ever considered valid
func (d Dirs) Temp() string {
	return filepath.Join(d.Root, ".tmp")
}
