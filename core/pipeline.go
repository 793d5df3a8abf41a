package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Launcher runs the stages that turn a version id into a LaunchPlan, against one content store
type Launcher struct {
	Dirs       Dirs
	Platform   Platform
	Resolver   *Resolver
	// Remote is the catalog of published versions the resolver falls back to
	Remote     *RemoteCatalog
	Downloader *Downloader
	Locator    *RuntimeLocator
	Builder    LaunchBuilder
	Logger     *log.Logger
	// AllowMissingAssets lets a version launch when some asset objects could not be downloaded
	AllowMissingAssets bool
	// SystemMemory returns the total memory of the machine in MB
	SystemMemory func() (uint64, error)
}

// NewLauncher creates a Launcher for the store at root, fetching manifests from the catalog at catalogURL
func NewLauncher(root string, f Fetcher, catalogURL string, logger *log.Logger) *Launcher {
	logger = orDiscard(logger)
	dirs := Dirs{Root: root}
	remote := NewRemoteCatalog(f, catalogURL)
	catalog := LayeredCatalog{
		Local:  LocalCatalog{Dirs: dirs},
		Remote: remote,
	}
	return &Launcher{
		Dirs:         dirs,
		Platform:     CurrentPlatform(),
		Resolver:     NewResolver(catalog, logger),
		Remote:       remote,
		Downloader:   NewDownloader(f, dirs.Temp(), logger),
		Locator:      NewRuntimeLocator(dirs.Runtimes(), logger),
		Builder:      LaunchBuilder{Memory: DefaultMemoryPolicy(), LauncherName: DefaultLauncherName},
		Logger:       logger,
		SystemMemory: SystemMemoryMB,
	}
}

// Install makes sure every file a version needs is present and valid, and extracts its natives
func (l *Launcher) Install(ctx context.Context, id string) (ResolvedInstallation, error) {
	logger := orDiscard(l.Logger)
	m, err := l.Resolver.Resolve(ctx, id)
	if err != nil {
		return ResolvedInstallation{}, err
	}
	inst, err := BuildGraph(m, l.Platform)
	if err != nil {
		return ResolvedInstallation{}, err
	}
	logger.Info("installing", "version", m.ID, "libraries", len(inst.Libraries), "natives", len(inst.Natives))

	if err := l.download(ctx, inst.Tasks(l.Dirs)); err != nil {
		return ResolvedInstallation{}, err
	}

	if inst.AssetIndex != nil {
		idx, err := ReadAssetIndex(l.Dirs.AssetIndex(inst.AssetIndex.ID))
		if err != nil {
			return ResolvedInstallation{}, err
		}
		if idx.Virtual || idx.MapToResources {
			logger.Warn("legacy asset layouts are not materialized", "index", inst.AssetIndex.ID)
		}
		if err := l.download(ctx, idx.Tasks(l.Dirs, !l.AllowMissingAssets)); err != nil {
			return ResolvedInstallation{}, err
		}
	}

	if err := ExtractNatives(inst.NativeArchives(l.Dirs), l.Dirs.Natives(m.ID)); err != nil {
		return ResolvedInstallation{}, err
	}
	return inst, nil
}

func (l *Launcher) download(ctx context.Context, tasks []DownloadTask) error {
	results, err := l.Downloader.Download(ctx, tasks)
	if err != nil {
		return err
	}
	if err := results.MandatoryFailure(); err != nil {
		return err
	}
	if failed := results.Failures(); len(failed) > 0 {
		orDiscard(l.Logger).Warn("some optional files could not be downloaded", "count", len(failed))
	}
	orDiscard(l.Logger).Debug("download finished", "tasks", len(results), "fetched", results.Fetched())
	return nil
}

// Prepare installs the version of a profile and builds the command line that launches it
func (l *Launcher) Prepare(ctx context.Context, profile Profile) (LaunchPlan, error) {
	if err := profile.Validate(); err != nil {
		return LaunchPlan{}, err
	}
	totalMB, err := l.SystemMemory()
	if err != nil {
		return LaunchPlan{}, err
	}
	// Fail before downloading anything if the game could never start
	if _, err := l.Builder.Memory.Clamp(profile.Memory, totalMB); err != nil {
		return LaunchPlan{}, err
	}

	inst, err := l.Install(ctx, profile.Version)
	if err != nil {
		return LaunchPlan{}, err
	}
	classpath, err := AssembleClasspath(inst.ClasspathFiles(l.Dirs), l.Dirs.ClientJar(inst.ClientJarID),
		ClasspathSeparator(l.Platform))
	if err != nil {
		return LaunchPlan{}, err
	}

	locator := *l.Locator
	if profile.Java != "" {
		locator.Override = profile.Java
	}
	rt, err := locator.Locate(ctx, inst.Manifest.RequiredJava())
	if err != nil {
		return LaunchPlan{}, err
	}

	gameDir, err := filepath.Abs(profile.GetGameDir())
	if err != nil {
		return LaunchPlan{}, err
	}
	if err := os.MkdirAll(gameDir, 0755); err != nil {
		return LaunchPlan{}, fmt.Errorf("failed to create game directory: %w", err)
	}

	return l.Builder.Build(LaunchInput{
		Installation: inst,
		Dirs:         l.Dirs,
		Platform:     l.Platform,
		Classpath:    classpath,
		NativesDir:   l.Dirs.Natives(inst.Manifest.ID),
		Runtime:      rt,
		RequestedMB:  profile.Memory,
		SystemMB:     totalMB,
		Username:     profile.Username,
		GameDir:      gameDir,
		Width:        profile.Window.Width,
		Height:       profile.Window.Height,
	})
}
