package core

import (
	"fmt"
	"strings"
)

// DefaultLibraryRepository is used for libraries that name neither a download nor a repository
const DefaultLibraryRepository = "https://libraries.minecraft.net/"

// ResolvedLibrary is an active library with its download for the current platform
type ResolvedLibrary struct {
	Name string
	// Path is the location of the jar relative to the libraries folder, in forward slash format
	Path     string
	Download DownloadInfo
	// Exclude lists archive paths that are not extracted, for native libraries
	Exclude []string
}

// ResolvedInstallation is everything a version needs on the current platform
type ResolvedInstallation struct {
	Manifest VersionManifest
	// Libraries go on the classpath, in resolution order
	Libraries []ResolvedLibrary
	// Natives are extracted into the natives directory
	Natives []ResolvedLibrary
	// ClientJarID is the version the client jar is stored under
	ClientJarID string
	ClientJar   DownloadInfo
	AssetIndex  *AssetIndexRef
	LogConfig   *LoggingConfig
}

type graphCandidate struct {
	key         string
	specificity int
	lib         ResolvedLibrary
}

// BuildGraph evaluates the rules of every library of an effective manifest and sorts the active
// ones into classpath libraries and native archives.
//
// Libraries are deduplicated by group, artifact and classifier. Of two entries for the same
// library, the one whose deciding rule has more conditions is kept; on a tie the later entry
// wins, keeping the position of the earlier one.
func BuildGraph(m VersionManifest, p Platform) (ResolvedInstallation, error) {
	inst := ResolvedInstallation{
		Manifest:    m,
		ClientJarID: m.JarVersion(),
		AssetIndex:  m.AssetIndex,
	}
	client, ok := m.Downloads["client"]
	if !ok || client.URL == "" {
		return ResolvedInstallation{}, fmt.Errorf("%w: version %s has no client download", ErrNoArtifactForPlatform, m.ID)
	}
	inst.ClientJar = client
	if m.Logging != nil && m.Logging.Client != nil && m.Logging.Client.File.URL != "" {
		inst.LogConfig = m.Logging.Client
	}

	var classpath, natives []graphCandidate
	for _, lib := range m.Libraries {
		allowed, specificity := evaluateRules(lib.Rules, p)
		if !allowed {
			continue
		}
		coord, err := ParseCoordinate(lib.Name)
		if err != nil {
			return ResolvedInstallation{}, fmt.Errorf("%w: %v", ErrManifestCorrupt, err)
		}

		if artifact, ok := libraryArtifact(lib, coord); ok {
			resolved := ResolvedLibrary{Name: lib.Name, Path: artifact.Path, Download: artifact}
			classpath = append(classpath, graphCandidate{coord.Key(), specificity, resolved})
			// Natives published as their own classified artifact are loaded from the classpath
			// by newer LWJGL versions, and from the natives directory by older ones
			if strings.HasPrefix(coord.Classifier, "natives-") {
				resolved.Exclude = excludes(lib)
				natives = append(natives, graphCandidate{coord.Key(), specificity, resolved})
			}
		}

		classifier, ok := nativeClassifier(lib, p)
		if !ok {
			continue
		}
		native, err := classifierArtifact(lib, coord, classifier)
		if err != nil {
			return ResolvedInstallation{}, err
		}
		natives = append(natives, graphCandidate{coord.Key() + ":" + classifier, specificity, ResolvedLibrary{
			Name:     lib.Name + ":" + classifier,
			Path:     native.Path,
			Download: native,
			Exclude:  excludes(lib),
		}})
	}
	inst.Libraries = dedupeLibraries(classpath)
	inst.Natives = dedupeLibraries(natives)
	return inst, nil
}

// libraryArtifact returns the plain jar of a library, if it has one
func libraryArtifact(lib Library, coord Coordinate) (DownloadInfo, bool) {
	if lib.Downloads == nil {
		if len(lib.Natives) > 0 {
			return DownloadInfo{}, false
		}
		return mavenDownload(lib, coord), true
	}
	if lib.Downloads.Artifact == nil || lib.Downloads.Artifact.URL == "" {
		return DownloadInfo{}, false
	}
	artifact := *lib.Downloads.Artifact
	if artifact.Path == "" {
		artifact.Path = coord.Path()
	}
	return artifact, true
}

func nativeClassifier(lib Library, p Platform) (string, bool) {
	classifier, ok := lib.Natives[p.OS]
	if !ok || classifier == "" {
		return "", false
	}
	return strings.ReplaceAll(classifier, "${arch}", p.Bits()), true
}

func classifierArtifact(lib Library, coord Coordinate, classifier string) (DownloadInfo, error) {
	if lib.Downloads == nil {
		c := coord
		c.Classifier = classifier
		return mavenDownload(Library{URL: lib.URL}, c), nil
	}
	native, ok := lib.Downloads.Classifiers[classifier]
	if !ok || native.URL == "" {
		return DownloadInfo{}, fmt.Errorf("%w: library %s has no %s download", ErrNoArtifactForPlatform, lib.Name, classifier)
	}
	if native.Path == "" {
		c := coord
		c.Classifier = classifier
		native.Path = c.Path()
	}
	return native, nil
}

// mavenDownload derives the download of a library that only names its repository
func mavenDownload(lib Library, coord Coordinate) DownloadInfo {
	base := lib.URL
	if base == "" {
		base = DefaultLibraryRepository
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return DownloadInfo{
		Path: coord.Path(),
		SHA1: lib.SHA1,
		Size: lib.Size,
		URL:  base + coord.Path(),
	}
}

func excludes(lib Library) []string {
	if lib.Extract == nil {
		return nil
	}
	return append([]string(nil), lib.Extract.Exclude...)
}

func dedupeLibraries(candidates []graphCandidate) []ResolvedLibrary {
	index := make(map[string]int, len(candidates))
	var kept []graphCandidate
	for _, c := range candidates {
		i, ok := index[c.key]
		if !ok {
			index[c.key] = len(kept)
			kept = append(kept, c)
			continue
		}
		if c.specificity >= kept[i].specificity {
			kept[i] = c
		}
	}
	out := make([]ResolvedLibrary, len(kept))
	for i, c := range kept {
		out[i] = c.lib
	}
	return out
}

// Tasks returns the downloads needed before the asset index can be read: the client jar,
// libraries, native archives, the asset index and the log configuration
func (inst ResolvedInstallation) Tasks(d Dirs) []DownloadTask {
	tasks := []DownloadTask{{
		ID:   "client:" + inst.ClientJarID,
		Kind: KindClient,
		URL:  inst.ClientJar.URL,
		Dest: d.ClientJar(inst.ClientJarID),
		Hash: inst.ClientJar.SHA1,
		Size: inst.ClientJar.Size,
	}}
	for _, lib := range inst.Libraries {
		tasks = append(tasks, libraryTask(d, lib, KindLibrary))
	}
	for _, lib := range inst.Natives {
		tasks = append(tasks, libraryTask(d, lib, KindNative))
	}
	if inst.AssetIndex != nil && inst.AssetIndex.URL != "" {
		tasks = append(tasks, DownloadTask{
			ID:   "asset-index:" + inst.AssetIndex.ID,
			Kind: KindAssetIndex,
			URL:  inst.AssetIndex.URL,
			Dest: d.AssetIndex(inst.AssetIndex.ID),
			Hash: inst.AssetIndex.SHA1,
			Size: inst.AssetIndex.Size,
		})
	}
	if inst.LogConfig != nil {
		f := inst.LogConfig.File
		tasks = append(tasks, DownloadTask{
			ID:   "log-config:" + f.ID,
			Kind: KindLogConfig,
			URL:  f.URL,
			Dest: d.LogConfig(f.ID),
			Hash: f.SHA1,
			Size: f.Size,
		})
	}
	return tasks
}

// ClasspathFiles returns the on-disk locations of the classpath libraries, in order
func (inst ResolvedInstallation) ClasspathFiles(d Dirs) []string {
	files := make([]string, len(inst.Libraries))
	for i, lib := range inst.Libraries {
		files[i] = d.Library(lib.Path)
	}
	return files
}

// NativeArchives returns the on-disk native archives to extract
func (inst ResolvedInstallation) NativeArchives(d Dirs) []NativeArchive {
	archives := make([]NativeArchive, len(inst.Natives))
	for i, lib := range inst.Natives {
		archives[i] = NativeArchive{
			Path:    d.Library(lib.Path),
			SHA1:    lib.Download.SHA1,
			Exclude: lib.Exclude,
		}
	}
	return archives
}

func libraryTask(d Dirs, lib ResolvedLibrary, kind TaskKind) DownloadTask {
	return DownloadTask{
		ID:   "library:" + lib.Path,
		Kind: kind,
		URL:  lib.Download.URL,
		Dest: d.Library(lib.Path),
		Hash: lib.Download.SHA1,
		Size: lib.Download.Size,
	}
}
