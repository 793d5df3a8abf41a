package core

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/unascribed/FlexVer/go/flexver"
)

type MavenMetadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Release  string `xml:"release"`
		Latest   string `xml:"latest"`
		Versions struct {
			Version []string `xml:"version"`
		} `xml:"versions"`
		LastUpdated string `xml:"lastUpdated"`
	} `xml:"versioning"`
}

// LoaderComponent is a mod loader distributed as a version manifest inheriting from a game version
type LoaderComponent struct {
	Name         string
	FriendlyName string
	// MetadataURL is the maven-metadata.xml listing the loader's versions
	MetadataURL string
	// ProfileURL is the version manifest of a loader version for a game version
	ProfileURL func(mcVersion string, loaderVersion string) string
}

var Loaders = map[string]LoaderComponent{
	"fabric": {
		Name:         "fabric",
		FriendlyName: "Fabric loader",
		MetadataURL:  "https://maven.fabricmc.net/net/fabricmc/fabric-loader/maven-metadata.xml",
		ProfileURL:   loaderProfileURL("https://meta.fabricmc.net/v2/versions/loader/"),
	},
	"quilt": {
		Name:         "quilt",
		FriendlyName: "Quilt loader",
		MetadataURL:  "https://maven.quiltmc.org/repository/release/org/quiltmc/quilt-loader/maven-metadata.xml",
		ProfileURL:   loaderProfileURL("https://meta.quiltmc.org/v3/versions/loader/"),
	},
}

func loaderProfileURL(base string) func(mcVersion string, loaderVersion string) string {
	return func(mcVersion string, loaderVersion string) string {
		return base + url.PathEscape(mcVersion) + "/" + url.PathEscape(loaderVersion) + "/profile/json"
	}
}

// FetchMavenVersionList returns the versions listed by a maven-metadata.xml, and the latest release
func FetchMavenVersionList(ctx context.Context, f Fetcher, metadataURL string) ([]string, string, error) {
	data, err := fetchAll(ctx, f, metadataURL)
	if err != nil {
		return []string{}, "", err
	}
	out := MavenMetadata{}
	if err := xml.Unmarshal(data, &out); err != nil {
		return []string{}, "", err
	}
	versions := out.Versioning.Versions.Version
	if len(versions) == 0 {
		return []string{}, "", errors.New("no versions listed in " + metadataURL)
	}
	latest := out.Versioning.Release
	if latest == "" {
		latest = out.Versioning.Latest
	}
	if latest == "" || isUnstable(latest) {
		latest = latestStable(versions)
	}
	return versions, latest, nil
}

func isUnstable(version string) bool {
	v := strings.ToLower(version)
	return strings.Contains(v, "beta") || strings.Contains(v, "alpha") || strings.Contains(v, "-rc") ||
		strings.Contains(v, "snapshot") || strings.Contains(v, "pre")
}

// latestStable returns the largest version that isn't a pre-release, or the largest version if all are
func latestStable(versions []string) string {
	sorted := append([]string(nil), versions...)
	flexver.VersionSlice(sorted).Sort()
	for i := len(sorted) - 1; i >= 0; i-- {
		if !isUnstable(sorted[i]) {
			return sorted[i]
		}
	}
	return sorted[len(sorted)-1]
}

// InstallLoader stores the version manifest of a loader version for a game version in the local
// catalog, and returns its id. The game version itself is resolved through inheritance when launching.
func InstallLoader(ctx context.Context, f Fetcher, local LocalCatalog, loader LoaderComponent, mcVersion string,
	loaderVersion string) (string, error) {
	if loaderVersion == "" {
		_, latest, err := FetchMavenVersionList(ctx, f, loader.MetadataURL)
		if err != nil {
			return "", fmt.Errorf("failed to get %s versions: %w", loader.FriendlyName, err)
		}
		loaderVersion = latest
	}
	data, err := fetchAll(ctx, f, loader.ProfileURL(mcVersion, loaderVersion))
	if err != nil {
		return "", fmt.Errorf("failed to get %s %s for %s: %w", loader.FriendlyName, loaderVersion, mcVersion, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return "", err
	}
	if m.ID == "" || m.InheritsFrom == "" {
		return "", fmt.Errorf("%w: %s manifest must have an id and inherit from a game version", ErrManifestCorrupt,
			loader.FriendlyName)
	}
	if m.InheritsFrom != mcVersion {
		return "", fmt.Errorf("%w: %s manifest inherits from %s, expected %s", ErrManifestCorrupt,
			loader.FriendlyName, m.InheritsFrom, mcVersion)
	}
	if err := local.Store(m.ID, data); err != nil {
		return "", err
	}
	return m.ID, nil
}
