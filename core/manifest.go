package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// VersionManifest is the version JSON describing one game version: its libraries,
// client jar, assets and launch arguments
type VersionManifest struct {
	ID           string `json:"id"`
	InheritsFrom string `json:"inheritsFrom,omitempty"`
	Type         string `json:"type,omitempty"`
	MainClass    string `json:"mainClass,omitempty"`
	// Jar is the id of the version whose client jar is used, when it isn't this version
	Jar                string                  `json:"jar,omitempty"`
	JavaVersion        *JavaVersion            `json:"javaVersion,omitempty"`
	Arguments          *Arguments              `json:"arguments,omitempty"`
	MinecraftArguments string                  `json:"minecraftArguments,omitempty"`
	AssetIndex         *AssetIndexRef          `json:"assetIndex,omitempty"`
	Assets             string                  `json:"assets,omitempty"`
	Downloads          map[string]DownloadInfo `json:"downloads,omitempty"`
	Libraries          []Library               `json:"libraries,omitempty"`
	Logging            *Logging                `json:"logging,omitempty"`
}

// JavaVersion is the minimum Java runtime a version requires
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// DownloadInfo is a downloadable file referenced from a manifest
type DownloadInfo struct {
	// Path is relative to the libraries folder; it is not set for the client jar
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

// AssetIndexRef points to the asset index file of a version
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// Logging holds the log configuration passed to the client
type Logging struct {
	Client *LoggingConfig `json:"client,omitempty"`
}

// LoggingConfig is a log configuration file and the JVM argument template that loads it
type LoggingConfig struct {
	Argument string      `json:"argument"`
	File     LoggingFile `json:"file"`
	Type     string      `json:"type,omitempty"`
}

// LoggingFile is the downloadable log configuration file
type LoggingFile struct {
	ID   string `json:"id"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

// Library is a dependency of a version, optionally restricted by rules and carrying native classifiers
type Library struct {
	// Name is the maven coordinate (group:artifact:version[:classifier])
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	// Natives maps an OS name to the classifier holding its native binaries; ${arch} is replaced with 32/64
	Natives map[string]string `json:"natives,omitempty"`
	Extract *ExtractRules     `json:"extract,omitempty"`
	Rules   []Rule            `json:"rules,omitempty"`
	// URL, SHA1 and Size are used by libraries without a downloads block (e.g. Fabric);
	// URL is then the base of the maven repository
	URL  string `json:"url,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// LibraryDownloads holds the plain artifact of a library and its classifier variants
type LibraryDownloads struct {
	Artifact    *DownloadInfo           `json:"artifact,omitempty"`
	Classifiers map[string]DownloadInfo `json:"classifiers,omitempty"`
}

// ExtractRules lists archive path prefixes to skip when extracting natives
type ExtractRules struct {
	Exclude []string `json:"exclude,omitempty"`
}

// ParseManifest decodes a version JSON document
func ParseManifest(data []byte) (VersionManifest, error) {
	var m VersionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return VersionManifest{}, fmt.Errorf("%w: %v", ErrManifestCorrupt, err)
	}
	return m, nil
}

// JarVersion returns the id of the version whose client jar this manifest launches
func (m VersionManifest) JarVersion() string {
	if m.Jar != "" {
		return m.Jar
	}
	return m.ID
}

// RequiredJava returns the minimum Java major version; versions that don't declare one run on Java 8
func (m VersionManifest) RequiredJava() int {
	if m.JavaVersion == nil || m.JavaVersion.MajorVersion == 0 {
		return 8
	}
	return m.JavaVersion.MajorVersion
}

// validate checks the fields needed to launch are present
func (m VersionManifest) validate() error {
	var missing []string
	if m.ID == "" {
		missing = append(missing, "id")
	}
	if m.MainClass == "" {
		missing = append(missing, "mainClass")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: version %q is missing %s", ErrManifestCorrupt, m.ID, strings.Join(missing, ", "))
	}
	return nil
}

// MergeManifests applies child over parent, producing the effective manifest of child.
//
// Scalar fields (type, mainClass, javaVersion, minecraftArguments, assetIndex, assets,
// logging) are taken from the child when it sets them. Downloads are merged per key,
// the child winning. Libraries and both argument lists are the parent's followed by the
// child's. The client jar stays the parent's unless the child declares its own.
func MergeManifests(parent, child VersionManifest) VersionManifest {
	out := parent.Clone()
	c := child.Clone()

	out.ID = c.ID
	out.InheritsFrom = ""
	if c.Type != "" {
		out.Type = c.Type
	}
	if c.MainClass != "" {
		out.MainClass = c.MainClass
	}
	if c.JavaVersion != nil {
		out.JavaVersion = c.JavaVersion
	}
	if c.MinecraftArguments != "" {
		out.MinecraftArguments = c.MinecraftArguments
	}
	if c.AssetIndex != nil {
		out.AssetIndex = c.AssetIndex
	}
	if c.Assets != "" {
		out.Assets = c.Assets
	}
	if c.Logging != nil {
		out.Logging = c.Logging
	}

	if _, ok := c.Downloads["client"]; ok {
		out.Jar = c.Jar
	} else if c.Jar != "" {
		out.Jar = c.Jar
	} else {
		out.Jar = parent.JarVersion()
	}
	if len(c.Downloads) > 0 {
		if out.Downloads == nil {
			out.Downloads = make(map[string]DownloadInfo, len(c.Downloads))
		}
		for k, v := range c.Downloads {
			out.Downloads[k] = v
		}
	}

	out.Libraries = append(out.Libraries, c.Libraries...)

	if c.Arguments != nil {
		if out.Arguments == nil {
			out.Arguments = &Arguments{}
		}
		out.Arguments.Game = append(out.Arguments.Game, c.Arguments.Game...)
		out.Arguments.JVM = append(out.Arguments.JVM, c.Arguments.JVM...)
	}
	return out
}

// Clone returns a deep copy of the manifest
func (m VersionManifest) Clone() VersionManifest {
	out := m
	if m.JavaVersion != nil {
		v := *m.JavaVersion
		out.JavaVersion = &v
	}
	if m.Arguments != nil {
		out.Arguments = &Arguments{
			Game: cloneArguments(m.Arguments.Game),
			JVM:  cloneArguments(m.Arguments.JVM),
		}
	}
	if m.AssetIndex != nil {
		a := *m.AssetIndex
		out.AssetIndex = &a
	}
	out.Downloads = maps.Clone(m.Downloads)
	if m.Libraries != nil {
		out.Libraries = make([]Library, len(m.Libraries))
		for i, lib := range m.Libraries {
			out.Libraries[i] = lib.clone()
		}
	}
	if m.Logging != nil {
		l := Logging{}
		if m.Logging.Client != nil {
			c := *m.Logging.Client
			l.Client = &c
		}
		out.Logging = &l
	}
	return out
}

func (l Library) clone() Library {
	out := l
	if l.Downloads != nil {
		d := LibraryDownloads{Classifiers: maps.Clone(l.Downloads.Classifiers)}
		if l.Downloads.Artifact != nil {
			a := *l.Downloads.Artifact
			d.Artifact = &a
		}
		out.Downloads = &d
	}
	out.Natives = maps.Clone(l.Natives)
	if l.Extract != nil {
		out.Extract = &ExtractRules{Exclude: append([]string(nil), l.Extract.Exclude...)}
	}
	out.Rules = cloneRules(l.Rules)
	return out
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		if r.OS != nil {
			o := *r.OS
			out[i].OS = &o
		}
		out[i].Features = maps.Clone(r.Features)
	}
	return out
}

// Coordinate is a parsed maven coordinate
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses group:artifact:version[:classifier][@extension]
func ParseCoordinate(name string) (Coordinate, error) {
	c := Coordinate{Extension: "jar"}
	if i := strings.LastIndex(name, "@"); i >= 0 {
		c.Extension = name[i+1:]
		name = name[:i]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid maven coordinate %q", name)
	}
	c.Group, c.Artifact, c.Version = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Path returns the repository-relative path of the artifact, in forward slash format
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version + "/" + file + "." + c.Extension
}

// Key identifies the library regardless of its version
func (c Coordinate) Key() string {
	key := c.Group + ":" + c.Artifact
	if c.Classifier != "" {
		key += ":" + c.Classifier
	}
	return key
}
