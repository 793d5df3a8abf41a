package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/unascribed/FlexVer/go/flexver"
)

// DefaultManifestURL is the catalog of every published version
const DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Catalog returns version JSON documents by version id
type Catalog interface {
	// FetchManifest returns the raw version JSON, or an error wrapping ErrManifestNotFound
	FetchManifest(ctx context.Context, id string) ([]byte, error)
}

// VersionList is the catalog of published versions
type VersionList struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionListEntry `json:"versions"`
}

// VersionListEntry is one version in the catalog
type VersionListEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Time        time.Time `json:"time"`
	ReleaseTime time.Time `json:"releaseTime"`
	SHA1        string    `json:"sha1,omitempty"`
}

// Find returns the entry with the given id
func (l VersionList) Find(id string) (VersionListEntry, bool) {
	for _, v := range l.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionListEntry{}, false
}

// IDs returns the ids of every version, optionally restricted to the given types
func (l VersionList) IDs(types ...string) []string {
	ids := make([]string, 0, len(l.Versions))
	for _, v := range l.Versions {
		if len(types) == 0 || containsString(types, v.Type) {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Sort orders versions from oldest to newest; versions released at the same time are ordered by FlexVer
func (l VersionList) Sort() {
	sort.SliceStable(l.Versions, func(i, j int) bool {
		a, b := l.Versions[i], l.Versions[j]
		if a.ReleaseTime.Equal(b.ReleaseTime) {
			return flexver.Less(a.ID, b.ID)
		}
		return a.ReleaseTime.Before(b.ReleaseTime)
	})
}

// RemoteCatalog fetches versions from the launcher meta server
type RemoteCatalog struct {
	Fetcher Fetcher
	URL     string

	mu   sync.Mutex
	list *VersionList
}

// NewRemoteCatalog creates a RemoteCatalog reading the catalog at url (DefaultManifestURL if empty)
func NewRemoteCatalog(f Fetcher, url string) *RemoteCatalog {
	if url == "" {
		url = DefaultManifestURL
	}
	return &RemoteCatalog{Fetcher: f, URL: url}
}

// Versions returns the catalog, fetching it once per RemoteCatalog
func (c *RemoteCatalog) Versions(ctx context.Context) (VersionList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list != nil {
		return *c.list, nil
	}
	data, err := fetchAll(ctx, c.Fetcher, c.URL)
	if err != nil {
		return VersionList{}, fmt.Errorf("failed to fetch version list: %w", err)
	}
	var list VersionList
	if err := json.Unmarshal(data, &list); err != nil {
		return VersionList{}, fmt.Errorf("failed to read version list: %w", err)
	}
	list.Sort()
	c.list = &list
	return list, nil
}

func (c *RemoteCatalog) FetchManifest(ctx context.Context, id string) ([]byte, error) {
	list, err := c.Versions(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := list.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, id)
	}
	data, err := fetchAll(ctx, c.Fetcher, entry.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for %s: %w", id, err)
	}
	if entry.SHA1 != "" {
		sum, err := HashBytes(data, DefaultHashFormat)
		if err != nil {
			return nil, err
		}
		if sum != entry.SHA1 {
			return nil, fmt.Errorf("%w: %s has sha1 %s, expected %s", ErrManifestCorrupt, id, sum, entry.SHA1)
		}
	}
	return data, nil
}

// LocalCatalog reads version JSON documents already in the content store
type LocalCatalog struct {
	Dirs Dirs
}

func (c LocalCatalog) FetchManifest(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(c.Dirs.VersionManifest(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, id)
		}
		return nil, fmt.Errorf("failed to read manifest for %s: %w", id, err)
	}
	return data, nil
}

// Store saves a version JSON document into the content store, replacing it atomically
func (c LocalCatalog) Store(id string, data []byte) error {
	dest := c.Dirs.VersionManifest(id)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), id+".json-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write manifest for %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write manifest for %s: %w", id, err)
	}
	return nil
}

// Installed lists the ids of versions with a manifest in the store, ordered by FlexVer
func (c LocalCatalog) Installed() ([]string, error) {
	entries, err := os.ReadDir(c.Dirs.Versions())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(c.Dirs.VersionManifest(e.Name())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	flexver.VersionSlice(ids).Sort()
	return ids, nil
}

// LayeredCatalog reads from the local store first, falling back to a remote catalog.
// Manifests fetched remotely are saved locally.
type LayeredCatalog struct {
	Local  LocalCatalog
	Remote Catalog
}

func (c LayeredCatalog) FetchManifest(ctx context.Context, id string) ([]byte, error) {
	data, err := c.Local.FetchManifest(ctx, id)
	if err == nil || !errors.Is(err, ErrManifestNotFound) || c.Remote == nil {
		return data, err
	}
	data, err = c.Remote.FetchManifest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Local.Store(id, data); err != nil {
		return nil, err
	}
	return data, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
