package core

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// DefaultAssetRepository serves asset objects by hash
const DefaultAssetRepository = "https://resources.download.minecraft.net/"

// AssetIndexFile maps logical asset paths to their content-addressed objects
type AssetIndexFile struct {
	Objects        map[string]AssetObject `json:"objects"`
	Virtual        bool                   `json:"virtual,omitempty"`
	MapToResources bool                   `json:"map_to_resources,omitempty"`
}

// AssetObject is one asset; its hash is also its storage key
type AssetObject struct {
	// Path is the logical asset path; it is the key of the object in the index
	Path string `json:"-"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// ReadAssetIndex reads and checks an asset index file
func ReadAssetIndex(path string) (AssetIndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AssetIndexFile{}, fmt.Errorf("failed to read asset index: %w", err)
	}
	return ParseAssetIndex(data)
}

// ParseAssetIndex decodes an asset index document
func ParseAssetIndex(data []byte) (AssetIndexFile, error) {
	var idx AssetIndexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return AssetIndexFile{}, fmt.Errorf("%w: invalid asset index: %v", ErrManifestCorrupt, err)
	}
	for name, obj := range idx.Objects {
		if len(obj.Hash) != 40 {
			return AssetIndexFile{}, fmt.Errorf("%w: asset %s has invalid hash %q", ErrManifestCorrupt, name, obj.Hash)
		}
		obj.Path = name
		idx.Objects[name] = obj
	}
	return idx, nil
}

// Tasks returns one download per distinct object, in a stable order. Assets are optional unless required is set.
func (idx AssetIndexFile) Tasks(d Dirs, required bool) []DownloadTask {
	names := make([]string, 0, len(idx.Objects))
	for name := range idx.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool, len(names))
	tasks := make([]DownloadTask, 0, len(names))
	for _, name := range names {
		obj := idx.Objects[name]
		if seen[obj.Hash] {
			continue
		}
		seen[obj.Hash] = true
		tasks = append(tasks, DownloadTask{
			ID:       "asset:" + obj.Hash,
			Kind:     KindAsset,
			URL:      DefaultAssetRepository + obj.Hash[:2] + "/" + obj.Hash,
			Dest:     d.AssetObject(obj.Hash),
			Hash:     obj.Hash,
			Size:     obj.Size,
			Optional: !required,
		})
	}
	return tasks
}
