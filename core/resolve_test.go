package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// mapCatalog serves manifests from memory, counting fetches per id
type mapCatalog struct {
	manifests map[string]string
	fetches   map[string]int
}

func (c *mapCatalog) FetchManifest(_ context.Context, id string) ([]byte, error) {
	if c.fetches == nil {
		c.fetches = make(map[string]int)
	}
	c.fetches[id]++
	m, ok := c.manifests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, id)
	}
	return []byte(m), nil
}

func TestResolveInheritance(t *testing.T) {
	c := &mapCatalog{manifests: map[string]string{"1.21.8": parentManifest, "fabric-loader-0.17.3-1.21.8": childManifest}}
	r := NewResolver(c, nil)

	m, err := r.Resolve(context.Background(), "fabric-loader-0.17.3-1.21.8")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Libraries) != 3 || m.MainClass != "net.fabricmc.loader.impl.launch.knot.KnotClient" {
		t.Errorf("Unexpected effective manifest %+v", m)
	}

	// Cached for later calls, including the parent
	if _, err := r.Resolve(context.Background(), "fabric-loader-0.17.3-1.21.8"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(context.Background(), "1.21.8"); err != nil {
		t.Fatal(err)
	}
	if c.fetches["1.21.8"] != 1 || c.fetches["fabric-loader-0.17.3-1.21.8"] != 1 {
		t.Errorf("Expected every manifest to be fetched once, got %v", c.fetches)
	}
}

func TestResolveReturnsCopies(t *testing.T) {
	c := &mapCatalog{manifests: map[string]string{"1.21.8": parentManifest}}
	r := NewResolver(c, nil)
	m, err := r.Resolve(context.Background(), "1.21.8")
	if err != nil {
		t.Fatal(err)
	}
	m.Libraries[0].Name = "changed:changed:1"
	m.Downloads["client"] = DownloadInfo{}

	again, err := r.Resolve(context.Background(), "1.21.8")
	if err != nil {
		t.Fatal(err)
	}
	if again.Libraries[0].Name != "a:a:1" || again.Downloads["client"].SHA1 != "bb" {
		t.Error("Modifying a resolved manifest changed the cached one")
	}
}

func TestResolveErrors(t *testing.T) {
	c := &mapCatalog{manifests: map[string]string{
		"orphan":  `{"id": "orphan", "inheritsFrom": "missing", "mainClass": "a.B"}`,
		"broken":  `{"id": "broken", "mainClass": `,
		"nomain":  `{"id": "nomain"}`,
		"cycle-a": `{"id": "cycle-a", "inheritsFrom": "cycle-b", "mainClass": "a.B"}`,
		"cycle-b": `{"id": "cycle-b", "inheritsFrom": "cycle-a"}`,
	}}
	r := NewResolver(c, nil)
	cases := map[string]error{
		"unknown": ErrManifestNotFound,
		"orphan":  ErrManifestNotFound,
		"broken":  ErrManifestCorrupt,
		"nomain":  ErrManifestCorrupt,
		"cycle-a": ErrManifestCorrupt,
	}
	for id, expected := range cases {
		if _, err := r.Resolve(context.Background(), id); !errors.Is(err, expected) {
			t.Errorf("Resolving %s: expected %v, got %v", id, expected, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewResolver(c, nil).Resolve(ctx, "nomain"); !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
}
