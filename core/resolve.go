package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Resolver loads version manifests from a Catalog and flattens their inheritance chain
type Resolver struct {
	Catalog Catalog
	Logger  *log.Logger

	mu    sync.Mutex
	cache map[string]VersionManifest
}

// NewResolver creates a Resolver reading from the given catalog
func NewResolver(c Catalog, logger *log.Logger) *Resolver {
	return &Resolver{Catalog: c, Logger: orDiscard(logger), cache: make(map[string]VersionManifest)}
}

// Resolve returns the effective manifest of a version, with every parent merged in.
// Results are cached for the lifetime of the Resolver; callers receive their own copy.
func (r *Resolver) Resolve(ctx context.Context, id string) (VersionManifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		r.cache = make(map[string]VersionManifest)
	}
	r.Logger = orDiscard(r.Logger)
	m, err := r.resolve(ctx, id, nil)
	if err != nil {
		return VersionManifest{}, err
	}
	if err := m.validate(); err != nil {
		return VersionManifest{}, err
	}
	return m.Clone(), nil
}

func (r *Resolver) resolve(ctx context.Context, id string, chain []string) (VersionManifest, error) {
	if m, ok := r.cache[id]; ok {
		return m, nil
	}
	for _, seen := range chain {
		if seen == id {
			return VersionManifest{}, fmt.Errorf("%w: inheritance cycle %s -> %s", ErrManifestCorrupt,
				strings.Join(chain, " -> "), id)
		}
	}
	if err := ctx.Err(); err != nil {
		return VersionManifest{}, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	data, err := r.orDiscardCatalog().FetchManifest(ctx, id)
	if err != nil {
		return VersionManifest{}, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return VersionManifest{}, fmt.Errorf("failed to parse manifest %s: %w", id, err)
	}
	if m.ID == "" {
		m.ID = id
	}
	r.Logger.Debug("loaded manifest", "id", id, "inheritsFrom", m.InheritsFrom, "libraries", len(m.Libraries))

	if m.InheritsFrom != "" {
		parent, err := r.resolve(ctx, m.InheritsFrom, append(chain, id))
		if err != nil {
			return VersionManifest{}, fmt.Errorf("failed to resolve parent of %s: %w", id, err)
		}
		m = MergeManifests(parent, m)
	}
	r.cache[id] = m
	return m, nil
}

func (r *Resolver) orDiscardCatalog() Catalog {
	if r.Catalog == nil {
		return emptyCatalog{}
	}
	return r.Catalog
}

type emptyCatalog struct{}

func (emptyCatalog) FetchManifest(_ context.Context, id string) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, id)
}
