package catalog

import (
	"context"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// Source is the remote media library the cache mirrors.
type Source interface {
	// Identity returns a stable identifier for the library's server.
	Identity(ctx context.Context) (string, error)
	// AllGroups returns album metadata keyed by group id.
	AllGroups(ctx context.Context) (map[string]domain.GroupMeta, error)
	AllEntries(ctx context.Context) ([]domain.RawEntry, error)
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.RawEntry, error)
	CreatePlaylist(ctx context.Context, name string, ids []string) (domain.PlaylistResult, error)
}

// TotalCounter is implemented by sources that can report their size without
// listing every entry.
type TotalCounter interface {
	TotalEntries(ctx context.Context) (int, error)
}

// Cache is the local copy of the library, implemented by store.DB.
type Cache interface {
	HasEntries(ctx context.Context) (bool, error)
	GetByFilter(ctx context.Context, spec domain.FilterSpec) ([]domain.CatalogEntry, error)
	CountByFilter(ctx context.Context, spec domain.FilterSpec) (int, error)
}
