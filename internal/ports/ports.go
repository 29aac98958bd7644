package ports

import (
	"context"

	"LocalNewsMapper/internal/domain"
)

// Fetcher retrieves a page body from the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageSource returns cached content for path, fetching url when the cache is
// bypassed or cold. Read serves the copy on disk only.
type PageSource interface {
	ReadOrFetch(ctx context.Context, path, url string, preferLocal bool) ([]byte, error)
	Read(path string) ([]byte, error)
}

// Geocoder resolves a free-text locale into a raw geocoding payload.
type Geocoder interface {
	Geocode(ctx context.Context, locale string) ([]byte, error)
}

// CivicInfo looks up the legislators representing an address.
type CivicInfo interface {
	Representatives(ctx context.Context, address string) ([]byte, error)
}

// SnapshotStore persists the registry at the end of a run.
type SnapshotStore interface {
	Save(ctx context.Context, reg *domain.Registry) error
}

// Exporter writes a queryable copy of the registry for later analysis.
type Exporter interface {
	Export(ctx context.Context, reg *domain.Registry) error
}
