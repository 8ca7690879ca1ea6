package devbackend

import (
	"context"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-vine/internal/db"
)

// Open builds a backend on the DuckDB database at dbPath (in memory when
// empty), seeded with sample vineyards when empty. The returned closer
// releases the database.
func Open(ctx context.Context, dbPath string) (*Backend, io.Closer, error) {
	conn, err := db.Open(ctx, db.Config{Path: dbPath})
	if err != nil {
		return nil, nil, err
	}
	store, err := NewStore(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := store.Seed(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	zones, err := DefaultZones()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return New(store, zones, NewAlertmaker()), conn, nil
}

// Handler returns the HTTP handler serving the backend API, with OpenAPI
// docs at /docs.
func (b *Backend) Handler() (http.Handler, huma.API) {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("plat-vine dev backend", "0.1.0")
	config.Info.Description = "Development stand-in for the vineyard backend: vineyards, map zones, alerts and search."
	// Bodies are consumed as plain JSON; no $schema property.
	config.CreateHooks = []func(huma.Config) huma.Config{}

	api := humago.New(mux, config)
	b.RegisterRoutes(api)
	return mux, api
}
