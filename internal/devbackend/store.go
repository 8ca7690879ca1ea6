package devbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joeblew999/plat-vine/internal/db"
)

// Vineyard is a stored vineyard.
type Vineyard struct {
	ID   int     `json:"id" doc:"Vineyard id" example:"5"`
	Name string  `json:"name" doc:"Display name" example:"Plot A"`
	Desc string  `json:"desc,omitempty" doc:"Free-form description"`
	Lat  float64 `json:"lat" doc:"Latitude" example:"45.1"`
	Lon  float64 `json:"lon" doc:"Longitude" example:"37.5"`
}

// ErrNotFound is returned for an unknown vineyard id.
var ErrNotFound = errors.New("vineyard not found")

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS vineyard_ids START 1`,
	`CREATE TABLE IF NOT EXISTS vineyards (
		id          INTEGER PRIMARY KEY DEFAULT nextval('vineyard_ids'),
		name        VARCHAR NOT NULL,
		description VARCHAR NOT NULL DEFAULT '',
		lat         DOUBLE NOT NULL,
		lon         DOUBLE NOT NULL
	)`,
}

// Store keeps vineyards in DuckDB.
type Store struct {
	db *sql.DB
}

// NewStore creates the schema if needed.
func NewStore(ctx context.Context, conn *sql.DB) (*Store, error) {
	if err := db.Migrate(ctx, conn, schema...); err != nil {
		return nil, err
	}
	return &Store{db: conn}, nil
}

// List returns every vineyard ordered by id.
func (s *Store) List(ctx context.Context) ([]Vineyard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, lat, lon FROM vineyards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vineyards: %w", err)
	}
	defer rows.Close()

	out := []Vineyard{}
	for rows.Next() {
		var v Vineyard
		if err := rows.Scan(&v.ID, &v.Name, &v.Desc, &v.Lat, &v.Lon); err != nil {
			return nil, fmt.Errorf("scan vineyard: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns one vineyard.
func (s *Store) Get(ctx context.Context, id int) (Vineyard, error) {
	v := Vineyard{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, description, lat, lon FROM vineyards WHERE id = ?`, id,
	).Scan(&v.Name, &v.Desc, &v.Lat, &v.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return Vineyard{}, ErrNotFound
	}
	if err != nil {
		return Vineyard{}, fmt.Errorf("get vineyard %d: %w", id, err)
	}
	return v, nil
}

// Add stores a vineyard and returns it with its new id.
func (s *Store) Add(ctx context.Context, v Vineyard) (Vineyard, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO vineyards (name, description, lat, lon) VALUES (?, ?, ?, ?) RETURNING id`,
		v.Name, v.Desc, v.Lat, v.Lon,
	).Scan(&v.ID)
	if err != nil {
		return Vineyard{}, fmt.Errorf("add vineyard: %w", err)
	}
	return v, nil
}

// Delete removes a vineyard.
func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vineyards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vineyard %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vineyard %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed adds sample vineyards when the store is empty.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM vineyards`).Scan(&n); err != nil {
		return fmt.Errorf("count vineyards: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, v := range sampleVineyards {
		if _, err := s.Add(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

var sampleVineyards = []Vineyard{
	{Name: "Sukko", Desc: "Terraced slopes above the valley", Lat: 44.80, Lon: 37.42},
	{Name: "Gai-Kodzor", Lat: 44.95, Lon: 37.37},
	{Name: "Dzhemete", Lat: 45.05, Lon: 37.33},
	{Name: "Vityazevo", Desc: "Lowland plot near the estuary", Lat: 45.08, Lon: 37.29},
}
