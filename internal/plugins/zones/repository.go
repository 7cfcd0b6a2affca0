package zones

import (
	"context"
	"database/sql"
	"fmt"
)

// ZoneRepository defines persistence operations for zones.
type ZoneRepository interface {
	List(ctx context.Context) ([]Zone, error)
	FindByID(ctx context.Context, id int64) (*Zone, error)
	FindByName(ctx context.Context, name string) (*Zone, error)
	Create(ctx context.Context, z *Zone) error
}

// zoneRepo is the MariaDB implementation of ZoneRepository.
type zoneRepo struct {
	db *sql.DB
}

// NewZoneRepository creates a new MariaDB-backed zone repository.
func NewZoneRepository(db *sql.DB) ZoneRepository {
	return &zoneRepo{db: db}
}

const zoneCols = `id, name, capacity, COALESCE(description, ''), status, created_at`

// scanZone reads a row into a Zone. A missing row yields (nil, nil).
func scanZone(scanner interface{ Scan(...any) error }) (*Zone, error) {
	z := &Zone{}
	err := scanner.Scan(&z.ID, &z.Name, &z.Capacity, &z.Description, &z.Status, &z.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return z, nil
}

// List returns every zone ordered by name.
func (r *zoneRepo) List(ctx context.Context) ([]Zone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneCols+` FROM zones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	defer rows.Close()

	var result []Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		result = append(result, *z)
	}
	return result, rows.Err()
}

// FindByID returns a zone by primary key.
func (r *zoneRepo) FindByID(ctx context.Context, id int64) (*Zone, error) {
	return scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneCols+` FROM zones WHERE id = ?`, id))
}

// FindByName returns a zone by its unique name.
func (r *zoneRepo) FindByName(ctx context.Context, name string) (*Zone, error) {
	return scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneCols+` FROM zones WHERE name = ?`, name))
}

// Create inserts z and fills in its ID and CreatedAt.
func (r *zoneRepo) Create(ctx context.Context, z *Zone) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO zones (name, capacity, description, status) VALUES (?, ?, ?, ?)`,
		z.Name, z.Capacity, z.Description, z.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading zone id: %w", err)
	}
	z.ID = id
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM zones WHERE id = ?`, id).Scan(&z.CreatedAt)
}
