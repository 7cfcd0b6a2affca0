// Package database opens the MariaDB pool and the Redis client the app
// shares, and applies schema migrations at startup. Both stores are pinged
// with backoff so the server survives a compose cold start where it comes
// up before them.
package database

import (
	"context"
	"database/sql"
	"fmt"

	// MariaDB driver, registered for database/sql.
	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/paintball/internal/config"
)

// NewMariaDB opens the zone and reservation database and waits until it
// answers.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	// Reservations take a row lock per booking; cap the pool so a burst of
	// quick reservations cannot exhaust the server's connection limit.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitReady(context.Background(), "mariadb", db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
