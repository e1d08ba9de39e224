package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"flight_bot/internal/model"
	"flight_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetAirport returns the airport with the given IATA code.
func (s *SQLite) GetAirport(ctx context.Context, iata string) (*model.Airport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT iata, name, city, country, timezone, updated_at
		 FROM airports WHERE iata = ?`, strings.ToUpper(strings.TrimSpace(iata)),
	)
	a, err := scanAirport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, iata)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAirport inserts a or replaces the stored entry with the same IATA code.
func (s *SQLite) UpsertAirport(ctx context.Context, a *model.Airport) error {
	a.IATA = strings.ToUpper(strings.TrimSpace(a.IATA))
	if a.IATA == "" {
		return errors.New("airport requires an IATA code")
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO airports (iata, name, city, country, timezone, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(iata) DO UPDATE SET
		   name = excluded.name,
		   city = excluded.city,
		   country = excluded.country,
		   timezone = excluded.timezone,
		   updated_at = excluded.updated_at`,
		a.IATA, a.Name, a.City, a.Country, a.Timezone, now,
	)
	if err != nil {
		return fmt.Errorf("upsert airport: %w", err)
	}
	a.UpdatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListAirports returns all airports ordered by IATA code.
func (s *SQLite) ListAirports(ctx context.Context) ([]model.Airport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iata, name, city, country, timezone, updated_at FROM airports ORDER BY iata`,
	)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var airports []model.Airport
	for rows.Next() {
		a, err := scanAirport(rows)
		if err != nil {
			return nil, err
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAirport(row scannable) (model.Airport, error) {
	var a model.Airport
	var updated sql.NullString
	err := row.Scan(&a.IATA, &a.Name, &a.City, &a.Country, &a.Timezone, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	if err != nil {
		return a, fmt.Errorf("scan airport: %w", err)
	}
	if updated.Valid {
		a.UpdatedAt, _ = time.Parse(timeLayout, updated.String)
	}
	return a, nil
}
