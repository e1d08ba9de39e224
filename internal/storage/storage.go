// Package storage defines the airport directory interface and its implementations.
package storage

import (
	"context"
	"errors"

	"flight_bot/internal/model"
)

// ErrNotFound is returned when an airport is not in the directory.
var ErrNotFound = errors.New("airport not found")

// Storage is the interface for airport directory operations.
type Storage interface {
	GetAirport(ctx context.Context, iata string) (*model.Airport, error)
	UpsertAirport(ctx context.Context, a *model.Airport) error
	ListAirports(ctx context.Context) ([]model.Airport, error)

	Close() error
}
