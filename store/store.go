// Package store looks up site users by id.
package store

import (
	"context"
	"errors"
	"strings"
)

var ErrNoStore = errors.New("no user store configured")

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store returns the users matching an id. An unknown id yields an empty slice.
type Store interface {
	GetUser(ctx context.Context, id string) ([]User, error)
	Close() error
}

// Open picks postgres for postgres:// urls and a bolt file otherwise.
func Open(ctx context.Context, dbURL, boltPath string) (Store, error) {
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		p, err := OpenPostgres(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	b, err := OpenBolt(boltPath)
	if err != nil {
		return nil, err
	}
	return b, nil
}
