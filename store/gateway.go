// Package store is the persistence gateway: JSON documents addressed by
// games/{gameId}/{collection}/{id}, with single-document read-modify-write
// and field queries.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// GamesCollection holds the game documents themselves.
const GamesCollection = "games"

var (
	ErrNotFound = errors.New("document not found")

	// ErrNoChange aborts a read-modify-write without writing.
	ErrNoChange = errors.New("no change")
)

// Ref addresses one document. Game documents have an empty GameID.
type Ref struct {
	GameID     string
	Collection string
	ID         string
}

func GameRef(id string) Ref {
	return Ref{Collection: GamesCollection, ID: id}
}

func (r Ref) Path() string {
	if r.GameID == "" {
		return r.Collection + "/" + r.ID
	}
	return "games/" + r.GameID + "/" + r.Collection + "/" + r.ID
}

func (r Ref) validate() error {
	if r.ID == "" || r.Collection == "" {
		return fmt.Errorf("invalid document ref %q", r.Path())
	}
	if strings.Contains(r.ID, "/") {
		return fmt.Errorf("document id %q must not contain '/'", r.ID)
	}
	return nil
}

// UpdateFunc receives the stored bytes (nil when absent) and returns the
// replacement. Returning nil data leaves the document untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Snapshot is a document returned by a query.
type Snapshot struct {
	Ref  Ref
	Data []byte
}

type Gateway interface {
	Get(ctx context.Context, ref Ref) ([]byte, error)
	Set(ctx context.Context, ref Ref, data []byte) error
	// Update is an atomic read-modify-write on a single document.
	Update(ctx context.Context, ref Ref, fn UpdateFunc) error
	Delete(ctx context.Context, ref Ref) error
	Query(ctx context.Context, q Query) ([]Snapshot, error)
}
