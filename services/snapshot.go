// services/snapshot.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/SquirrelThief/playhvz/store"
)

// Uploader stores an object and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// SnapshotService exports whole games as JSON for backup and offline review.
type SnapshotService struct {
	Store    *store.Store
	Uploader Uploader
}

func NewSnapshotService(st *store.Store, uploader Uploader) *SnapshotService {
	return &SnapshotService{Store: st, Uploader: uploader}
}

// ExportGame uploads every document of the game, keyed by path, to
// snapshots/{gameId}/{unix}.json and returns its URL.
func (s *SnapshotService) ExportGame(ctx context.Context, gameID string) (string, error) {
	docs, err := s.Store.Export(ctx, gameID)
	if err != nil {
		return "", notFound("game", gameID, err)
	}
	body, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("snapshots/%s/%d.json", gameID, time.Now().Unix())
	url, err := s.Uploader.Upload(ctx, key, "application/json", body)
	if err != nil {
		return "", err
	}
	log.Printf("[SNAPSHOT] exported %d documents of %s to %s", len(docs), gameID, url)
	return url, nil
}

// ExportAll exports every game, logging failures and carrying on.
func (s *SnapshotService) ExportAll(ctx context.Context) (exported int, err error) {
	games, err := s.Store.Games(ctx)
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}
	for _, g := range games {
		if _, err := s.ExportGame(ctx, g.ID); err != nil {
			log.Printf("[SNAPSHOT] ❌ export of %s failed: %v", g.ID, err)
			continue
		}
		exported++
	}
	return exported, nil
}
