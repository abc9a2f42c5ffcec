// services/lookup.go
package services

import (
	"context"
	"fmt"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
)

// notFound turns a missing document into a NOT_FOUND domain error and wraps
// anything else.
func notFound(kind, id string, err error) error {
	if store.IsNotFound(err) {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("%s %s not found", kind, id),
			map[string]string{"kind": kind, "id": id})
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

func loadGame(ctx context.Context, st *store.Store, gameID string) (*models.Game, error) {
	g, err := st.Game(ctx, gameID)
	if err != nil {
		return nil, notFound("game", gameID, err)
	}
	return g, nil
}

func loadPlayer(ctx context.Context, st *store.Store, gameID, playerID string) (*models.Player, error) {
	p, err := st.Players.Get(ctx, gameID, playerID)
	if err != nil {
		return nil, notFound("player", playerID, err)
	}
	p.EnsureMaps()
	return p, nil
}

func loadGroup(ctx context.Context, st *store.Store, gameID, groupID string) (*models.Group, error) {
	g, err := st.Groups.Get(ctx, gameID, groupID)
	if err != nil {
		return nil, notFound("group", groupID, err)
	}
	return g, nil
}

func loadChatRoom(ctx context.Context, st *store.Store, gameID, chatRoomID string) (*models.ChatRoom, error) {
	c, err := st.ChatRooms.Get(ctx, gameID, chatRoomID)
	if err != nil {
		return nil, notFound("chat room", chatRoomID, err)
	}
	return c, nil
}

func validateFilter(f models.AllegianceFilter) (models.AllegianceFilter, error) {
	if f == "" {
		return models.FilterNone, nil
	}
	if !f.Valid() {
		return "", apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unknown allegiance filter %q", f))
	}
	return f, nil
}
