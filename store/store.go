package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/SquirrelThief/playhvz/models"
)

const (
	PlayersCollection   = "players"
	GroupsCollection    = "groups"
	ChatRoomsCollection = "chatRooms"
	MissionsCollection  = "missions"
	RewardsCollection   = "rewards"
)

// Store is typed access to every collection the game services use.
type Store struct {
	gw    Gateway
	games Collection[models.Game]

	Players   Collection[models.Player]
	Groups    Collection[models.Group]
	ChatRooms Collection[models.ChatRoom]
	Missions  Collection[models.Mission]
	Rewards   Collection[models.Reward]
}

func New(gw Gateway) *Store {
	return &Store{
		gw:        gw,
		games:     NewCollection[models.Game](gw, GamesCollection),
		Players:   NewCollection[models.Player](gw, PlayersCollection),
		Groups:    NewCollection[models.Group](gw, GroupsCollection),
		ChatRooms: NewCollection[models.ChatRoom](gw, ChatRoomsCollection),
		Missions:  NewCollection[models.Mission](gw, MissionsCollection),
		Rewards:   NewCollection[models.Reward](gw, RewardsCollection),
	}
}

// ClaimCodes is the claim-code sub-collection of one reward.
func (s *Store) ClaimCodes(rewardID string) Collection[models.ClaimCode] {
	return NewCollection[models.ClaimCode](s.gw, RewardsCollection+"/"+rewardID+"/claimCodes")
}

func (s *Store) Game(ctx context.Context, gameID string) (*models.Game, error) {
	return s.games.Get(ctx, "", gameID)
}

func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	return s.games.Set(ctx, "", game.ID, game)
}

func (s *Store) UpdateGame(ctx context.Context, gameID string, fn func(g *models.Game) error) (*models.Game, error) {
	return s.games.Update(ctx, "", gameID, fn)
}

func (s *Store) Games(ctx context.Context) ([]*models.Game, error) {
	return s.games.List(ctx, "")
}

// Export returns the game document and every document under it, keyed by path.
func (s *Store) Export(ctx context.Context, gameID string) (map[string]json.RawMessage, error) {
	ref := GameRef(gameID)
	gameDoc, err := s.gw.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	snaps, err := s.gw.Query(ctx, Query{GameID: gameID})
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(snaps)+1)
	out[ref.Path()] = gameDoc
	for _, snap := range snaps {
		out[snap.Ref.Path()] = snap.Data
	}
	return out, nil
}

// IsNotFound reports whether err is a missing-document error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
