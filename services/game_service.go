package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/SquirrelThief/playhvz/utils"
)

type GameService struct {
	Store      *store.Store
	Groups     *GroupService
	Membership *MembershipService
	Rewards    *RewardService
}

func NewGameService(st *store.Store, groups *GroupService, membership *MembershipService, rewards *RewardService) *GameService {
	return &GameService{Store: st, Groups: groups, Membership: membership, Rewards: rewards}
}

// GameSummary struct for lightweight listing
type GameSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type CreateGameRequest struct {
	Name          string    `json:"name"`
	CreatorUserID string    `json:"-"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

// managedRoom describes one of the rooms every game starts with.
type managedRoom struct {
	name     string
	settings models.GroupSettings
	admin    bool
}

var managedRooms = []managedRoom{
	{name: models.GlobalChatName, settings: models.GlobalGroupSettings(models.FilterNone)},
	{name: models.AdminChatName, settings: models.AdminGroupSettings(), admin: true},
	{name: models.ResistanceChatName, settings: models.GlobalGroupSettings(models.FilterResistance)},
	{name: models.HordeChatName, settings: models.GlobalGroupSettings(models.FilterHorde)},
}

// CreateGame creates a game with its managed rooms, managed rewards and the
// figurehead admin player.
func (s *GameService) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "game name is required")
	}
	if req.CreatorUserID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "creator user id is required")
	}
	if !req.EndTime.IsZero() && req.EndTime.Before(req.StartTime) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "game ends before it starts")
	}

	games, err := s.Store.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	for _, g := range games {
		if strings.EqualFold(g.Name, name) {
			return nil, apperrors.WithMetadata(apperrors.CodeAlreadyExists,
				fmt.Sprintf("game %q already exists", name), map[string]string{"name": name})
		}
	}

	game := &models.Game{
		ID:               utils.NewID("game", name),
		Name:             name,
		CreatorUserID:    req.CreatorUserID,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		NextPlayerNumber: models.FirstPlayerNumber,
		CreatedAt:        time.Now(),
	}

	// 1. Managed rooms
	for _, room := range managedRooms {
		group, _, err := s.Groups.CreateGroupAndChat(ctx, game.ID, room.name, true, nil, room.settings, false)
		if err != nil {
			return nil, err
		}
		if room.admin {
			game.AdminGroupID = group.ID
		}
	}

	// 2. Managed rewards
	game.InfectRewardID, game.DeclareRewardID, err = s.Rewards.CreateManagedRewards(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	// 3. Figurehead admin; never synced, only added to rooms explicitly
	admin := models.NewPlayer(utils.NewID("player", models.FigureheadAdminName), "", models.FigureheadAdminName)
	if err := s.Store.Players.Set(ctx, game.ID, admin.ID, admin); err != nil {
		return nil, fmt.Errorf("save figurehead admin: %w", err)
	}
	game.FigureheadAdminPlayerID = admin.ID

	if err := s.Store.SaveGame(ctx, game); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	log.Printf("✅ Created game %q (%s) for creator %s", game.Name, game.ID, game.CreatorUserID)
	return game, nil
}

// JoinGame creates the user's player, numbered in join order, and puts it in
// the rooms an undeclared player belongs to.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	}
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "player name is required")
	}

	existing, err := s.Store.Players.Where(ctx, gameID, store.Equal(userID, "userId"))
	if err != nil {
		return nil, fmt.Errorf("look up player for user %s: %w", userID, err)
	}
	if len(existing) > 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeAlreadyExists,
			"user has already joined this game",
			map[string]string{"user_id": userID, "player_id": existing[0].ID})
	}

	number := 0
	if _, err := s.Store.UpdateGame(ctx, gameID, func(g *models.Game) error {
		if g.NextPlayerNumber < models.FirstPlayerNumber {
			g.NextPlayerNumber = models.FirstPlayerNumber
		}
		number = g.NextPlayerNumber
		g.NextPlayerNumber++
		return nil
	}); err != nil {
		return nil, notFound("game", gameID, err)
	}

	player := models.NewPlayer(utils.NewID("player", name), userID, name)
	player.Number = number
	if err := s.Store.Players.Set(ctx, gameID, player.ID, player); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	log.Printf("✅ %s joined game %s as #%d (%s)", userID, gameID, number, player.ID)

	if err := s.Membership.BootstrapCreator(ctx, gameID, player); err != nil {
		return nil, err
	}
	if err := s.Membership.UpdateMembershipOnAllegianceChange(ctx, gameID, player.ID); err != nil {
		return nil, err
	}
	return loadPlayer(ctx, s.Store, gameID, player.ID)
}

func (s *GameService) Game(ctx context.Context, gameID string) (*models.Game, error) {
	return loadGame(ctx, s.Store, gameID)
}

func (s *GameService) Player(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	return loadPlayer(ctx, s.Store, gameID, playerID)
}

// ListGames returns every game ordered by start time.
func (s *GameService) ListGames(ctx context.Context) ([]GameSummary, error) {
	games, err := s.Store.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, GameSummary{ID: g.ID, Name: g.Name, StartTime: g.StartTime, EndTime: g.EndTime})
	}
	slices.SortStableFunc(out, func(a, b GameSummary) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}
