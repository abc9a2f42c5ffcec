// services/chat.go
package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
)

type ChatService struct {
	Store  *store.Store
	Groups *GroupService
}

func NewChatService(st *store.Store, groups *GroupService) *ChatService {
	return &ChatService{Store: st, Groups: groups}
}

// CreateChatRoom creates a player-owned room. Rooms with a filter drop
// members who stop matching it.
func (s *ChatService) CreateChatRoom(ctx context.Context, gameID, ownerPlayerID, name string, filter models.AllegianceFilter) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "chat room name is required")
	}
	filter, err := validateFilter(filter)
	if err != nil {
		return nil, err
	}
	owner, err := loadPlayer(ctx, s.Store, gameID, ownerPlayerID)
	if err != nil {
		return nil, err
	}
	if !filter.Admits(owner.Allegiance) {
		return nil, apperrors.WithMetadata(apperrors.CodeAllegianceFilter,
			fmt.Sprintf("owner allegiance %s does not satisfy filter %q", owner.Allegiance, filter),
			map[string]string{"player_id": owner.ID})
	}

	group, chat, err := s.Groups.CreateGroupAndChat(ctx, gameID, name, false,
		[]string{owner.ID}, models.PlayerChatSettings(filter), false)
	if err != nil {
		return nil, err
	}
	if _, err := s.Groups.addPlayer(ctx, gameID, group.ID, owner, false); err != nil {
		return nil, err
	}
	return chat, nil
}

// CreateOrGetChatWithAdmin returns the player's room with the admins,
// creating it on first use. An existing room is made visible again and the
// admin's membership refreshed.
func (s *ChatService) CreateOrGetChatWithAdmin(ctx context.Context, gameID, playerID string) (string, error) {
	game, err := loadGame(ctx, s.Store, gameID)
	if err != nil {
		return "", err
	}
	player, err := loadPlayer(ctx, s.Store, gameID, playerID)
	if err != nil {
		return "", err
	}
	admin, err := loadPlayer(ctx, s.Store, gameID, game.FigureheadAdminPlayerID)
	if err != nil {
		return "", err
	}

	existing, err := s.adminRoomOf(ctx, gameID, player)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if _, err := s.Store.Players.Update(ctx, gameID, player.ID, func(p *models.Player) error {
			p.EnsureMaps()
			m, ok := p.ChatRoomMemberships[existing.ID]
			if !ok {
				m = models.DefaultChatMembership()
			}
			m.IsVisible = true
			p.ChatRoomMemberships[existing.ID] = m
			return nil
		}); err != nil {
			return "", notFound("player", player.ID, err)
		}
		if _, err := s.Groups.addPlayer(ctx, gameID, existing.AssociatedGroupID, admin, true); err != nil {
			return "", err
		}
		log.Printf("[CHAT] reopened admin chat %s for %s", existing.ID, player.ID)
		return existing.ID, nil
	}

	group, chat, err := s.Groups.CreateGroupAndChat(ctx, gameID,
		player.Name+" & "+models.FigureheadAdminName, false,
		[]string{player.ID}, models.AdminContactSettings(), true)
	if err != nil {
		return "", err
	}
	if _, err := s.Groups.addPlayer(ctx, gameID, group.ID, player, false); err != nil {
		return "", err
	}
	if err := s.AddPlayersToChat(ctx, gameID, group.ID, chat.ID, []string{admin.ID}); err != nil {
		return "", err
	}
	log.Printf("[CHAT] created admin chat %s for %s", chat.ID, player.ID)
	return chat.ID, nil
}

// adminRoomOf finds the withAdmins room among the player's memberships.
func (s *ChatService) adminRoomOf(ctx context.Context, gameID string, player *models.Player) (*models.ChatRoom, error) {
	ids := make([]string, 0, len(player.ChatRoomMemberships))
	for id := range player.ChatRoomMemberships {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		chat, err := s.Store.ChatRooms.Get(ctx, gameID, id)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chat room %s: %w", id, err)
		}
		if chat.WithAdmins {
			return chat, nil
		}
	}
	return nil, nil
}

// AddPlayersToChat adds players to the room's group and refreshes their chat
// flags even if they were already members.
func (s *ChatService) AddPlayersToChat(ctx context.Context, gameID, groupID, chatRoomID string, playerIDs []string) error {
	chat, err := loadChatRoom(ctx, s.Store, gameID, chatRoomID)
	if err != nil {
		return err
	}
	if chat.AssociatedGroupID != groupID {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			fmt.Sprintf("chat room %s is not backed by group %s", chatRoomID, groupID),
			map[string]string{"chat_room_id": chatRoomID, "group_id": groupID})
	}
	for _, playerID := range playerIDs {
		player, err := loadPlayer(ctx, s.Store, gameID, playerID)
		if err != nil {
			return err
		}
		if _, err := s.Groups.addPlayer(ctx, gameID, groupID, player, true); err != nil {
			return err
		}
	}
	return nil
}

// RemovePlayerFromChat leaves the room's group. The room with the admins is
// only hidden: the player stays in its group and keeps the history.
func (s *ChatService) RemovePlayerFromChat(ctx context.Context, gameID, playerID, chatRoomID string) error {
	chat, err := loadChatRoom(ctx, s.Store, gameID, chatRoomID)
	if err != nil {
		return err
	}
	if !chat.WithAdmins {
		return s.Groups.RemovePlayerFromGroup(ctx, gameID, chat.AssociatedGroupID, playerID)
	}

	_, err = s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		m, ok := p.ChatRoomMemberships[chat.ID]
		if !ok || !m.IsVisible {
			return store.ErrNoChange
		}
		m.IsVisible = false
		p.ChatRoomMemberships[chat.ID] = m
		return nil
	})
	if err != nil {
		return notFound("player", playerID, err)
	}
	log.Printf("[CHAT] %s hid admin chat %s", playerID, chat.ID)
	return nil
}
