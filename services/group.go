// services/group.go
package services

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/SquirrelThief/playhvz/utils"
)

// GroupService owns group membership and its cascade into chat rooms: being
// in a group is what makes its chat room visible to a player.
type GroupService struct {
	Store *store.Store
}

func NewGroupService(st *store.Store) *GroupService {
	return &GroupService{Store: st}
}

// CreateGroup writes a new group with the given owners and settings.
func (s *GroupService) CreateGroup(ctx context.Context, gameID, name string, managed bool, owners []string, settings models.GroupSettings) (*models.Group, error) {
	filter, err := validateFilter(settings.AllegianceFilter)
	if err != nil {
		return nil, err
	}
	settings.AllegianceFilter = filter
	if managed {
		owners = nil
	}

	group := &models.Group{
		ID:       utils.NewID("group", name),
		Name:     name,
		Managed:  managed,
		Owners:   append([]string{}, owners...),
		Members:  []string{},
		Settings: settings,
	}
	if err := s.Store.Groups.Set(ctx, gameID, group.ID, group); err != nil {
		return nil, fmt.Errorf("create group %q: %w", name, err)
	}
	return group, nil
}

// CreateGroupAndChat creates a group and the chat room backed by it.
func (s *GroupService) CreateGroupAndChat(ctx context.Context, gameID, name string, managed bool, owners []string, settings models.GroupSettings, withAdmins bool) (*models.Group, *models.ChatRoom, error) {
	group, err := s.CreateGroup(ctx, gameID, name, managed, owners, settings)
	if err != nil {
		return nil, nil, err
	}
	chat := &models.ChatRoom{
		ID:                utils.NewID("chat", name),
		Name:              name,
		AssociatedGroupID: group.ID,
		WithAdmins:        withAdmins,
	}
	if err := s.Store.ChatRooms.Set(ctx, gameID, chat.ID, chat); err != nil {
		return nil, nil, fmt.Errorf("create chat room %q: %w", name, err)
	}
	log.Printf("[CHAT] created %q (group=%s chat=%s managed=%t)", name, group.ID, chat.ID, managed)
	return group, chat, nil
}

// AddPlayersToGroup adds each player in order and stops at the first failure.
func (s *GroupService) AddPlayersToGroup(ctx context.Context, gameID, groupID string, playerIDs []string) error {
	for _, playerID := range playerIDs {
		if err := s.AddPlayerToGroup(ctx, gameID, groupID, playerID); err != nil {
			return err
		}
	}
	return nil
}

// AddPlayerToGroup is a no-op when the player is already a member.
func (s *GroupService) AddPlayerToGroup(ctx context.Context, gameID, groupID, playerID string) error {
	player, err := loadPlayer(ctx, s.Store, gameID, playerID)
	if err != nil {
		return err
	}
	_, err = s.addPlayer(ctx, gameID, groupID, player, false)
	return err
}

// addPlayer inserts player into the group and, when the group backs a chat
// room, gives the player a fresh membership entry for it. With refreshChat
// the chat entry is rewritten even if the player was already a member.
func (s *GroupService) addPlayer(ctx context.Context, gameID, groupID string, player *models.Player, refreshChat bool) (bool, error) {
	added := false
	_, err := s.Store.Groups.Update(ctx, gameID, groupID, func(g *models.Group) error {
		if !g.Settings.AllegianceFilter.Admits(player.Allegiance) {
			return apperrors.WithMetadata(apperrors.CodeAllegianceFilter,
				fmt.Sprintf("player %s (%s) does not satisfy filter %q of group %s",
					player.ID, player.Allegiance, g.Settings.AllegianceFilter, g.ID),
				map[string]string{"player_id": player.ID, "group_id": g.ID})
		}
		if !g.AddMember(player.ID) {
			return store.ErrNoChange
		}
		added = true
		return nil
	})
	if err != nil {
		return false, s.groupErr(groupID, err)
	}
	if !added && !refreshChat {
		return false, nil
	}
	if added {
		log.Printf("[CHAT] ➕ %s joined group %s", player.ID, groupID)
	}

	chat, err := s.ChatRoomForGroup(ctx, gameID, groupID)
	if err != nil || chat == nil {
		return added, err
	}
	_, err = s.Store.Players.Update(ctx, gameID, player.ID, func(p *models.Player) error {
		p.EnsureMaps()
		p.ChatRoomMemberships[chat.ID] = models.DefaultChatMembership()
		return nil
	})
	if err != nil {
		return added, notFound("player", player.ID, err)
	}
	return added, nil
}

// RemovePlayerFromGroup is a no-op when the player is not a member. A sole
// owner who leaves hands ownership to the best remaining member.
func (s *GroupService) RemovePlayerFromGroup(ctx context.Context, gameID, groupID, playerID string) error {
	if _, err := loadPlayer(ctx, s.Store, gameID, playerID); err != nil {
		return err
	}
	_, err := s.removePlayer(ctx, gameID, groupID, playerID)
	return err
}

func (s *GroupService) removePlayer(ctx context.Context, gameID, groupID, playerID string) (bool, error) {
	group, err := loadGroup(ctx, s.Store, gameID, groupID)
	if err != nil {
		return false, err
	}
	if !group.HasMember(playerID) {
		return false, nil
	}

	// Whether the player owns the group is decided under the group's lock;
	// owners always leave through SwitchGroupOwnership.
	owner := group.HasOwner(playerID)
	if !owner {
		_, err = s.Store.Groups.Update(ctx, gameID, groupID, func(g *models.Group) error {
			owner = g.HasOwner(playerID)
			if owner || !g.RemoveMember(playerID) {
				return store.ErrNoChange
			}
			return nil
		})
		if err != nil {
			return false, s.groupErr(groupID, err)
		}
	}
	if owner {
		if _, err := s.SwitchGroupOwnership(ctx, gameID, groupID, playerID); err != nil {
			return false, err
		}
	}
	log.Printf("[CHAT] ➖ %s left group %s", playerID, groupID)

	chat, err := s.ChatRoomForGroup(ctx, gameID, groupID)
	if err != nil || chat == nil {
		return true, err
	}
	_, err = s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		if _, ok := p.ChatRoomMemberships[chat.ID]; !ok {
			return store.ErrNoChange
		}
		delete(p.ChatRoomMemberships, chat.ID)
		return nil
	})
	if err != nil {
		return true, notFound("player", playerID, err)
	}
	return true, nil
}

// SwitchGroupOwnership removes the leaving owner from the group and, if no
// other owner remains, promotes the remaining member with the most points, the
// lower player number winning ties. Ownership is cleared when nobody remains.
func (s *GroupService) SwitchGroupOwnership(ctx context.Context, gameID, groupID, leavingOwnerID string) (string, error) {
	group, err := loadGroup(ctx, s.Store, gameID, groupID)
	if err != nil {
		return "", err
	}

	var candidates []*models.Player
	for _, memberID := range group.Members {
		if memberID == leavingOwnerID {
			continue
		}
		p, err := s.Store.Players.Get(ctx, gameID, memberID)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("load member %s: %w", memberID, err)
		}
		candidates = append(candidates, p)
	}
	rankOwnerCandidates(candidates)

	newOwner := ""
	stillOwned := false
	_, err = s.Store.Groups.Update(ctx, gameID, groupID, func(g *models.Group) error {
		newOwner, stillOwned = "", false
		g.RemoveMember(leavingOwnerID)
		g.RemoveOwner(leavingOwnerID)
		if len(g.Owners) > 0 {
			stillOwned = true
			return nil
		}
		for _, c := range candidates {
			if g.HasMember(c.ID) {
				newOwner = c.ID
				break
			}
		}
		if newOwner == "" {
			g.Owners = []string{}
			return nil
		}
		g.Owners = []string{newOwner}
		return nil
	})
	if err != nil {
		return "", s.groupErr(groupID, err)
	}

	switch {
	case stillOwned:
		log.Printf("[CHAT] owner %s left group %s, other owners remain", leavingOwnerID, groupID)
	case newOwner == "":
		log.Printf("[CHAT] 👑 group %s has no owner after %s left", groupID, leavingOwnerID)
	default:
		log.Printf("[CHAT] 👑 group %s ownership passed from %s to %s", groupID, leavingOwnerID, newOwner)
	}
	return newOwner, nil
}

// rankOwnerCandidates orders players by points descending, then by number
// ascending.
func rankOwnerCandidates(players []*models.Player) {
	slices.SortStableFunc(players, func(a, b *models.Player) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Number, b.Number); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ChatRoomForGroup returns the chat room backed by groupID, or nil.
func (s *GroupService) ChatRoomForGroup(ctx context.Context, gameID, groupID string) (*models.ChatRoom, error) {
	rooms, err := s.Store.ChatRooms.Where(ctx, gameID, store.Equal(groupID, "associatedGroupId"))
	if err != nil {
		return nil, fmt.Errorf("find chat room for group %s: %w", groupID, err)
	}
	switch len(rooms) {
	case 0:
		return nil, nil
	case 1:
		return rooms[0], nil
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeAmbiguousState,
			fmt.Sprintf("group %s backs %d chat rooms", groupID, len(rooms)),
			map[string]string{"group_id": groupID})
	}
}

func (s *GroupService) Group(ctx context.Context, gameID, groupID string) (*models.Group, error) {
	return loadGroup(ctx, s.Store, gameID, groupID)
}

func (s *GroupService) groupErr(groupID string, err error) error {
	if apperrors.IsDomain(err) {
		return err
	}
	return notFound("group", groupID, err)
}
