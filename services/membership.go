// services/membership.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/cenkalti/backoff/v5"
)

// DefaultSyncMaxRetries is used when MembershipService.MaxRetries is zero.
const DefaultSyncMaxRetries = 3

// MembershipService keeps auto-managed groups in line with player
// allegiances. Every pass re-reads the player and the groups, so running it
// again after a partial failure converges on the same state.
type MembershipService struct {
	Store      *store.Store
	Groups     *GroupService
	MaxRetries uint
}

func NewMembershipService(st *store.Store, groups *GroupService, maxRetries uint) *MembershipService {
	return &MembershipService{Store: st, Groups: groups, MaxRetries: maxRetries}
}

// UpdateMembershipOnAllegianceChange removes the player from auto-remove
// groups whose filter they now fail, then adds them to auto-add groups whose
// filter they now pass.
func (s *MembershipService) UpdateMembershipOnAllegianceChange(ctx context.Context, gameID, playerID string) error {
	return s.retry(ctx, "player "+playerID, func() error {
		player, err := loadPlayer(ctx, s.Store, gameID, playerID)
		if err != nil {
			return err
		}
		if player.UserID == "" {
			// the figurehead admin is only ever added explicitly
			log.Printf("[SYNC] skipped figurehead %s", player.ID)
			return nil
		}
		groups, err := s.Store.Groups.List(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		if err := s.removePhase(ctx, gameID, player, groups); err != nil {
			return err
		}
		if err := s.addPhase(ctx, gameID, player, groups); err != nil {
			return err
		}
		return s.repairChatEntries(ctx, gameID, player.ID)
	})
}

// repairChatEntries makes the player's chat entries match their group
// memberships again after a crash between the group write and the player
// write. Members missing an entry get the default one; non-members lose
// theirs, except for rooms with the admins, which are only ever hidden.
func (s *MembershipService) repairChatEntries(ctx context.Context, gameID, playerID string) error {
	groups, err := s.Store.Groups.Where(ctx, gameID, store.ArrayContains(playerID, "members"))
	if err != nil {
		return fmt.Errorf("list groups of %s: %w", playerID, err)
	}
	member := make(map[string]bool, len(groups))
	for _, g := range groups {
		member[g.ID] = true
	}
	rooms, err := s.Store.ChatRooms.List(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list chat rooms: %w", err)
	}

	_, err = s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		p.EnsureMaps()
		changed := false
		for _, room := range rooms {
			_, has := p.ChatRoomMemberships[room.ID]
			switch {
			case member[room.AssociatedGroupID] && !has:
				p.ChatRoomMemberships[room.ID] = models.DefaultChatMembership()
				log.Printf("[SYNC] 🩹 restored chat entry %s for %s", room.ID, playerID)
				changed = true
			case !member[room.AssociatedGroupID] && has && !room.WithAdmins:
				delete(p.ChatRoomMemberships, room.ID)
				log.Printf("[SYNC] 🩹 dropped stale chat entry %s for %s", room.ID, playerID)
				changed = true
			}
		}
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return notFound("player", playerID, err)
	}
	return nil
}

func (s *MembershipService) removePhase(ctx context.Context, gameID string, player *models.Player, groups []*models.Group) error {
	for _, g := range groups {
		if !shouldAutoRemove(g, player) {
			continue
		}
		if _, err := s.Groups.removePlayer(ctx, gameID, g.ID, player.ID); err != nil {
			return fmt.Errorf("auto-remove %s from %s: %w", player.ID, g.ID, err)
		}
		log.Printf("[SYNC] removed %s (%s) from %q", player.ID, player.Allegiance, g.Name)
	}
	return nil
}

func (s *MembershipService) addPhase(ctx context.Context, gameID string, player *models.Player, groups []*models.Group) error {
	for _, g := range groups {
		if !shouldAutoAdd(g, player) {
			continue
		}
		_, err := s.Groups.addPlayer(ctx, gameID, g.ID, player, false)
		if errors.Is(err, apperrors.ErrAllegianceFilter) {
			// filter changed since the group list was read
			log.Printf("[SYNC] skipped %q for %s: %v", g.Name, player.ID, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("auto-add %s to %s: %w", player.ID, g.ID, err)
		}
		log.Printf("[SYNC] added %s (%s) to %q", player.ID, player.Allegiance, g.Name)
	}
	return nil
}

func shouldAutoRemove(g *models.Group, p *models.Player) bool {
	return g.Settings.AutoRemove &&
		g.Settings.AllegianceFilter.Restricts() &&
		!g.Settings.AllegianceFilter.Admits(p.Allegiance) &&
		g.HasMember(p.ID)
}

func shouldAutoAdd(g *models.Group, p *models.Player) bool {
	return g.Settings.AutoAdd &&
		g.Settings.AllegianceFilter.Admits(p.Allegiance) &&
		!g.HasMember(p.ID)
}

// ResyncGroup applies the same two phases to every player against one group,
// used after a group is created or its settings change.
func (s *MembershipService) ResyncGroup(ctx context.Context, gameID, groupID string) error {
	return s.retry(ctx, "group "+groupID, func() error {
		group, err := loadGroup(ctx, s.Store, gameID, groupID)
		if err != nil {
			return err
		}
		players, err := s.Store.Players.List(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		for _, p := range players {
			if shouldAutoRemove(group, p) {
				if _, err := s.Groups.removePlayer(ctx, gameID, groupID, p.ID); err != nil {
					return err
				}
			}
		}
		for _, p := range players {
			if p.UserID == "" {
				// the figurehead admin is only ever added explicitly
				continue
			}
			if shouldAutoAdd(group, p) {
				if _, err := s.Groups.addPlayer(ctx, gameID, groupID, p, false); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// UpdateGroupSettings writes new settings and resyncs the group.
func (s *MembershipService) UpdateGroupSettings(ctx context.Context, gameID, groupID string, settings models.GroupSettings) (*models.Group, error) {
	filter, err := validateFilter(settings.AllegianceFilter)
	if err != nil {
		return nil, err
	}
	settings.AllegianceFilter = filter

	if _, err := s.Store.Groups.Update(ctx, gameID, groupID, func(g *models.Group) error {
		g.Settings = settings
		return nil
	}); err != nil {
		return nil, notFound("group", groupID, err)
	}
	if err := s.ResyncGroup(ctx, gameID, groupID); err != nil {
		return nil, err
	}
	return loadGroup(ctx, s.Store, gameID, groupID)
}

// BootstrapCreator makes the game creator's player an owner and member of the
// admin group and the default on-call admin. Other players are left alone.
func (s *MembershipService) BootstrapCreator(ctx context.Context, gameID string, player *models.Player) error {
	game, err := loadGame(ctx, s.Store, gameID)
	if err != nil {
		return err
	}
	if player.UserID == "" || player.UserID != game.CreatorUserID || game.AdminGroupID == "" {
		return nil
	}

	if _, err := s.Groups.addPlayer(ctx, gameID, game.AdminGroupID, player, false); err != nil {
		return err
	}
	if _, err := s.Store.Groups.Update(ctx, gameID, game.AdminGroupID, func(g *models.Group) error {
		if !g.AddOwner(player.ID) {
			return store.ErrNoChange
		}
		return nil
	}); err != nil {
		return notFound("group", game.AdminGroupID, err)
	}
	if _, err := s.Store.UpdateGame(ctx, gameID, func(g *models.Game) error {
		if g.AdminOnCallPlayerID != "" {
			return store.ErrNoChange
		}
		g.AdminOnCallPlayerID = player.ID
		return nil
	}); err != nil {
		return notFound("game", gameID, err)
	}
	log.Printf("[SYNC] 👑 creator %s bootstrapped as admin of game %s", player.ID, gameID)
	return nil
}

// retry re-runs op with exponential backoff. Domain errors are returned
// immediately since re-reading state cannot change their outcome.
func (s *MembershipService) retry(ctx context.Context, what string, op func() error) error {
	tries := s.MaxRetries
	if tries == 0 {
		tries = DefaultSyncMaxRetries
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if apperrors.IsDomain(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		log.Printf("[SYNC] ⚠️ sync of %s failed (attempt %d/%d): %v", what, attempt, tries, err)
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(tries))
	if err != nil {
		return fmt.Errorf("sync %s: %w", what, err)
	}
	return nil
}
