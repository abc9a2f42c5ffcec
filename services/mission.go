// services/mission.go
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

type MissionService struct {
	Store      *store.Store
	Groups     *GroupService
	Membership *MembershipService
}

func NewMissionService(st *store.Store, groups *GroupService, membership *MembershipService) *MissionService {
	return &MissionService{Store: st, Groups: groups, Membership: membership}
}

type CreateMissionRequest struct {
	Name             string                  `json:"name"`
	StartTime        time.Time               `json:"startTime"`
	EndTime          time.Time               `json:"endTime"`
	Details          string                  `json:"details"`
	AllegianceFilter models.AllegianceFilter `json:"allegianceFilter"`
}

// CreateMission creates the mission with a managed access group and fills
// the group with every admitted player.
func (s *MissionService) CreateMission(ctx context.Context, gameID string, req CreateMissionRequest) (*models.Mission, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "mission name is required")
	}
	if !req.EndTime.IsZero() && req.EndTime.Before(req.StartTime) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "mission ends before it starts")
	}
	filter, err := validateFilter(req.AllegianceFilter)
	if err != nil {
		return nil, err
	}
	if _, err := loadGame(ctx, s.Store, gameID); err != nil {
		return nil, err
	}

	group, err := s.Groups.CreateGroup(ctx, gameID, "Mission: "+name, true, nil, models.MissionGroupSettings(filter))
	if err != nil {
		return nil, err
	}
	mission := &models.Mission{
		ID:               utils.NewID("mission", name),
		Name:             name,
		AccessGroupID:    group.ID,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Details:          req.Details,
		AllegianceFilter: filter,
	}
	if err := s.Store.Missions.Set(ctx, gameID, mission.ID, mission); err != nil {
		return nil, fmt.Errorf("save mission: %w", err)
	}
	if err := s.Membership.ResyncGroup(ctx, gameID, group.ID); err != nil {
		return nil, err
	}
	log.Printf("[MISSION] created %q (%s) for %s", name, mission.ID, filter)
	return mission, nil
}

// DeleteMission removes the mission and its access group.
func (s *MissionService) DeleteMission(ctx context.Context, gameID, missionID string) error {
	mission, err := s.Store.Missions.Get(ctx, gameID, missionID)
	if err != nil {
		return notFound("mission", missionID, err)
	}
	if err := s.Store.Missions.Delete(ctx, gameID, missionID); err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	if err := s.Store.Groups.Delete(ctx, gameID, mission.AccessGroupID); err != nil {
		return fmt.Errorf("delete mission group: %w", err)
	}
	log.Printf("[MISSION] deleted %s", missionID)
	return nil
}

// ListMissions returns the missions the player can see, soonest ending first.
func (s *MissionService) ListMissions(ctx context.Context, gameID, playerID string) ([]*models.Mission, error) {
	if _, err := loadPlayer(ctx, s.Store, gameID, playerID); err != nil {
		return nil, err
	}
	groups, err := s.Store.Groups.Where(ctx, gameID, store.ArrayContains(playerID, "members"))
	if err != nil {
		return nil, fmt.Errorf("list groups of %s: %w", playerID, err)
	}
	member := make(map[string]bool, len(groups))
	for _, g := range groups {
		member[g.ID] = true
	}

	all, err := s.Store.Missions.List(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	var out []*models.Mission
	for _, m := range all {
		if member[m.AccessGroupID] {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Mission) int {
		return a.EndTime.Compare(b.EndTime)
	})
	return out, nil
}

// LatestMission is the visible mission that ends last.
func (s *MissionService) LatestMission(ctx context.Context, gameID, playerID string) (*models.Mission, error) {
	missions, err := s.ListMissions(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	if len(missions) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "no missions available")
	}
	return missions[len(missions)-1], nil
}
