// services/container.go
package services

import "github.com/SquirrelThief/playhvz/store"

// Container wires the game services over one store.
type Container struct {
	Store      *store.Store
	Games      *GameService
	Groups     *GroupService
	Membership *MembershipService
	Allegiance *AllegianceService
	Chats      *ChatService
	Missions   *MissionService
	Rewards    *RewardService
}

func NewContainer(st *store.Store, syncMaxRetries uint) *Container {
	groups := NewGroupService(st)
	membership := NewMembershipService(st, groups, syncMaxRetries)
	rewards := NewRewardService(st)
	return &Container{
		Store:      st,
		Games:      NewGameService(st, groups, membership, rewards),
		Groups:     groups,
		Membership: membership,
		Allegiance: NewAllegianceService(st, membership, rewards),
		Chats:      NewChatService(st, groups),
		Missions:   NewMissionService(st, groups, membership),
		Rewards:    rewards,
	}
}
