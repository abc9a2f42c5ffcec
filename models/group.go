package models

import "slices"

// GroupSettings controls who may edit a group and whether the system keeps
// its membership in line with AllegianceFilter.
type GroupSettings struct {
	CanAddSelf       bool             `json:"canAddSelf"`
	CanAddOthers     bool             `json:"canAddOthers"`
	CanRemoveSelf    bool             `json:"canRemoveSelf"`
	CanRemoveOthers  bool             `json:"canRemoveOthers"`
	AutoAdd          bool             `json:"autoAdd"`
	AutoRemove       bool             `json:"autoRemove"`
	AllegianceFilter AllegianceFilter `json:"allegianceFilter"`
}

// Group is a membership list. Managed groups are owned by the system and have
// no owners; chat rooms and missions derive their audience from a group.
type Group struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Managed  bool          `json:"managed"`
	Owners   []string      `json:"owners"`
	Members  []string      `json:"members"`
	Settings GroupSettings `json:"settings"`
}

// GlobalGroupSettings are used by the Global, Resistance and Horde rooms.
func GlobalGroupSettings(filter AllegianceFilter) GroupSettings {
	return GroupSettings{
		AutoAdd:          true,
		AutoRemove:       true,
		AllegianceFilter: filter,
	}
}

// AdminGroupSettings are used by the Admins room: hand-curated, no filter.
func AdminGroupSettings() GroupSettings {
	return GroupSettings{
		CanRemoveSelf:    true,
		CanRemoveOthers:  true,
		AllegianceFilter: FilterNone,
	}
}

// PlayerChatSettings are used by chat rooms players create themselves.
func PlayerChatSettings(filter AllegianceFilter) GroupSettings {
	return GroupSettings{
		CanAddSelf:       true,
		CanAddOthers:     true,
		CanRemoveSelf:    true,
		CanRemoveOthers:  true,
		AutoRemove:       filter.Restricts(),
		AllegianceFilter: filter,
	}
}

// AdminContactSettings are used by a player's private room with the admins.
func AdminContactSettings() GroupSettings {
	return GroupSettings{
		CanAddSelf:       true,
		CanRemoveSelf:    true,
		AllegianceFilter: FilterNone,
	}
}

// MissionGroupSettings are used by mission access groups.
func MissionGroupSettings(filter AllegianceFilter) GroupSettings {
	return GroupSettings{
		AutoAdd:          true,
		AutoRemove:       filter.Restricts(),
		AllegianceFilter: filter,
	}
}

func (g *Group) HasMember(playerID string) bool {
	return slices.Contains(g.Members, playerID)
}

func (g *Group) HasOwner(playerID string) bool {
	return slices.Contains(g.Owners, playerID)
}

// AddMember inserts playerID if absent and reports whether it changed anything.
func (g *Group) AddMember(playerID string) bool {
	if g.HasMember(playerID) {
		return false
	}
	g.Members = append(g.Members, playerID)
	return true
}

// RemoveMember deletes playerID if present and reports whether it changed anything.
func (g *Group) RemoveMember(playerID string) bool {
	i := slices.Index(g.Members, playerID)
	if i < 0 {
		return false
	}
	g.Members = slices.Delete(g.Members, i, i+1)
	return true
}

func (g *Group) AddOwner(playerID string) bool {
	if g.HasOwner(playerID) {
		return false
	}
	g.Owners = append(g.Owners, playerID)
	return true
}

func (g *Group) RemoveOwner(playerID string) bool {
	i := slices.Index(g.Owners, playerID)
	if i < 0 {
		return false
	}
	g.Owners = slices.Delete(g.Owners, i, i+1)
	return true
}
