package models

import "time"

// Life is one entry of a player's life-code ledger.
type Life struct {
	Code     string    `json:"lifeCode"`
	IsActive bool      `json:"isActive"`
	Created  time.Time `json:"created"`
}

// ChatMembership holds a player's per-room view flags. Membership itself is
// derived from the room's group.
type ChatMembership struct {
	IsVisible          bool `json:"isVisible"`
	AllowNotifications bool `json:"allowNotifications"`
}

// Player is the per-game record of a user. The figurehead admin player has
// an empty UserID.
type Player struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Number     int        `json:"number"`
	Allegiance Allegiance `json:"allegiance"`
	Points     int        `json:"points"`

	Lives               map[string]Life           `json:"lives"`
	ChatRoomMemberships map[string]ChatMembership `json:"chatRoomMemberships"`
	Rewards             map[string]int            `json:"rewards"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewPlayer returns an undeclared player with empty ledgers.
func NewPlayer(id, userID, name string) *Player {
	return &Player{
		ID:                  id,
		UserID:              userID,
		Name:                name,
		Allegiance:          AllegianceUndeclared,
		Lives:               map[string]Life{},
		ChatRoomMemberships: map[string]ChatMembership{},
		Rewards:             map[string]int{},
		CreatedAt:           time.Now(),
	}
}

// EnsureMaps initialises nil maps so decoded documents can be mutated safely.
func (p *Player) EnsureMaps() {
	if p.Lives == nil {
		p.Lives = map[string]Life{}
	}
	if p.ChatRoomMemberships == nil {
		p.ChatRoomMemberships = map[string]ChatMembership{}
	}
	if p.Rewards == nil {
		p.Rewards = map[string]int{}
	}
}

// HasActiveLife reports whether any life entry is still active.
func (p *Player) HasActiveLife() bool {
	for _, life := range p.Lives {
		if life.IsActive {
			return true
		}
	}
	return false
}

// ActiveLifeCount returns the number of unused life codes.
func (p *Player) ActiveLifeCount() int {
	n := 0
	for _, life := range p.Lives {
		if life.IsActive {
			n++
		}
	}
	return n
}
