// models/game.go
package models

import (
	"time"
)

// Names of the rooms every game is created with.
const (
	GlobalChatName     = "Global Chat"
	AdminChatName      = "Admins"
	ResistanceChatName = "Resistance Chat"
	HordeChatName      = "Horde Chat"

	FigureheadAdminName = "HvZ CDC"
)

// FirstPlayerNumber is the number handed to the first player who joins a game.
const FirstPlayerNumber = 101

// Game is the tenant root; every other document lives under games/{id}.
type Game struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatorUserID string    `json:"creatorUserId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`

	// 🔗 Managed entities created with the game
	AdminGroupID            string `json:"adminGroupId"`
	AdminOnCallPlayerID     string `json:"adminOnCallPlayerId,omitempty"`
	FigureheadAdminPlayerID string `json:"figureheadAdminPlayerId"`
	InfectRewardID          string `json:"infectRewardId"`
	DeclareRewardID         string `json:"declareRewardId"`

	// Next join-order number to hand out (see FirstPlayerNumber).
	NextPlayerNumber int `json:"nextPlayerNumber"`

	CreatedAt time.Time `json:"createdAt"`
}
