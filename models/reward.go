package models

import (
	"time"
)

// Short names and point values of the rewards every game is created with.
const (
	InfectRewardShortName  = "infect"
	InfectRewardPoints     = 50
	DeclareRewardShortName = "declare"
	DeclareRewardPoints    = 10
)

// Reward is redeemable through claim codes prefixed with its ShortName.
type Reward struct {
	ID          string    `json:"id"`
	ShortName   string    `json:"shortName"`
	LongName    string    `json:"longName"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Points      int       `json:"points"`
	Managed     bool      `json:"managed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClaimCode is redeemed at most once; Redeemer and Timestamp are set together.
type ClaimCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	RewardID  string     `json:"rewardId"`
	Redeemer  string     `json:"redeemer,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (c *ClaimCode) Redeemed() bool {
	return c.Redeemer != ""
}
