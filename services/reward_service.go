// services/reward_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/SquirrelThief/playhvz/utils"
)

// MaxClaimCodesPerRequest caps GenerateClaimCodes.
const MaxClaimCodesPerRequest = 500

type RewardService struct {
	Store *store.Store
}

func NewRewardService(st *store.Store) *RewardService {
	return &RewardService{Store: st}
}

type CreateRewardRequest struct {
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Points      int    `json:"points"`
}

// RedeemResult reports a redemption. Redeemed is false when the code had
// already been claimed.
type RedeemResult struct {
	RewardID  string `json:"rewardId"`
	ClaimCode string `json:"claimCode"`
	Redeemed  bool   `json:"redeemed"`
	Points    int    `json:"points"`
}

// rewardID is derived from the short name so the reward document itself
// enforces short-name uniqueness.
func rewardID(shortName string) string {
	return "reward-" + shortName
}

// --- Admin operations ---

// CreateReward creates a player-facing reward.
func (s *RewardService) CreateReward(ctx context.Context, gameID string, req CreateRewardRequest) (*models.Reward, error) {
	return s.createReward(ctx, gameID, req, false)
}

func (s *RewardService) createReward(ctx context.Context, gameID string, req CreateRewardRequest, managed bool) (*models.Reward, error) {
	shortName := strings.ToLower(strings.TrimSpace(req.ShortName))
	if err := validateShortName(shortName); err != nil {
		return nil, err
	}
	if req.Points < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "reward points must not be negative")
	}

	reward := &models.Reward{
		ID:          rewardID(shortName),
		ShortName:   shortName,
		LongName:    req.LongName,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Points:      req.Points,
		Managed:     managed,
		CreatedAt:   time.Now(),
	}
	_, err := s.Store.Rewards.Upsert(ctx, gameID, reward.ID, func(r *models.Reward, exists bool) error {
		if exists {
			return apperrors.WithMetadata(apperrors.CodeAlreadyExists,
				fmt.Sprintf("reward %q already exists", shortName),
				map[string]string{"short_name": shortName})
		}
		*r = *reward
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[REWARD] created reward %q (%d points) in game %s", shortName, reward.Points, gameID)
	return reward, nil
}

func validateShortName(shortName string) error {
	if shortName == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "reward short name is required")
	}
	for _, r := range shortName {
		if r == '-' {
			return apperrors.New(apperrors.CodeInvalidArgument, "reward short name must not contain dashes")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return apperrors.New(apperrors.CodeInvalidArgument,
				fmt.Sprintf("reward short name contains invalid character %q", r))
		}
	}
	return nil
}

// CreateManagedRewards creates the infect and declare rewards every game has.
func (s *RewardService) CreateManagedRewards(ctx context.Context, gameID string) (infectID, declareID string, err error) {
	infect, err := s.createReward(ctx, gameID, CreateRewardRequest{
		ShortName:   models.InfectRewardShortName,
		LongName:    "Infected a human",
		Description: "Awarded for every successful infection.",
		Points:      models.InfectRewardPoints,
	}, true)
	if err != nil {
		return "", "", err
	}
	declare, err := s.createReward(ctx, gameID, CreateRewardRequest{
		ShortName:   models.DeclareRewardShortName,
		LongName:    "Declared allegiance",
		Description: "Awarded for declaring an allegiance.",
		Points:      models.DeclareRewardPoints,
	}, true)
	if err != nil {
		return "", "", err
	}
	return infect.ID, declare.ID, nil
}

// GenerateClaimCodes creates count unredeemed codes of the form
// "<shortName>-<token>".
func (s *RewardService) GenerateClaimCodes(ctx context.Context, gameID, rewardID string, count int) ([]string, error) {
	if count <= 0 || count > MaxClaimCodesPerRequest {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("count must be between 1 and %d", MaxClaimCodesPerRequest))
	}
	reward, err := s.Store.Rewards.Get(ctx, gameID, rewardID)
	if err != nil {
		return nil, notFound("reward", rewardID, err)
	}

	codes := s.Store.ClaimCodes(reward.ID)
	out := make([]string, 0, count)
	for range count {
		code := reward.ShortName + "-" + utils.ShortToken()
		claim := &models.ClaimCode{ID: code, Code: code, RewardID: reward.ID}
		if err := codes.Set(ctx, gameID, code, claim); err != nil {
			return nil, fmt.Errorf("save claim code: %w", err)
		}
		out = append(out, code)
	}
	log.Printf("[REWARD] generated %d claim codes for %q", count, reward.ShortName)
	return out, nil
}

// --- Player operations ---

// RedeemRewardCode credits the reward to the player. The first redemption of
// a code wins; later ones report Redeemed=false and change nothing.
func (s *RewardService) RedeemRewardCode(ctx context.Context, gameID, playerID, claimCode string) (*RedeemResult, error) {
	code := sanitizeClaimCode(claimCode)
	shortName, rest, ok := strings.Cut(code, "-")
	if !ok || shortName == "" || rest == "" || strings.Contains(code, "/") {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "malformed claim code")
	}

	reward, err := s.Store.Rewards.Get(ctx, gameID, rewardID(shortName))
	if err != nil {
		return nil, notFound("reward", shortName, err)
	}
	if _, err := loadPlayer(ctx, s.Store, gameID, playerID); err != nil {
		return nil, err
	}

	// Codes naming the redeemer are minted on first use.
	secondSegment, _, _ := strings.Cut(rest, "-")
	onTheFly := secondSegment == sanitizeID(playerID)

	redeemed := false
	now := time.Now()
	_, err = s.Store.ClaimCodes(reward.ID).Upsert(ctx, gameID, code, func(c *models.ClaimCode, exists bool) error {
		redeemed = false
		if !exists {
			if !onTheFly {
				return apperrors.WithMetadata(apperrors.CodeNotFound,
					"claim code not found", map[string]string{"claim_code": code})
			}
			*c = models.ClaimCode{ID: code, Code: code, RewardID: reward.ID}
		}
		if c.Redeemed() {
			return store.ErrNoChange
		}
		c.Redeemer = playerID
		c.Timestamp = &now
		redeemed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RedeemResult{RewardID: reward.ID, ClaimCode: code, Redeemed: redeemed}
	if !redeemed {
		log.Printf("[REWARD] claim code %s already redeemed, ignoring", code)
		return result, nil
	}

	_, err = s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		p.EnsureMaps()
		p.Points += reward.Points
		p.Rewards[reward.ID]++
		return nil
	})
	if err != nil {
		return nil, notFound("player", playerID, err)
	}
	result.Points = reward.Points
	log.Printf("[REWARD] 🏅 %s redeemed %s for %d points", playerID, code, reward.Points)
	return result, nil
}

// GiveRewardForInfecting redeems the game's infect reward for the infector
// under a claim code derived from nonce, so replaying an infection is a no-op.
func (s *RewardService) GiveRewardForInfecting(ctx context.Context, gameID, infectorPlayerID, nonce string) (string, error) {
	game, err := loadGame(ctx, s.Store, gameID)
	if err != nil {
		return "", err
	}
	if game.InfectRewardID == "" {
		return "", apperrors.New(apperrors.CodeInvalidState, "game has no infect reward")
	}
	reward, err := s.Store.Rewards.Get(ctx, gameID, game.InfectRewardID)
	if err != nil {
		return "", notFound("reward", game.InfectRewardID, err)
	}

	code := fmt.Sprintf("%s-%s-%s", reward.ShortName, sanitizeID(infectorPlayerID), nonce)
	if _, err := s.RedeemRewardCode(ctx, gameID, infectorPlayerID, code); err != nil {
		return "", err
	}
	return code, nil
}

func sanitizeClaimCode(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), ""))
}

func sanitizeID(id string) string {
	return strings.ToLower(utils.StripDashes(id))
}
