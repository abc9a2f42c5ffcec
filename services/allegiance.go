// services/allegiance.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/SquirrelThief/playhvz/utils"
)

// InfectionOutcome tells a caller what an infection attempt did.
type InfectionOutcome string

const (
	// OutcomeInfected means the victim's last life was consumed and they joined the horde.
	OutcomeInfected InfectionOutcome = "infected"
	// OutcomeLifeConsumed means the victim still has lives left.
	OutcomeLifeConsumed InfectionOutcome = "life_consumed"
	// OutcomeVictimNotHuman means the code belongs to a non-human and nothing changed.
	OutcomeVictimNotHuman InfectionOutcome = "victim_not_human"
)

type InfectionResult struct {
	Outcome        InfectionOutcome `json:"outcome"`
	VictimPlayerID string           `json:"victimPlayerId"`
	SelfInfection  bool             `json:"selfInfection"`
	ClaimCode      string           `json:"claimCode,omitempty"`
}

// InfectionRewarder grants the infector their reward. nonce identifies the
// infection so replays map to the same claim code.
type InfectionRewarder interface {
	GiveRewardForInfecting(ctx context.Context, gameID, infectorPlayerID, nonce string) (string, error)
}

// AllegianceService is the only writer of player allegiance.
type AllegianceService struct {
	Store      *store.Store
	Membership *MembershipService
	Rewards    InfectionRewarder
}

func NewAllegianceService(st *store.Store, membership *MembershipService, rewards InfectionRewarder) *AllegianceService {
	return &AllegianceService{Store: st, Membership: membership, Rewards: rewards}
}

// DeclareHuman gives the player a new life. Undeclared players become
// resistance; resistance players simply gain another life.
func (s *AllegianceService) DeclareHuman(ctx context.Context, gameID, playerID, lifeCode string) (*models.Player, error) {
	code := models.NormalizeLifeCode(lifeCode)
	if code == "" {
		code = newLifeCode()
	}

	holders, err := s.activeHolders(ctx, gameID, code)
	if err != nil {
		return nil, err
	}
	for _, h := range holders {
		if h.ID != playerID {
			return nil, apperrors.WithMetadata(apperrors.CodeAlreadyExists,
				"life code is already in use", map[string]string{"life_code": code})
		}
	}

	var previous models.Allegiance
	player, err := s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		previous = p.Allegiance
		if p.Allegiance == models.AllegianceHorde {
			return apperrors.WithMetadata(apperrors.CodeInvalidState,
				"a zombie cannot declare human", map[string]string{"player_id": p.ID})
		}
		p.EnsureMaps()
		if life, ok := p.Lives[code]; ok {
			if life.IsActive {
				return store.ErrNoChange
			}
			return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
				"life code has already been used", map[string]string{"life_code": code})
		}
		p.Lives[code] = models.Life{Code: code, IsActive: true, Created: time.Now()}
		if p.Allegiance == models.AllegianceUndeclared || p.Allegiance == "" {
			p.Allegiance = models.AllegianceResistance
		}
		return nil
	})
	if err != nil {
		return nil, playerErr(playerID, err)
	}

	if previous == models.AllegianceResistance {
		log.Printf("[ALLEGIANCE] %s gained another life (%d active)", playerID, player.ActiveLifeCount())
		return player, nil
	}
	log.Printf("[ALLEGIANCE] 🧍 %s declared human", playerID)
	if err := s.Membership.UpdateMembershipOnAllegianceChange(ctx, gameID, playerID); err != nil {
		return nil, err
	}
	return loadPlayer(ctx, s.Store, gameID, playerID)
}

// DeclareZombie moves an undeclared player straight into the horde.
func (s *AllegianceService) DeclareZombie(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	_, err := s.Store.Players.Update(ctx, gameID, playerID, func(p *models.Player) error {
		if p.Allegiance != models.AllegianceUndeclared && p.Allegiance != "" {
			return apperrors.WithMetadata(apperrors.CodeInvalidState,
				fmt.Sprintf("cannot declare zombie from %s", p.Allegiance),
				map[string]string{"player_id": p.ID})
		}
		p.Allegiance = models.AllegianceHorde
		return nil
	})
	if err != nil {
		return nil, playerErr(playerID, err)
	}
	log.Printf("[ALLEGIANCE] 🧟 %s declared zombie", playerID)
	if err := s.Membership.UpdateMembershipOnAllegianceChange(ctx, gameID, playerID); err != nil {
		return nil, err
	}
	return loadPlayer(ctx, s.Store, gameID, playerID)
}

// InfectByLifeCode consumes the victim's life code and then rewards the
// infector. The victim turns only when no active life remains.
func (s *AllegianceService) InfectByLifeCode(ctx context.Context, gameID, infectorPlayerID, rawLifeCode string) (*InfectionResult, error) {
	code := models.NormalizeLifeCode(rawLifeCode)
	if code == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "life code is required")
	}
	if _, err := loadPlayer(ctx, s.Store, gameID, infectorPlayerID); err != nil {
		return nil, err
	}

	holders, err := s.activeHolders(ctx, gameID, code)
	if err != nil {
		return nil, err
	}
	switch len(holders) {
	case 0:
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound,
			"no player holds that life code", map[string]string{"life_code": code})
	case 1:
	default:
		log.Printf("[ALLEGIANCE] ❌ life code %q is active for %d players", code, len(holders))
		return nil, apperrors.WithMetadata(apperrors.CodeAmbiguousState,
			fmt.Sprintf("life code is active for %d players", len(holders)),
			map[string]string{"life_code": code})
	}

	victim := holders[0]
	result := &InfectionResult{
		VictimPlayerID: victim.ID,
		SelfInfection:  victim.ID == infectorPlayerID,
	}
	if victim.Allegiance != models.AllegianceResistance {
		log.Printf("[ALLEGIANCE] infection of %s ignored: allegiance is %s", victim.ID, victim.Allegiance)
		result.Outcome = OutcomeVictimNotHuman
		return result, nil
	}

	turned := false
	notHuman := false
	_, err = s.Store.Players.Update(ctx, gameID, victim.ID, func(p *models.Player) error {
		turned, notHuman = false, false
		if p.Allegiance != models.AllegianceResistance {
			notHuman = true
			return store.ErrNoChange
		}
		life, ok := p.Lives[code]
		if !ok || !life.IsActive {
			return apperrors.WithMetadata(apperrors.CodeNotFound,
				"life code is no longer active", map[string]string{"life_code": code})
		}
		life.IsActive = false
		p.Lives[code] = life
		if !p.HasActiveLife() {
			p.Allegiance = models.AllegianceHorde
			turned = true
		}
		return nil
	})
	if err != nil {
		return nil, playerErr(victim.ID, err)
	}
	if notHuman {
		result.Outcome = OutcomeVictimNotHuman
		return result, nil
	}

	// Only the call that consumed the life pays the infector.
	var rewardErr error
	if !result.SelfInfection && s.Rewards != nil {
		result.ClaimCode, rewardErr = s.Rewards.GiveRewardForInfecting(ctx, gameID, infectorPlayerID, infectionNonce(victim.ID, code))
		if rewardErr != nil {
			log.Printf("[ALLEGIANCE] ❌ reward for infecting %s failed: %v", victim.ID, rewardErr)
		}
	}

	if turned {
		log.Printf("[ALLEGIANCE] 🧟 %s was infected by %s", victim.ID, infectorPlayerID)
		if err := s.Membership.UpdateMembershipOnAllegianceChange(ctx, gameID, victim.ID); err != nil {
			return nil, err
		}
		result.Outcome = OutcomeInfected
	} else {
		log.Printf("[ALLEGIANCE] 💔 %s lost a life to %s and is still human", victim.ID, infectorPlayerID)
		result.Outcome = OutcomeLifeConsumed
	}
	if rewardErr != nil {
		return nil, fmt.Errorf("reward infector %s: %w", infectorPlayerID, rewardErr)
	}
	return result, nil
}

// activeHolders returns every player with an active life under code.
func (s *AllegianceService) activeHolders(ctx context.Context, gameID, code string) ([]*models.Player, error) {
	players, err := s.Store.Players.Where(ctx, gameID, store.Equal(true, "lives", code, "isActive"))
	if err != nil {
		return nil, fmt.Errorf("look up life code: %w", err)
	}
	return players, nil
}

func newLifeCode() string {
	return utils.ShortToken() + "-" + utils.ShortToken()
}

// infectionNonce is stable for a given victim and life code; a life code is
// consumed once, so the pair names exactly one infection.
func infectionNonce(victimID, code string) string {
	sum := sha256.Sum256([]byte(victimID + "/" + code))
	return hex.EncodeToString(sum[:6])
}

func playerErr(playerID string, err error) error {
	if apperrors.IsDomain(err) {
		return err
	}
	return notFound("player", playerID, err)
}
