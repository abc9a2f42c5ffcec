// handlers/reward.go
package handlers

import (
	"github.com/SquirrelThief/playhvz/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) createReward(c *fiber.Ctx) error {
	var req services.CreateRewardRequest
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	reward, err := h.svc.Rewards.CreateReward(c.UserContext(), c.Params("gameId"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reward)
}

func (h *Handler) generateClaimCodes(c *fiber.Ctx) error {
	var req struct {
		RewardID string `json:"rewardId"`
		Count    int    `json:"count"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"rewardId", req.RewardID}); err != nil {
		return fail(c, err)
	}
	codes, err := h.svc.Rewards.GenerateClaimCodes(c.UserContext(), c.Params("gameId"), req.RewardID, req.Count)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"claimCodes": codes})
}

func (h *Handler) redeemRewardCode(c *fiber.Ctx) error {
	var req struct {
		PlayerID  string `json:"playerId"`
		ClaimCode string `json:"claimCode"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}, field{"claimCode", req.ClaimCode}); err != nil {
		return fail(c, err)
	}
	result, err := h.svc.Rewards.RedeemRewardCode(c.UserContext(), c.Params("gameId"), req.PlayerID, req.ClaimCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
