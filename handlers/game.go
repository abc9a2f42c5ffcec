// handlers/game.go
package handlers

import (
	"time"

	"github.com/SquirrelThief/playhvz/middleware"
	"github.com/SquirrelThief/playhvz/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listGames(c *fiber.Ctx) error {
	games, err := h.svc.Games.ListGames(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(games)
}

func (h *Handler) createGame(c *fiber.Ctx) error {
	var req struct {
		Name      string    `json:"name"`
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	game, err := h.svc.Games.CreateGame(c.UserContext(), services.CreateGameRequest{
		Name:          req.Name,
		CreatorUserID: middleware.UserID(c),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

func (h *Handler) getGame(c *fiber.Ctx) error {
	game, err := h.svc.Games.Game(c.UserContext(), c.Params("gameId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(game)
}

func (h *Handler) joinGame(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	player, err := h.svc.Games.JoinGame(c.UserContext(), c.Params("gameId"), middleware.UserID(c), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(player)
}

func (h *Handler) getPlayer(c *fiber.Ctx) error {
	player, err := h.svc.Games.Player(c.UserContext(), c.Params("gameId"), c.Params("playerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(player)
}

func (h *Handler) getGroup(c *fiber.Ctx) error {
	group, err := h.svc.Groups.Group(c.UserContext(), c.Params("gameId"), c.Params("groupId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(group)
}

func (h *Handler) declareHuman(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"playerId"`
		LifeCode string `json:"lifeCode"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}); err != nil {
		return fail(c, err)
	}
	player, err := h.svc.Allegiance.DeclareHuman(c.UserContext(), c.Params("gameId"), req.PlayerID, req.LifeCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(player)
}

func (h *Handler) declareZombie(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}); err != nil {
		return fail(c, err)
	}
	player, err := h.svc.Allegiance.DeclareZombie(c.UserContext(), c.Params("gameId"), req.PlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(player)
}

func (h *Handler) infectByLifeCode(c *fiber.Ctx) error {
	var req struct {
		InfectorPlayerID string `json:"infectorPlayerId"`
		LifeCode         string `json:"lifeCode"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"infectorPlayerId", req.InfectorPlayerID}, field{"lifeCode", req.LifeCode}); err != nil {
		return fail(c, err)
	}
	result, err := h.svc.Allegiance.InfectByLifeCode(c.UserContext(), c.Params("gameId"), req.InfectorPlayerID, req.LifeCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
