// handlers/routes.go
package handlers

import (
	"errors"
	"log"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/middleware"
	"github.com/SquirrelThief/playhvz/services"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *services.Container
}

func New(svc *services.Container) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers the game RPC surface. Gateway auth is applied by the
// caller on the whole app.
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/games", h.listGames)

	games := app.Group("/games", middleware.UserContextMiddleware())
	games.Post("/", middleware.RequireUser(), h.createGame)
	games.Get("/:gameId", h.getGame)
	games.Post("/:gameId/join", middleware.RequireUser(), h.joinGame)
	games.Get("/:gameId/players/:playerId", h.getPlayer)
	games.Get("/:gameId/players/:playerId/missions", h.listMissions)
	games.Get("/:gameId/groups/:groupId", h.getGroup)

	// Allegiance
	games.Post("/:gameId/declareHuman", h.declareHuman)
	games.Post("/:gameId/declareZombie", h.declareZombie)
	games.Post("/:gameId/infectByLifeCode", h.infectByLifeCode)

	// Groups and chats
	games.Post("/:gameId/addPlayersToGroup", h.addPlayersToGroup)
	games.Post("/:gameId/removePlayerFromGroup", h.removePlayerFromGroup)
	games.Post("/:gameId/updateGroupSettings", h.updateGroupSettings)
	games.Post("/:gameId/createChatRoom", h.createChatRoom)
	games.Post("/:gameId/createOrGetChatWithAdmin", h.createOrGetChatWithAdmin)
	games.Post("/:gameId/addPlayersToChat", h.addPlayersToChat)
	games.Post("/:gameId/removePlayerFromChat", h.removePlayerFromChat)
	games.Post("/:gameId/reconcilePlayer", h.reconcilePlayer)

	// Missions
	games.Post("/:gameId/createMission", h.createMission)
	games.Post("/:gameId/deleteMission", h.deleteMission)

	// Rewards
	games.Post("/:gameId/createReward", h.createReward)
	games.Post("/:gameId/generateClaimCodes", h.generateClaimCodes)
	games.Post("/:gameId/redeemRewardCode", h.redeemRewardCode)
}

// fail renders err as {"error", "code"} with the status of its code.
func fail(c *fiber.Ctx, err error) error {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	msg := err.Error()

	var appErr *apperrors.Error
	if errors.As(err, &appErr) && code != apperrors.CodeInternal {
		msg = appErr.Message
	}
	if status >= fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
}

// parse decodes the JSON body into req.
func parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// field is a named request value for required.
type field struct {
	name  string
	value string
}

// required reports the first empty field, in argument order.
func required(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return apperrors.New(apperrors.CodeInvalidArgument, f.name+" is required")
		}
	}
	return nil
}
