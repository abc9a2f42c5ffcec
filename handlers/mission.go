// handlers/mission.go
package handlers

import (
	"github.com/SquirrelThief/playhvz/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) createMission(c *fiber.Ctx) error {
	var req services.CreateMissionRequest
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	mission, err := h.svc.Missions.CreateMission(c.UserContext(), c.Params("gameId"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mission)
}

func (h *Handler) deleteMission(c *fiber.Ctx) error {
	var req struct {
		MissionID string `json:"missionId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"missionId", req.MissionID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Missions.DeleteMission(c.UserContext(), c.Params("gameId"), req.MissionID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Mission deleted successfully"})
}

func (h *Handler) listMissions(c *fiber.Ctx) error {
	missions, err := h.svc.Missions.ListMissions(c.UserContext(), c.Params("gameId"), c.Params("playerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(missions)
}
