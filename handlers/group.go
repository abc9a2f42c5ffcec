// handlers/group.go
package handlers

import (
	"github.com/SquirrelThief/playhvz/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) addPlayersToGroup(c *fiber.Ctx) error {
	var req struct {
		GroupID   string   `json:"groupId"`
		PlayerIDs []string `json:"playerIds"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"groupId", req.GroupID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Groups.AddPlayersToGroup(c.UserContext(), c.Params("gameId"), req.GroupID, req.PlayerIDs); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OK"})
}

func (h *Handler) removePlayerFromGroup(c *fiber.Ctx) error {
	var req struct {
		GroupID  string `json:"groupId"`
		PlayerID string `json:"playerId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"groupId", req.GroupID}, field{"playerId", req.PlayerID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Groups.RemovePlayerFromGroup(c.UserContext(), c.Params("gameId"), req.GroupID, req.PlayerID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OK"})
}

func (h *Handler) updateGroupSettings(c *fiber.Ctx) error {
	var req struct {
		GroupID  string               `json:"groupId"`
		Settings models.GroupSettings `json:"settings"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"groupId", req.GroupID}); err != nil {
		return fail(c, err)
	}
	group, err := h.svc.Membership.UpdateGroupSettings(c.UserContext(), c.Params("gameId"), req.GroupID, req.Settings)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(group)
}

func (h *Handler) createChatRoom(c *fiber.Ctx) error {
	var req struct {
		OwnerPlayerID    string                  `json:"ownerPlayerId"`
		Name             string                  `json:"name"`
		AllegianceFilter models.AllegianceFilter `json:"allegianceFilter"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"ownerPlayerId", req.OwnerPlayerID}); err != nil {
		return fail(c, err)
	}
	chat, err := h.svc.Chats.CreateChatRoom(c.UserContext(), c.Params("gameId"), req.OwnerPlayerID, req.Name, req.AllegianceFilter)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

func (h *Handler) createOrGetChatWithAdmin(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}); err != nil {
		return fail(c, err)
	}
	chatID, err := h.svc.Chats.CreateOrGetChatWithAdmin(c.UserContext(), c.Params("gameId"), req.PlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"chatRoomId": chatID})
}

func (h *Handler) addPlayersToChat(c *fiber.Ctx) error {
	var req struct {
		GroupID    string   `json:"groupId"`
		ChatRoomID string   `json:"chatRoomId"`
		PlayerIDs  []string `json:"playerIds"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"groupId", req.GroupID}, field{"chatRoomId", req.ChatRoomID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Chats.AddPlayersToChat(c.UserContext(), c.Params("gameId"), req.GroupID, req.ChatRoomID, req.PlayerIDs); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OK"})
}

func (h *Handler) removePlayerFromChat(c *fiber.Ctx) error {
	var req struct {
		PlayerID   string `json:"playerId"`
		ChatRoomID string `json:"chatRoomId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}, field{"chatRoomId", req.ChatRoomID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Chats.RemovePlayerFromChat(c.UserContext(), c.Params("gameId"), req.PlayerID, req.ChatRoomID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OK"})
}

func (h *Handler) reconcilePlayer(c *fiber.Ctx) error {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := parse(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required(field{"playerId", req.PlayerID}); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Membership.UpdateMembershipOnAllegianceChange(c.UserContext(), c.Params("gameId"), req.PlayerID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OK"})
}
