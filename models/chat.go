package models

// ChatRoom is backed by exactly one group; the group's members are the
// room's audience.
type ChatRoom struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AssociatedGroupID string `json:"associatedGroupId"`
	WithAdmins        bool   `json:"withAdmins"`
}

// DefaultChatMembership is what a player gets when they join a room.
func DefaultChatMembership() ChatMembership {
	return ChatMembership{IsVisible: true, AllowNotifications: true}
}
