package services

import (
	"testing"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
)

func (e *testEnv) setScore(playerID string, points int) {
	e.t.Helper()
	if _, err := e.svc.Store.Players.Update(e.ctx, e.game.ID, playerID, func(p *models.Player) error {
		p.Points = points
		return nil
	}); err != nil {
		e.t.Fatalf("set points of %s: %v", playerID, err)
	}
}

func TestAddPlayerToGroupIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	owner := e.join("user-owner", "Owner")
	alice := e.join("user-alice", "Alice")
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, owner.ID, "Squad", "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	for range 2 {
		if err := e.svc.Groups.AddPlayerToGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, alice.ID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	g := e.group(chat.AssociatedGroupID)
	if len(g.Members) != 2 {
		t.Fatalf("members = %v", g.Members)
	}
	if _, ok := e.player(alice.ID).ChatRoomMemberships[chat.ID]; !ok {
		t.Fatal("expected chat membership")
	}
}

func TestRemovePlayerFromGroupRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	owner := e.join("user-owner", "Owner")
	alice := e.join("user-alice", "Alice")
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, owner.ID, "Squad", "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	before := e.player(alice.ID).ChatRoomMemberships

	if err := e.svc.Chats.AddPlayersToChat(e.ctx, e.game.ID, chat.AssociatedGroupID, chat.ID, []string{alice.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.svc.Groups.RemovePlayerFromGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, alice.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.group(chat.AssociatedGroupID).HasMember(alice.ID) {
		t.Fatal("alice still a member")
	}
	after := e.player(alice.ID).ChatRoomMemberships
	if len(after) != len(before) {
		t.Fatalf("memberships before=%v after=%v", before, after)
	}

	// removing a non-member changes nothing
	if err := e.svc.Groups.RemovePlayerFromGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, alice.ID); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestAddPlayerToGroupChecksFilter(t *testing.T) {
	e := newTestEnv(t)
	alice := e.human("alice", "a1")
	zed := e.zombie("zed")
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, alice.ID, "Humans Only", models.FilterResistance)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	err = e.svc.Groups.AddPlayerToGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, zed.ID)
	assertCode(t, err, apperrors.CodeAllegianceFilter)
	if e.group(chat.AssociatedGroupID).HasMember(zed.ID) {
		t.Fatal("zombie must not be added")
	}

	_, err = e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, zed.ID, "Sneaky", models.FilterResistance)
	assertCode(t, err, apperrors.CodeAllegianceFilter)
}

func TestSwitchGroupOwnershipPrefersPointsThenNumber(t *testing.T) {
	e := newTestEnv(t)
	owner := e.join("user-owner", "Owner")
	b := e.join("user-b", "B")
	a := e.join("user-a", "A")
	low := e.join("user-low", "Low")
	if b.Number >= a.Number {
		t.Fatalf("expected b to join first: a=%d b=%d", a.Number, b.Number)
	}
	e.setScore(a.ID, 5)
	e.setScore(b.ID, 5)
	e.setScore(low.ID, 1)

	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, owner.ID, "Squad", "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := e.svc.Chats.AddPlayersToChat(e.ctx, e.game.ID, chat.AssociatedGroupID, chat.ID, []string{low.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := e.svc.Groups.RemovePlayerFromGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, owner.ID); err != nil {
		t.Fatalf("remove owner: %v", err)
	}
	g := e.group(chat.AssociatedGroupID)
	if len(g.Owners) != 1 || g.Owners[0] != b.ID {
		t.Fatalf("owners = %v, want [%s]", g.Owners, b.ID)
	}
	if g.HasMember(owner.ID) {
		t.Fatal("leaving owner is still a member")
	}
	if _, ok := e.player(owner.ID).ChatRoomMemberships[chat.ID]; ok {
		t.Fatal("leaving owner kept the chat membership")
	}
}

func TestSwitchGroupOwnershipEmptiesOwners(t *testing.T) {
	e := newTestEnv(t)
	owner := e.join("user-owner", "Owner")
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, owner.ID, "Solo", "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	next, err := e.svc.Groups.SwitchGroupOwnership(e.ctx, e.game.ID, chat.AssociatedGroupID, owner.ID)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if next != "" {
		t.Fatalf("new owner = %q", next)
	}
	g := e.group(chat.AssociatedGroupID)
	if len(g.Owners) != 0 || len(g.Members) != 0 {
		t.Fatalf("group = %+v", g)
	}
}

func TestRankOwnerCandidates(t *testing.T) {
	players := []*models.Player{
		{ID: "c", Points: 1, Number: 101},
		{ID: "a", Points: 5, Number: 103},
		{ID: "b", Points: 5, Number: 102},
		{ID: "d", Points: 5, Number: 102},
	}
	rankOwnerCandidates(players)
	want := []string{"b", "d", "a", "c"}
	for i, p := range players {
		if p.ID != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}

func TestInfectedOwnerLeavesFilteredChat(t *testing.T) {
	e := newTestEnv(t)
	alice := e.human("alice", "a1")
	bob := e.human("bob", "b1")
	zed := e.zombie("zed")
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, alice.ID, "Humans Only", models.FilterResistance)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := e.svc.Chats.AddPlayersToChat(e.ctx, e.game.ID, chat.AssociatedGroupID, chat.ID, []string{bob.ID}); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	if _, err := e.svc.Allegiance.InfectByLifeCode(e.ctx, e.game.ID, zed.ID, "a1"); err != nil {
		t.Fatalf("infect: %v", err)
	}
	g := e.group(chat.AssociatedGroupID)
	if g.HasMember(alice.ID) {
		t.Fatal("infected owner still in resistance-only chat")
	}
	if len(g.Owners) != 1 || g.Owners[0] != bob.ID {
		t.Fatalf("owners = %v, want bob", g.Owners)
	}
}

func TestUpdateGroupSettingsResyncs(t *testing.T) {
	e := newTestEnv(t)
	alice := e.human("alice", "a1")
	zed := e.zombie("zed")
	g := e.groupNamed(models.GlobalChatName)
	if !g.HasMember(alice.ID) || !g.HasMember(zed.ID) {
		t.Fatalf("global members = %v", g.Members)
	}

	updated, err := e.svc.Membership.UpdateGroupSettings(e.ctx, e.game.ID, g.ID, models.GlobalGroupSettings(models.FilterHorde))
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.HasMember(alice.ID) || !updated.HasMember(zed.ID) {
		t.Fatalf("members after resync = %v", updated.Members)
	}
	e.assertInRoom(alice.ID, models.GlobalChatName, false)

	_, err = e.svc.Membership.UpdateGroupSettings(e.ctx, e.game.ID, g.ID, models.GroupSettings{AllegianceFilter: "martians"})
	assertCode(t, err, apperrors.CodeInvalidArgument)
}

func TestRemoveOneOfTwoOwnersKeepsTheOther(t *testing.T) {
	e := newTestEnv(t)
	owner := e.join("user-owner", "Owner")
	coOwner := e.join("user-co", "Co")
	member := e.join("user-member", "Member")
	e.setScore(member.ID, 9)
	chat, err := e.svc.Chats.CreateChatRoom(e.ctx, e.game.ID, owner.ID, "Squad", "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := e.svc.Chats.AddPlayersToChat(e.ctx, e.game.ID, chat.AssociatedGroupID, chat.ID, []string{coOwner.ID, member.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := e.svc.Store.Groups.Update(e.ctx, e.game.ID, chat.AssociatedGroupID, func(g *models.Group) error {
		g.AddOwner(coOwner.ID)
		return nil
	}); err != nil {
		t.Fatalf("add owner: %v", err)
	}

	if err := e.svc.Groups.RemovePlayerFromGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, owner.ID); err != nil {
		t.Fatalf("remove owner: %v", err)
	}
	g := e.group(chat.AssociatedGroupID)
	if len(g.Owners) != 1 || g.Owners[0] != coOwner.ID {
		t.Fatalf("owners = %v, want only %s", g.Owners, coOwner.ID)
	}

	if err := e.svc.Groups.RemovePlayerFromGroup(e.ctx, e.game.ID, chat.AssociatedGroupID, coOwner.ID); err != nil {
		t.Fatalf("remove co-owner: %v", err)
	}
	g = e.group(chat.AssociatedGroupID)
	if len(g.Owners) != 1 || g.Owners[0] != member.ID || g.HasMember(coOwner.ID) {
		t.Fatalf("group = %+v, want %s as sole owner", g, member.ID)
	}
	if _, ok := e.player(coOwner.ID).ChatRoomMemberships[chat.ID]; ok {
		t.Fatal("co-owner kept the chat entry")
	}
}
