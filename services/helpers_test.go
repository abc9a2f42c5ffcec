package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/store"
)

const creatorUserID = "user-creator"

type testEnv struct {
	t    *testing.T
	ctx  context.Context
	svc  *Container
	game *models.Game
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	svc := NewContainer(store.New(store.NewMemoryGateway()), 1)
	game, err := svc.Games.CreateGame(ctx, CreateGameRequest{Name: "Fall HvZ", CreatorUserID: creatorUserID})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return &testEnv{t: t, ctx: ctx, svc: svc, game: game}
}

func (e *testEnv) join(userID, name string) *models.Player {
	e.t.Helper()
	p, err := e.svc.Games.JoinGame(e.ctx, e.game.ID, userID, name)
	if err != nil {
		e.t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func (e *testEnv) human(name string, codes ...string) *models.Player {
	e.t.Helper()
	p := e.join("user-"+name, name)
	for _, code := range codes {
		if _, err := e.svc.Allegiance.DeclareHuman(e.ctx, e.game.ID, p.ID, code); err != nil {
			e.t.Fatalf("declare %s human with %q: %v", name, code, err)
		}
	}
	return e.player(p.ID)
}

func (e *testEnv) zombie(name string) *models.Player {
	e.t.Helper()
	p := e.join("user-"+name, name)
	if _, err := e.svc.Allegiance.DeclareZombie(e.ctx, e.game.ID, p.ID); err != nil {
		e.t.Fatalf("declare %s zombie: %v", name, err)
	}
	return e.player(p.ID)
}

func (e *testEnv) player(id string) *models.Player {
	e.t.Helper()
	p, err := e.svc.Store.Players.Get(e.ctx, e.game.ID, id)
	if err != nil {
		e.t.Fatalf("get player %s: %v", id, err)
	}
	return p
}

func (e *testEnv) group(id string) *models.Group {
	e.t.Helper()
	g, err := e.svc.Store.Groups.Get(e.ctx, e.game.ID, id)
	if err != nil {
		e.t.Fatalf("get group %s: %v", id, err)
	}
	return g
}

func (e *testEnv) groupNamed(name string) *models.Group {
	e.t.Helper()
	groups, err := e.svc.Store.Groups.Where(e.ctx, e.game.ID, store.Equal(name, "name"))
	if err != nil {
		e.t.Fatalf("find group %q: %v", name, err)
	}
	if len(groups) != 1 {
		e.t.Fatalf("expected one group named %q, got %d", name, len(groups))
	}
	return groups[0]
}

func (e *testEnv) chatFor(groupID string) *models.ChatRoom {
	e.t.Helper()
	chat, err := e.svc.Groups.ChatRoomForGroup(e.ctx, e.game.ID, groupID)
	if err != nil || chat == nil {
		e.t.Fatalf("chat for group %s: %v (nil=%t)", groupID, err, chat == nil)
	}
	return chat
}

// assertInRoom checks both the group membership and the derived chat entry.
func (e *testEnv) assertInRoom(playerID, roomName string, want bool) {
	e.t.Helper()
	g := e.groupNamed(roomName)
	chat := e.chatFor(g.ID)
	p := e.player(playerID)
	_, hasChat := p.ChatRoomMemberships[chat.ID]
	if g.HasMember(playerID) != want || hasChat != want {
		e.t.Fatalf("%s in %q: member=%t chat=%t, want %t", playerID, roomName, g.HasMember(playerID), hasChat, want)
	}
}

// assertLifeInvariants checks that every human has a life and no zombie does.
func (e *testEnv) assertLifeInvariants() {
	e.t.Helper()
	players, err := e.svc.Store.Players.List(e.ctx, e.game.ID)
	if err != nil {
		e.t.Fatalf("list players: %v", err)
	}
	for _, p := range players {
		switch p.Allegiance {
		case models.AllegianceHorde:
			if p.HasActiveLife() {
				e.t.Fatalf("zombie %s still has an active life", p.ID)
			}
		case models.AllegianceResistance:
			if !p.HasActiveLife() {
				e.t.Fatalf("human %s has no active life", p.ID)
			}
		}
	}
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
