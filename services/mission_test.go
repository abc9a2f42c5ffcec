package services

import (
	"testing"
	"time"

	"github.com/SquirrelThief/playhvz/apperrors"
	"github.com/SquirrelThief/playhvz/models"
)

func TestMissionsFollowAllegiance(t *testing.T) {
	e := newTestEnv(t)
	alice := e.human("alice", "a1")
	zed := e.zombie("zed")
	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)

	humans, err := e.svc.Missions.CreateMission(e.ctx, e.game.ID, CreateMissionRequest{
		Name: "Supply Run", StartTime: start, EndTime: start.Add(2 * time.Hour),
		AllegianceFilter: models.FilterResistance,
	})
	if err != nil {
		t.Fatalf("create human mission: %v", err)
	}
	everyone, err := e.svc.Missions.CreateMission(e.ctx, e.game.ID, CreateMissionRequest{
		Name: "Final Stand", StartTime: start, EndTime: start.Add(5 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create open mission: %v", err)
	}
	if everyone.AllegianceFilter != models.FilterNone {
		t.Fatalf("filter = %q", everyone.AllegianceFilter)
	}

	got, err := e.svc.Missions.ListMissions(e.ctx, e.game.ID, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != humans.ID || got[1].ID != everyone.ID {
		t.Fatalf("alice missions = %v", missionIDs(got))
	}
	got, err = e.svc.Missions.ListMissions(e.ctx, e.game.ID, zed.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != everyone.ID {
		t.Fatalf("zed missions = %v", missionIDs(got))
	}

	if _, err := e.svc.Allegiance.InfectByLifeCode(e.ctx, e.game.ID, zed.ID, "a1"); err != nil {
		t.Fatalf("infect: %v", err)
	}
	if e.group(humans.AccessGroupID).HasMember(alice.ID) {
		t.Fatal("infected player kept access to a human mission")
	}
	latest, err := e.svc.Missions.LatestMission(e.ctx, e.game.ID, alice.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != everyone.ID {
		t.Fatalf("latest = %s", latest.ID)
	}
}

func TestDeleteMission(t *testing.T) {
	e := newTestEnv(t)
	alice := e.human("alice", "a1")
	m, err := e.svc.Missions.CreateMission(e.ctx, e.game.ID, CreateMissionRequest{Name: "Recon"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.svc.Missions.DeleteMission(e.ctx, e.game.ID, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.svc.Groups.Group(e.ctx, e.game.ID, m.AccessGroupID); err == nil {
		t.Fatal("access group should be gone")
	}
	_, err = e.svc.Missions.LatestMission(e.ctx, e.game.ID, alice.ID)
	assertCode(t, err, apperrors.CodeNotFound)

	err = e.svc.Missions.DeleteMission(e.ctx, e.game.ID, m.ID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestCreateMissionValidation(t *testing.T) {
	e := newTestEnv(t)
	start := time.Now()
	cases := []CreateMissionRequest{
		{Name: ""},
		{Name: "Backwards", StartTime: start, EndTime: start.Add(-time.Hour)},
		{Name: "Odd", AllegianceFilter: "martians"},
	}
	for _, req := range cases {
		_, err := e.svc.Missions.CreateMission(e.ctx, e.game.ID, req)
		assertCode(t, err, apperrors.CodeInvalidArgument)
	}
}

func missionIDs(ms []*models.Mission) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}
