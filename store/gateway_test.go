package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SquirrelThief/playhvz/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gateways(t *testing.T) map[string]Gateway {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	gormGW := NewGormGateway(db)
	if err := gormGW.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return map[string]Gateway{
		"memory": NewMemoryGateway(),
		"sqlite": gormGW,
	}
}

func TestGatewayGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ref := Ref{GameID: "g1", Collection: PlayersCollection, ID: "p1"}

			if _, err := gw.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := gw.Set(ctx, ref, []byte(`{"id":"p1","points":1}`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := gw.Set(ctx, ref, []byte(`{"id":"p1","points":2}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			var doc struct {
				Points int `json:"points"`
			}
			got, err := gw.Get(ctx, ref)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if err := json.Unmarshal(got, &doc); err != nil || doc.Points != 2 {
				t.Fatalf("unexpected document %s (%v)", got, err)
			}
			if err := gw.Delete(ctx, ref); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := gw.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestGatewayUpdate(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ref := Ref{GameID: "g1", Collection: GroupsCollection, ID: "grp"}

			err := gw.Update(ctx, ref, func(current []byte) ([]byte, error) {
				if current != nil {
					t.Fatalf("expected missing document, got %s", current)
				}
				return []byte(`{"n":1}`), nil
			})
			if err != nil {
				t.Fatalf("create via update: %v", err)
			}

			err = gw.Update(ctx, ref, func(current []byte) ([]byte, error) {
				if current == nil {
					t.Fatal("expected existing document")
				}
				return nil, nil
			})
			if err != nil {
				t.Fatalf("no-op update: %v", err)
			}

			boom := errors.New("boom")
			if err := gw.Update(ctx, ref, func([]byte) ([]byte, error) { return []byte(`{"n":9}`), boom }); !errors.Is(err, boom) {
				t.Fatalf("expected callback error, got %v", err)
			}

			if n := decodeN(t, gw, ref); n != 1 {
				t.Fatalf("document changed by failed update: n=%d", n)
			}
		})
	}
}

func decodeN(t *testing.T, gw Gateway, ref Ref) int {
	t.Helper()
	data, err := gw.Get(context.Background(), ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var doc struct {
		N int `json:"n"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc.N
}

func TestGatewayQuery(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			st := New(gw)
			players := []*models.Player{
				{ID: "a", Allegiance: models.AllegianceResistance, Lives: map[string]models.Life{"purple-monkey": {Code: "purple-monkey", IsActive: true}}},
				{ID: "b", Allegiance: models.AllegianceHorde, Lives: map[string]models.Life{"purple-monkey": {Code: "purple-monkey", IsActive: false}}},
				{ID: "c", Allegiance: models.AllegianceResistance},
			}
			for _, p := range players {
				if err := st.Players.Set(ctx, "g1", p.ID, p); err != nil {
					t.Fatalf("set %s: %v", p.ID, err)
				}
			}
			if err := st.Players.Set(ctx, "g2", "z", &models.Player{ID: "z", Allegiance: models.AllegianceResistance}); err != nil {
				t.Fatalf("set other game: %v", err)
			}

			humans, err := st.Players.Where(ctx, "g1", Equal(models.AllegianceResistance, "allegiance"))
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(humans) != 2 || humans[0].ID != "a" || humans[1].ID != "c" {
				t.Fatalf("unexpected humans %v", ids(humans))
			}

			active, err := st.Players.Where(ctx, "g1", Equal(true, "lives", "purple-monkey", "isActive"))
			if err != nil {
				t.Fatalf("query lives: %v", err)
			}
			if len(active) != 1 || active[0].ID != "a" {
				t.Fatalf("unexpected active holders %v", ids(active))
			}

			groups := []*models.Group{
				{ID: "g-a", Members: []string{"a", "b"}},
				{ID: "g-b", Members: []string{"c"}},
			}
			for _, g := range groups {
				if err := st.Groups.Set(ctx, "g1", g.ID, g); err != nil {
					t.Fatalf("set group: %v", err)
				}
			}
			withB, err := st.Groups.Where(ctx, "g1", ArrayContains("b", "members"))
			if err != nil {
				t.Fatalf("array query: %v", err)
			}
			if len(withB) != 1 || withB[0].ID != "g-a" {
				t.Fatalf("unexpected groups containing b: %d", len(withB))
			}
		})
	}
}

func ids(players []*models.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}
