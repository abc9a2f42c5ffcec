package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SquirrelThief/playhvz/models"
	"github.com/SquirrelThief/playhvz/services"
	"github.com/SquirrelThief/playhvz/store"
	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	SetupRoutes(app, New(services.NewContainer(store.New(store.NewMemoryGateway()), 1)))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, userID string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestGameFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	var game models.Game
	if status := call(t, app, http.MethodPost, "/games", "user-admin", map[string]any{"name": "Fall HvZ"}, &game); status != http.StatusCreated {
		t.Fatalf("create game status = %d", status)
	}
	base := "/games/" + game.ID

	var zed, alice models.Player
	if status := call(t, app, http.MethodPost, base+"/join", "user-zed", map[string]string{"name": "Zed"}, &zed); status != http.StatusCreated {
		t.Fatalf("join status = %d", status)
	}
	if status := call(t, app, http.MethodPost, base+"/join", "user-alice", map[string]string{"name": "Alice"}, &alice); status != http.StatusCreated {
		t.Fatalf("join status = %d", status)
	}

	var out models.Player
	if status := call(t, app, http.MethodPost, base+"/declareZombie", "", map[string]string{"playerId": zed.ID}, &out); status != http.StatusOK {
		t.Fatalf("declare zombie status = %d", status)
	}
	if status := call(t, app, http.MethodPost, base+"/declareHuman", "", map[string]string{"playerId": alice.ID, "lifeCode": "Tasty Brains"}, &out); status != http.StatusOK {
		t.Fatalf("declare human status = %d", status)
	}
	if out.Allegiance != models.AllegianceResistance {
		t.Fatalf("alice allegiance = %s", out.Allegiance)
	}

	var result services.InfectionResult
	if status := call(t, app, http.MethodPost, base+"/infectByLifeCode", "", map[string]string{"infectorPlayerId": zed.ID, "lifeCode": "tasty brains"}, &result); status != http.StatusOK {
		t.Fatalf("infect status = %d", status)
	}
	if result.Outcome != services.OutcomeInfected || result.VictimPlayerID != alice.ID {
		t.Fatalf("result = %+v", result)
	}

	var errBody errorBody
	if status := call(t, app, http.MethodPost, base+"/infectByLifeCode", "", map[string]string{"infectorPlayerId": zed.ID, "lifeCode": "tasty brains"}, &errBody); status != http.StatusNotFound {
		t.Fatalf("replayed infect status = %d", status)
	}
	if errBody.Code != "NOT_FOUND" {
		t.Fatalf("error body = %+v", errBody)
	}

	if status := call(t, app, http.MethodGet, base+"/players/"+alice.ID, "", nil, &out); status != http.StatusOK {
		t.Fatalf("get player status = %d", status)
	}
	if out.Allegiance != models.AllegianceHorde {
		t.Fatalf("alice allegiance = %s", out.Allegiance)
	}
}

func TestErrorResponses(t *testing.T) {
	app := newTestApp(t)

	var errBody errorBody
	if status := call(t, app, http.MethodPost, "/games", "", map[string]any{"name": "No User"}, &errBody); status != http.StatusUnauthorized {
		t.Fatalf("create without user status = %d", status)
	}

	errBody = errorBody{}
	if status := call(t, app, http.MethodGet, "/games/game-missing", "", nil, &errBody); status != http.StatusNotFound || errBody.Code != "NOT_FOUND" {
		t.Fatalf("missing game: status=%d body=%+v", status, errBody)
	}

	errBody = errorBody{}
	if status := call(t, app, http.MethodPost, "/games/game-missing/declareHuman", "", map[string]string{}, &errBody); status != http.StatusBadRequest || errBody.Code != "INVALID_ARGUMENT" {
		t.Fatalf("missing playerId: status=%d body=%+v", status, errBody)
	}

	var game models.Game
	call(t, app, http.MethodPost, "/games", "user-admin", map[string]any{"name": "Dup"}, &game)
	errBody = errorBody{}
	if status := call(t, app, http.MethodPost, "/games", "user-admin", map[string]any{"name": "dup"}, &errBody); status != http.StatusConflict || errBody.Code != "ALREADY_EXISTS" {
		t.Fatalf("duplicate game: status=%d body=%+v", status, errBody)
	}
}

func TestListGamesOverHTTP(t *testing.T) {
	app := newTestApp(t)
	call(t, app, http.MethodPost, "/games", "user-admin", map[string]any{"name": "One"}, nil)

	var games []services.GameSummary
	if status := call(t, app, http.MethodGet, "/games", "", nil, &games); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(games) != 1 || games[0].Name != "One" {
		t.Fatalf("games = %+v", games)
	}
}

func TestRequiredReportsFirstMissingField(t *testing.T) {
	for range 20 {
		err := required(field{"infectorPlayerId", ""}, field{"lifeCode", ""})
		if err == nil || err.Error() != "infectorPlayerId is required" {
			t.Fatalf("err = %v", err)
		}
	}
	if err := required(field{"a", "x"}, field{"b", "y"}); err != nil {
		t.Fatalf("err = %v", err)
	}

	app := newTestApp(t)
	var errBody errorBody
	status := call(t, app, http.MethodPost, "/games/game-x/infectByLifeCode", "", map[string]string{}, &errBody)
	if status != http.StatusBadRequest || errBody.Error != "infectorPlayerId is required" {
		t.Fatalf("status=%d body=%+v", status, errBody)
	}
}
