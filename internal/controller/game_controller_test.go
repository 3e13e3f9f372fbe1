package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/store"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := newTestServer(t, zaptest.NewLogger(t))
	return app
}

func newTestServer(t *testing.T, logger *zap.Logger) (*fiber.App, *service.GameManager) {
	t.Helper()
	saves, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	gm := service.NewGameManager(time.Minute, logger)
	t.Cleanup(gm.Close)
	gs := service.NewGameService(gm, saves, logger)

	app := fiber.New()
	RegisterRoutes(app, NewGameController(gs, 0), NewWebSocketController(gs, logger), nil)
	return app, gm
}

func call(t *testing.T, app *fiber.App, method, path, player, body string) (int, map[string]any) {
	t.Helper()
	code, raw := callRaw(t, app, method, path, player, body)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return code, out
}

func callRaw(t *testing.T, app *fiber.App, method, path, player, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func createGame(t *testing.T, app *fiber.App, body string) string {
	t.Helper()
	code, out := call(t, app, http.MethodPost, "/api/game/create", "ann", body)
	require.Equal(t, http.StatusOK, code, out)
	id, ok := out["game_id"].(string)
	require.True(t, ok)
	return id
}

func TestRequiresPlayerID(t *testing.T) {
	app := newTestApp(t)
	code, out := call(t, app, http.MethodPost, "/api/game/create", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, out["error"], "Player ID")

	req := httptest.NewRequest(http.MethodPost, "/api/game/create?playerId=ann", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "query parameter works too")
}

func TestCreateJoinAndState(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")

	code, out := call(t, app, http.MethodPost, "/api/game/join/"+gameID, "ann", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "white", out["color"])
	code, out = call(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "black", out["color"])
	code, _ = call(t, app, http.MethodPost, "/api/game/join/"+gameID, "cy", "")
	assert.Equal(t, http.StatusConflict, code)

	code, out = call(t, app, http.MethodGet, "/api/game/"+gameID, "cy", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "white", out["toMove"])
	assert.Equal(t, "selecting", out["phase"])
	players := out["players"].(map[string]any)
	assert.Equal(t, "ann", players["white"].(map[string]any)["name"])
	assert.Equal(t, "bob", players["black"].(map[string]any)["name"])

	code, out = call(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "black", out["color"], "seats survive later requests")

	code, _ = call(t, app, http.MethodGet, "/api/game/nope", "ann", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMoveEndpoints(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")
	call(t, app, http.MethodPost, "/api/game/join/"+gameID, "ann", "")
	call(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", "")

	code, _ := call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "bob", `{"from":"e7","to":"e5"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, out := call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "ann", `{"from":"e2","to":"e5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.NotEmpty(t, out["events"])

	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "ann", `{"from":"e2","to":"e4"}`)
	require.Equal(t, http.StatusOK, code, out)
	state := out["state"].(map[string]any)
	assert.Equal(t, "black", state["toMove"])

	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/select", "bob", `{"square":"g8"}`)
	require.Equal(t, http.StatusOK, code, out)
	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/click", "bob", `{"square":"f6"}`)
	require.Equal(t, http.StatusOK, code, out)
	state = out["state"].(map[string]any)
	assert.Equal(t, []any{"1. White Pawn e2-e4", "1. Black Knight g8-f6"}, state["moveHistory"])

	code, out = call(t, app, http.MethodGet, "/api/game/"+gameID+"/moves/b1", "ann", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"a3", "c3"}, out["moves"])

	code, _ = call(t, app, http.MethodGet, "/api/game/"+gameID+"/moves/z0", "ann", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, app, http.MethodPost, "/api/game/"+gameID+"/promote", "ann", `{"piece":"queen"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, out = call(t, app, http.MethodGet, "/api/game/"+gameID+"/opening", "ann", "")
	require.Equal(t, http.StatusOK, code, out)
	assert.NotEmpty(t, out["code"])

	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/reset", "ann", "")
	require.Equal(t, http.StatusOK, code)
	state = out["state"].(map[string]any)
	assert.Equal(t, "white", state["toMove"])
}

func TestCreateFromFEN(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, `{"fen":"7k/P7/8/8/8/8/8/K7 w - - 0 1"}`)

	code, out := call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "ann", `{"from":"a7","to":"a8"}`)
	require.Equal(t, http.StatusOK, code, out)
	state := out["state"].(map[string]any)
	assert.Equal(t, "promotion_pending", state["phase"])

	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/promote", "ann", `{"piece":"rook"}`)
	require.Equal(t, http.StatusOK, code, out)
	state = out["state"].(map[string]any)
	assert.Equal(t, true, state["isCheck"])

	code, _ = call(t, app, http.MethodPost, "/api/game/create", "ann", `{"fen":"garbage"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBoardSVG(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")

	req := httptest.NewRequest(http.MethodGet, "/api/game/"+gameID+"/board.svg", nil)
	req.Header.Set("X-Player-ID", "ann")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")
}

func TestSaveEndpoints(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")
	call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "ann", `{"from":"e2","to":"e4"}`)

	code, out := call(t, app, http.MethodPost, "/api/game/"+gameID+"/save", "ann", "")
	require.Equal(t, http.StatusCreated, code, out)
	name := out["filename"].(string)

	code, out = call(t, app, http.MethodGet, "/api/saves", "ann", "")
	require.Equal(t, http.StatusOK, code)
	saves := out["saves"].([]any)
	require.Len(t, saves, 1)
	assert.Equal(t, name, saves[0].(map[string]any)["filename"])

	call(t, app, http.MethodPost, "/api/game/"+gameID+"/reset", "ann", "")
	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/load", "ann", `{"filename":"`+name+`"}`)
	require.Equal(t, http.StatusOK, code, out)
	state := out["state"].(map[string]any)
	assert.Equal(t, "black", state["toMove"])

	code, _ = call(t, app, http.MethodPost, "/api/game/"+gameID+"/load", "ann", `{"filename":"../x.json"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodDelete, "/api/saves/"+name, "ann", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app, http.MethodDelete, "/api/saves/"+name, "ann", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestJoinMatchmaking(t *testing.T) {
	app := newTestApp(t)
	code, out := call(t, app, http.MethodPost, "/api/game/matchmaking/join", "ann", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "queued", out["status"])
	assert.Equal(t, float64(1), out["place"])

	code, _ = call(t, app, http.MethodPost, "/api/game/matchmaking/join", "ann", "")
	assert.Equal(t, http.StatusConflict, code)

	code, out = call(t, app, http.MethodGet, "/api/game/matchmaking/status", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not_queued", out["status"])
}

func TestMatchFoundAfterQueuedReply(t *testing.T) {
	app, gm := newTestServer(t, zaptest.NewLogger(t))

	code, out := call(t, app, http.MethodPost, "/api/game/matchmaking/join", "ann", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "queued", out["status"])
	code, out = call(t, app, http.MethodPost, "/api/game/matchmaking/join", "bob", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), out["place"])

	gm.StartMatchmaking(5 * time.Millisecond)
	require.Eventually(t, func() bool {
		_, out := call(t, app, http.MethodGet, "/api/game/matchmaking/status", "ann", "")
		return out["status"] == "matched"
	}, 2*time.Second, 10*time.Millisecond)

	_, annStatus := call(t, app, http.MethodGet, "/api/game/matchmaking/status", "ann", "")
	_, bobStatus := call(t, app, http.MethodGet, "/api/game/matchmaking/status", "bob", "")
	assert.Equal(t, "white", annStatus["color"])
	assert.Equal(t, "black", bobStatus["color"])
	gameID := annStatus["gameId"].(string)
	assert.Equal(t, gameID, bobStatus["gameId"])

	code, out = call(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "ann", `{"from":"e2","to":"e4"}`)
	require.Equal(t, http.StatusOK, code, out)
}

func TestLeaveMatchmakingEndpoint(t *testing.T) {
	app := newTestApp(t)
	call(t, app, http.MethodPost, "/api/game/matchmaking/join", "ann", "")

	code, out := call(t, app, http.MethodPost, "/api/game/matchmaking/leave", "ann", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "left", out["status"])
	_, out = call(t, app, http.MethodGet, "/api/game/matchmaking/status", "ann", "")
	assert.Equal(t, "not_queued", out["status"])
	_, out = call(t, app, http.MethodPost, "/api/game/matchmaking/leave", "ann", "")
	assert.Equal(t, "not_queued", out["status"])
}

func TestRemoveGameEndpoint(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")
	call(t, app, http.MethodPost, "/api/game/join/"+gameID, "ann", "")

	code, _ := call(t, app, http.MethodDelete, "/api/game/"+gameID, "zed", "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, app, http.MethodDelete, "/api/game/"+gameID, "ann", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app, http.MethodGet, "/api/game/"+gameID, "ann", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	app := newTestApp(t)
	gameID := createGame(t, app, "")
	code, _ := callRaw(t, app, http.MethodGet, "/ws/game/"+gameID, "ann", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}
