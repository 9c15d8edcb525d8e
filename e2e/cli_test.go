package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpgdash/internal/factory"
	"github.com/mcoot/rpgdash/internal/services/seed"
	"github.com/mcoot/rpgdash/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath   string
	serverURL    string
	cooldownFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "rpgdash-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rpgdash")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath:   binaryPath,
		serverURL:    serverURL,
		cooldownFile: filepath.Join(t.TempDir(), "cooldowns.json"),
	}
}

func (r *cliRunner) run(player string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--cooldown-file", r.cooldownFile,
		"--player", player,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "RPGDASH_PLAYER=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application from the bundled catalog and seed players
	projectRoot := findProjectRoot(t)
	logger := testutil.NopLogger()
	app, err := factory.New(ctx, factory.Config{
		Logger:      logger,
		CatalogPath: filepath.Join(projectRoot, "data/catalog.yaml"),
	})
	require.NoError(t, err)

	fixture, err := seed.Load(filepath.Join(projectRoot, "data/players.yaml"))
	require.NoError(t, err)
	_, err = seed.New(app.Storage, 4, logger).Apply(ctx, fixture)
	require.NoError(t, err)

	router, err := app.Router()
	require.NoError(t, err)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Gold            int64            `json:"gold"`
	Experience      int64            `json:"experience"`
	MonetaryBalance json.Number      `json:"monetaryBalance"`
	Inventory       map[string]int64 `json:"inventory"`
	PasswordHash    *string          `json:"passwordHash"`
	Version         int64            `json:"version"`
}

type actionResponse struct {
	Action string `json:"action"`
	Reward struct {
		Gold int64 `json:"gold"`
		XP   int64 `json:"xp"`
	} `json:"reward"`
	Player            playerResponse `json:"player"`
	CooldownExpiresAt int64          `json:"cooldown_expires_at"`
	Saved             bool           `json:"saved"`
}

type cooldownsResponse struct {
	PlayerID  string `json:"player_id"`
	Cooldowns []struct {
		Action      string `json:"action"`
		RemainingMS int64  `json:"remaining_ms"`
	} `json:"cooldowns"`
}

type purchaseResponse struct {
	Item   string         `json:"item"`
	Price  int64          `json:"price"`
	Player playerResponse `json:"player"`
}

type shopResponse struct {
	Items []struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	} `json:"items"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("", "health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("ayla", "player", "show")
	require.NoError(t, err, "output: %s", output)

	var player playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, "Ayla", player.Name)
	assert.Equal(t, int64(50), player.Gold)
	assert.Nil(t, player.PasswordHash)

	// Patch leaves other fields alone
	output, err = cli.run("ayla", "player", "patch", "--set", "gold=75", "--set", "title=Knight")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, int64(75), player.Gold)
	assert.Equal(t, int64(2), player.Inventory["bread"])

	// Balance cannot be patched
	output, err = cli.run("ayla", "player", "patch", "--set", "monetaryBalance=1000")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")

	// Unknown player
	output, err = cli.run("nobody", "player", "show")
	require.Error(t, err)
	assert.Contains(t, output, "PLAYER_NOT_FOUND")
}

func TestCLI_ActionAndCooldowns(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("ayla", "action", "work")
	require.NoError(t, err, "output: %s", output)

	var action actionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &action))
	assert.Equal(t, "work", action.Action)
	assert.True(t, action.Saved)
	assert.Equal(t, int64(50)+action.Reward.Gold, action.Player.Gold)
	assert.Equal(t, action.Reward.XP, action.Player.Experience)

	// Refused while cooling down
	output, err = cli.run("ayla", "action", "work")
	require.Error(t, err)
	assert.Contains(t, output, "cooldown")

	// A fresh cache still gets refused by the server
	other := &cliRunner{
		binaryPath:   cli.binaryPath,
		serverURL:    cli.serverURL,
		cooldownFile: filepath.Join(t.TempDir(), "other.json"),
	}
	output, err = other.run("ayla", "action", "work")
	require.Error(t, err)
	assert.Contains(t, output, "cooldown")

	output, err = cli.run("ayla", "cooldowns")
	require.NoError(t, err, "output: %s", output)

	var cooldowns cooldownsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &cooldowns))
	require.Len(t, cooldowns.Cooldowns, 1)
	assert.Equal(t, "work", cooldowns.Cooldowns[0].Action)
	assert.Positive(t, cooldowns.Cooldowns[0].RemainingMS)

	// Other actions are independent
	output, err = cli.run("ayla", "action", "fish")
	require.NoError(t, err, "output: %s", output)
}

func TestCLI_ShopCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("", "shop", "list")
	require.NoError(t, err, "output: %s", output)

	var shop shopResponse
	require.NoError(t, json.Unmarshal([]byte(output), &shop))
	require.NotEmpty(t, shop.Items)
	assert.Equal(t, "bread", shop.Items[0].Name)

	output, err = cli.run("ayla", "shop", "buy", "potion")
	require.NoError(t, err, "output: %s", output)

	var purchase purchaseResponse
	require.NoError(t, json.Unmarshal([]byte(output), &purchase))
	assert.Equal(t, int64(25), purchase.Price)
	assert.Equal(t, int64(25), purchase.Player.Gold)
	assert.Equal(t, int64(1), purchase.Player.Inventory["potion"])

	// Not enough gold for a sword
	output, err = cli.run("ayla", "shop", "buy", "sword")
	require.Error(t, err)
	assert.Contains(t, output, "INSUFFICIENT_FUNDS")

	// The catalog price wins over a stale quote
	output, err = cli.run("ayla", "shop", "buy", "bread", "--price", "1")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &purchase))
	assert.Equal(t, int64(5), purchase.Price)
	assert.Equal(t, int64(20), purchase.Player.Gold)
	assert.Equal(t, int64(3), purchase.Player.Inventory["bread"])
}

func TestCLI_CheckoutWithoutProvider(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("ayla", "checkout", "--amount", "10.00", "--name", "Ayla")
	require.Error(t, err)
	assert.Contains(t, output, "CONFIGURATION_ERROR")

	output, err = cli.run("ayla", "checkout", "--amount=-1")
	require.Error(t, err)
	assert.Contains(t, output, "greater than zero")
}
