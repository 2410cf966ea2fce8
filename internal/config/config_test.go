package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kalshi-mm/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeFile(t, "credentials.yaml", `
demo:
  email: demo@example.com
  password: secret
  advanced_api: true
prod:
  email: prod@example.com
  password: hunter2
  advanced_api: false
`)

	creds, err := LoadCredentials(path, types.EnvDemo)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	want := types.Credentials{Email: "demo@example.com", Password: "secret", AdvancedAPI: true}
	if creds != want {
		t.Errorf("creds = %+v, want %+v", creds, want)
	}

	creds, err = LoadCredentials(path, types.EnvProd)
	if err != nil {
		t.Fatalf("LoadCredentials prod: %v", err)
	}
	if creds.Email != "prod@example.com" || creds.AdvancedAPI {
		t.Errorf("prod creds = %+v", creds)
	}
}

func TestLoadCredentialsEnvOverride(t *testing.T) {
	path := writeFile(t, "credentials.yaml", `
demo:
  email: file@example.com
  password: filepass
  advanced_api: false
`)

	t.Setenv("MAKER_EMAIL", "env@example.com")
	t.Setenv("MAKER_PASSWORD", "envpass")

	creds, err := LoadCredentials(path, types.EnvDemo)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds.Email != "env@example.com" || creds.Password != "envpass" {
		t.Errorf("creds = %+v, env overrides not applied", creds)
	}
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.yaml"), types.EnvDemo)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "authentication file") {
		t.Errorf("error = %q, want the operator-facing message", err)
	}
}

func TestLoadCredentialsMissingBlock(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "credentials.yaml", `
demo:
  email: demo@example.com
  password: secret
`)
	_, err := LoadCredentials(path, types.EnvProd)
	if err == nil {
		t.Fatal("expected error for missing prod block")
	}
}

func TestLoadStrategies(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "strategies.yaml", `
default:
  env: demo
  markets:
    - market_ticker: HIGHNY-22DEC23-B53.5
      instant_liquidity_cents: 10000
      max_exposure_cents: 50000
      price_stickyness: 10
      spread: 5
      depth: 3
      max_spread: 10
      snipe_timeout_seconds: 300
      clear_time: "2026-12-23T15:00:00Z"
overnight:
  env: prod
  markets:
    - market_ticker: INXD-26AUG26
      instant_liquidity_cents: 5000
      max_exposure_cents: 20000
      price_stickyness: 5
      spread: 3
      depth: 2
`)

	strategies, err := LoadStrategies(path)
	if err != nil {
		t.Fatalf("LoadStrategies: %v", err)
	}
	if len(strategies) != 2 {
		t.Fatalf("loaded %d strategies, want 2", len(strategies))
	}

	def, ok := strategies["default"]
	if !ok {
		t.Fatal("no default strategy")
	}
	if def.Env != types.EnvDemo || len(def.Markets) != 1 {
		t.Fatalf("default = %+v", def)
	}
	m := def.Markets[0]
	if m.MarketTicker != "HIGHNY-22DEC23-B53.5" || m.Spread != 5 || m.Depth != 3 {
		t.Errorf("market = %+v", m)
	}
	if m.MaxSpread == nil || *m.MaxSpread != 10 {
		t.Errorf("max_spread = %v", m.MaxSpread)
	}
	if m.SnipeTimeoutSeconds == nil || *m.SnipeTimeoutSeconds != 300 {
		t.Errorf("snipe_timeout_seconds = %v", m.SnipeTimeoutSeconds)
	}
	wantClear := time.Date(2026, 12, 23, 15, 0, 0, 0, time.UTC)
	if m.ClearTime == nil || !m.ClearTime.Equal(wantClear) {
		t.Errorf("clear_time = %v, want %v", m.ClearTime, wantClear)
	}

	night := strategies["overnight"]
	if night.Env != types.EnvProd || night.Markets[0].MaxSpread != nil {
		t.Errorf("overnight = %+v", night)
	}
}

func TestLoadStrategiesRejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	// Even spread must be rejected.
	path := writeFile(t, "strategies.yaml", `
default:
  env: demo
  markets:
    - market_ticker: TEST
      instant_liquidity_cents: 10000
      max_exposure_cents: 50000
      price_stickyness: 10
      spread: 4
      depth: 3
`)
	if _, err := LoadStrategies(path); err == nil {
		t.Fatal("expected validation error for even spread")
	}
}
