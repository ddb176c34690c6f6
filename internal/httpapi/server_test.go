package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MarkoPoloResearchLab/fortress/internal/auth"
	"github.com/MarkoPoloResearchLab/fortress/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/fortress/pkg/player"
)

func startTestServer(test *testing.T) *httptest.Server {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		test.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	test.Cleanup(func() { _ = sqlDB.Close() })

	store := gormstore.New(db)
	if err := store.Migrate(); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	if err := store.Seed(context.Background()); err != nil {
		test.Fatalf("seed: %v", err)
	}
	service, err := player.NewService(store)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	tokens, err := auth.NewTokenIssuer([]byte("test-signing-key"), "fortress", time.Hour)
	if err != nil {
		test.Fatalf("new token issuer: %v", err)
	}
	cfg := Config{SigningKey: "test-signing-key"}
	server, err := New(cfg, service, tokens, zap.NewNop())
	if err != nil {
		test.Fatalf("new server: %v", err)
	}
	testServer := httptest.NewServer(server.Handler())
	test.Cleanup(testServer.Close)
	return testServer
}

func execJSON(test *testing.T, server *httptest.Server, method string, path string, token string, payload any) (*http.Response, map[string]any) {
	test.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			test.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	request, err := http.NewRequest(method, server.URL+path, body)
	if err != nil {
		test.Fatalf("request init failed: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := server.Client().Do(request)
	if err != nil {
		test.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	decoded := map[string]any{}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		test.Fatalf("failed to decode response: %v", err)
	}
	return response, decoded
}

func errorCode(test *testing.T, body map[string]any) string {
	test.Helper()
	wrapper, ok := body["error"].(map[string]any)
	if !ok {
		test.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := wrapper["code"].(string)
	return code
}

func registerAndLogin(test *testing.T, server *httptest.Server, username string) string {
	test.Helper()
	credentials := map[string]any{"username": username, "password": "secret-pass"}
	response, _ := execJSON(test, server, http.MethodPost, "/api/auth/register", "", credentials)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("register returned %d", response.StatusCode)
	}
	response, body := execJSON(test, server, http.MethodPost, "/api/auth/login", "", credentials)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("login returned %d", response.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		test.Fatalf("expected token in login response, got %v", body)
	}
	return token
}

func fundAccount(test *testing.T, server *httptest.Server, token string, currency int64) {
	test.Helper()
	payload := map[string]any{"currency": currency, "level": 1, "kills": 0}
	response, _ := execJSON(test, server, http.MethodPut, "/api/player/data", token, payload)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("funding update returned %d", response.StatusCode)
	}
}

func TestRegisterLoginAndSnapshot(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "fresh_player")

	response, body := execJSON(test, server, http.MethodGet, "/api/player/data", token, nil)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("get data returned %d", response.StatusCode)
	}
	if body["currentWeaponName"] != player.StarterWeaponName {
		test.Fatalf("expected starter weapon equipped, got %v", body["currentWeaponName"])
	}
	owned, _ := body["ownedWeaponNames"].([]any)
	if len(owned) != 1 || owned[0] != player.StarterWeaponName {
		test.Fatalf("expected only the starter weapon owned, got %v", body["ownedWeaponNames"])
	}
	if body["currency"].(float64) != 0 {
		test.Fatalf("expected zero starting currency, got %v", body["currency"])
	}
}

func TestRegisterDuplicateUsername(test *testing.T) {
	server := startTestServer(test)
	registerAndLogin(test, server, "taken_name")

	credentials := map[string]any{"username": "taken_name", "password": "secret-pass"}
	response, body := execJSON(test, server, http.MethodPost, "/api/auth/register", "", credentials)
	if response.StatusCode != http.StatusConflict {
		test.Fatalf("expected 409 for duplicate username, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "handle_taken" {
		test.Fatalf("expected handle_taken code, got %q", code)
	}
}

func TestLoginRejectsBadPassword(test *testing.T) {
	server := startTestServer(test)
	registerAndLogin(test, server, "careful_player")

	credentials := map[string]any{"username": "careful_player", "password": "wrong-pass"}
	response, _ := execJSON(test, server, http.MethodPost, "/api/auth/login", "", credentials)
	if response.StatusCode != http.StatusUnauthorized {
		test.Fatalf("expected 401 for bad password, got %d", response.StatusCode)
	}
}

func TestPlayerRoutesRequireToken(test *testing.T) {
	server := startTestServer(test)

	response, _ := execJSON(test, server, http.MethodGet, "/api/player/data", "", nil)
	if response.StatusCode != http.StatusUnauthorized {
		test.Fatalf("expected 401 without token, got %d", response.StatusCode)
	}
	response, _ = execJSON(test, server, http.MethodGet, "/api/player/data", "garbage-token", nil)
	if response.StatusCode != http.StatusUnauthorized {
		test.Fatalf("expected 401 with garbage token, got %d", response.StatusCode)
	}
}

func TestPurchaseFlow(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "buyer")
	fundAccount(test, server, token, 500)

	payload := map[string]any{"itemId": "shotgun", "category": "weapons"}
	response, body := execJSON(test, server, http.MethodPost, "/api/player/purchase", token, payload)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("purchase returned %d: %v", response.StatusCode, body)
	}
	if body["currency"].(float64) != 0 {
		test.Fatalf("expected full debit, got currency %v", body["currency"])
	}

	response, body = execJSON(test, server, http.MethodPost, "/api/player/purchase", token, payload)
	if response.StatusCode != http.StatusConflict {
		test.Fatalf("expected 409 on repurchase, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "already_owned" {
		test.Fatalf("expected already_owned code, got %q", code)
	}
}

func TestPurchaseInsufficientFunds(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "broke_player")

	payload := map[string]any{"itemId": "shotgun", "category": "weapons"}
	response, body := execJSON(test, server, http.MethodPost, "/api/player/purchase", token, payload)
	if response.StatusCode != http.StatusConflict {
		test.Fatalf("expected 409 for insufficient funds, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "insufficient_funds" {
		test.Fatalf("expected insufficient_funds code, got %q", code)
	}
}

func TestPurchaseUnknownItem(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "curious_player")

	payload := map[string]any{"itemId": "railgun", "category": "weapons"}
	response, body := execJSON(test, server, http.MethodPost, "/api/player/purchase", token, payload)
	if response.StatusCode != http.StatusNotFound {
		test.Fatalf("expected 404 for unknown item, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "item_not_found" {
		test.Fatalf("expected item_not_found code, got %q", code)
	}
}

func TestPurchaseCategoryMismatch(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "confused_player")
	fundAccount(test, server, token, 2000)

	payload := map[string]any{"itemId": "basic_turret", "category": "orbs"}
	response, body := execJSON(test, server, http.MethodPost, "/api/player/purchase", token, payload)
	if response.StatusCode != http.StatusBadRequest {
		test.Fatalf("expected 400 for category mismatch, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "category_mismatch" {
		test.Fatalf("expected category_mismatch code, got %q", code)
	}
}

func TestEquipWeaponRequiresOwnership(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "equipper")

	response, body := execJSON(test, server, http.MethodPut, "/api/player/weapon/shotgun", token, nil)
	if response.StatusCode != http.StatusBadRequest {
		test.Fatalf("expected 400 equipping unowned weapon, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "not_owned" {
		test.Fatalf("expected not_owned code, got %q", code)
	}

	fundAccount(test, server, token, 500)
	execJSON(test, server, http.MethodPost, "/api/player/purchase", token, map[string]any{"itemId": "shotgun", "category": "weapons"})
	response, body = execJSON(test, server, http.MethodPut, "/api/player/weapon/shotgun", token, nil)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("expected 200 equipping owned weapon, got %d", response.StatusCode)
	}
	if body["currentWeaponName"] != "shotgun" {
		test.Fatalf("expected shotgun equipped, got %v", body["currentWeaponName"])
	}
}

func TestSetActiveSkills(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "skiller")
	fundAccount(test, server, token, 400)
	execJSON(test, server, http.MethodPost, "/api/player/purchase", token, map[string]any{"itemId": "recovery", "category": "skills"})

	response, body := execJSON(test, server, http.MethodPut, "/api/player/skills/active", token, map[string]any{"activeSkillIds": []string{"recovery"}})
	if response.StatusCode != http.StatusOK {
		test.Fatalf("set skills returned %d: %v", response.StatusCode, body)
	}
	active, _ := body["activeSkillIds"].([]any)
	if len(active) != 1 || active[0] != "recovery" {
		test.Fatalf("expected recovery active, got %v", body["activeSkillIds"])
	}

	response, body = execJSON(test, server, http.MethodPut, "/api/player/skills/active", token, map[string]any{"activeSkillIds": []string{"lifeSteal"}})
	if response.StatusCode != http.StatusBadRequest {
		test.Fatalf("expected 400 activating unowned skill, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "not_owned" {
		test.Fatalf("expected not_owned code, got %q", code)
	}
}

func TestDeleteAccount(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "leaver")

	response, _ := execJSON(test, server, http.MethodDelete, "/api/player/account", token, nil)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("delete returned %d", response.StatusCode)
	}
	response, body := execJSON(test, server, http.MethodGet, "/api/player/data", token, nil)
	if response.StatusCode != http.StatusNotFound {
		test.Fatalf("expected 404 after deletion, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "account_not_found" {
		test.Fatalf("expected account_not_found code, got %q", code)
	}
}

func TestStoreItemsIsPublic(test *testing.T) {
	server := startTestServer(test)

	request, err := http.NewRequest(http.MethodGet, server.URL+"/api/store/items", nil)
	if err != nil {
		test.Fatalf("request init failed: %v", err)
	}
	response, err := server.Client().Do(request)
	if err != nil {
		test.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		test.Fatalf("store items returned %d", response.StatusCode)
	}
	var entries []map[string]any
	if err := json.NewDecoder(response.Body).Decode(&entries); err != nil {
		test.Fatalf("failed to decode response: %v", err)
	}
	if len(entries) != 9 {
		test.Fatalf("expected 9 catalog entries, got %d", len(entries))
	}
	seen := map[string]bool{}
	for _, entry := range entries {
		id, _ := entry["id"].(string)
		if seen[id] {
			test.Fatalf("duplicate catalog entry %q", id)
		}
		seen[id] = true
		if _, hasFlag := entry["available"].(bool); !hasFlag {
			test.Fatalf("entry %q missing availability flag", id)
		}
	}
	for _, expected := range []string{"pistol", "shotgun", "machinegun", "dragons_breath"} {
		if !seen[expected] {
			test.Fatalf("expected catalog entry %q, got %v", expected, seen)
		}
	}
}

func TestUpdateDataDropsUnownedWeaponAndSkills(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "optimist")

	payload := map[string]any{
		"currency":          120,
		"level":             3,
		"kills":             42,
		"sessionScore":      900,
		"currentWeaponName": "machinegun",
		"activeSkillIds":    []string{"lifeSteal"},
	}
	response, body := execJSON(test, server, http.MethodPut, "/api/player/data", token, payload)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("update returned %d: %v", response.StatusCode, body)
	}
	if body["currency"].(float64) != 120 || body["kills"].(float64) != 42 {
		test.Fatalf("expected counters overwritten, got %v", body)
	}
	if body["highestScore"].(float64) != 900 {
		test.Fatalf("expected highestScore 900, got %v", body["highestScore"])
	}
	if body["currentWeaponName"] != player.StarterWeaponName {
		test.Fatalf("expected unowned weapon change dropped, got %v", body["currentWeaponName"])
	}
	active, _ := body["activeSkillIds"].([]any)
	if len(active) != 0 {
		test.Fatalf("expected unowned skill change dropped, got %v", body["activeSkillIds"])
	}
}

func TestUpdateDataRejectsMissingFields(test *testing.T) {
	server := startTestServer(test)
	token := registerAndLogin(test, server, "sloppy_client")

	response, body := execJSON(test, server, http.MethodPut, "/api/player/data", token, map[string]any{"currency": 10})
	if response.StatusCode != http.StatusBadRequest {
		test.Fatalf("expected 400 for missing fields, got %d", response.StatusCode)
	}
	if code := errorCode(test, body); code != "invalid_payload" {
		test.Fatalf("expected invalid_payload code, got %q", code)
	}
}

func TestHealthEndpoint(test *testing.T) {
	server := startTestServer(test)
	response, body := execJSON(test, server, http.MethodGet, "/healthz", "", nil)
	if response.StatusCode != http.StatusOK {
		test.Fatalf("healthz returned %d", response.StatusCode)
	}
	if body["status"] != "ok" {
		test.Fatalf("expected ok status, got %v", body)
	}
}

func TestConfigValidateDefaults(test *testing.T) {
	test.Parallel()
	cfg := Config{SigningKey: "k"}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("validate: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr {
		test.Fatalf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != defaultAllowedOrigin {
		test.Fatalf("expected default origin, got %v", cfg.AllowedOrigins)
	}
	if cfg.TokenIssuer != defaultTokenIssuer || cfg.TokenTTL != defaultTokenTTL {
		test.Fatalf("expected default issuer settings, got %+v", cfg)
	}

	empty := Config{}
	if err := empty.Validate(); err == nil {
		test.Fatalf("expected error for missing signing key")
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	cases := []struct {
		raw      string
		expected []string
	}{
		{raw: "", expected: []string{}},
		{raw: "http://a.example", expected: []string{"http://a.example"}},
		{raw: " http://a.example , http://b.example ,", expected: []string{"http://a.example", "http://b.example"}},
	}
	for _, testCase := range cases {
		parsed := ParseAllowedOrigins(testCase.raw)
		if fmt.Sprint(parsed) != fmt.Sprint(testCase.expected) {
			test.Fatalf("ParseAllowedOrigins(%q) = %v, expected %v", testCase.raw, parsed, testCase.expected)
		}
	}
}
