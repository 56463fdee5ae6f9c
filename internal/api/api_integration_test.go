// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "papertrade/internal"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// market is the fake quote provider the application talks to.
var market = newFakeMarket()

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	marketServer := httptest.NewServer(market)
	defer marketServer.Close()

	dir, err := os.MkdirTemp("", "papertrade-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	// 1. Point the application at a throwaway SQLite database and the fake market.
	setupEnvVars(filepath.Join(dir, "api.db"), marketServer.URL)

	// 2. Initialize the application.
	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		return 1
	}

	// 3. Start an httptest server to test the HTTP handling layer.
	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	// 4. Run all tests.
	code := m.Run()

	// 5. Shut down application resources after tests.
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		return 1
	}
	return code
}

// setupEnvVars sets the environment variables read by config.LoadConfig.
func setupEnvVars(dbPath, marketURL string) {
	os.Setenv("SESSION_SECRET", "integration-secret")
	os.Setenv("LOG_LEVEL", "error")
	os.Setenv("DB_DRIVER", "sqlite3")
	os.Setenv("DB_PATH", dbPath)
	os.Setenv("QUOTE_API_URL", marketURL)
	os.Setenv("API_KEY", "test-token")
	os.Setenv("SCREENER_API_URL", marketURL)
	os.Setenv("IEX_CLOUD_API_TOKEN", "test-token")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("KAFKA_BROKERS")
	os.Unsetenv("SCREENER_UNIVERSE_FILE")
}

// fakeMarket serves IEX-style quote and batch endpoints from a settable price table.
type fakeMarket struct {
	mu     sync.Mutex
	prices map[string]float64
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{prices: map[string]float64{"AAPL": 100, "MSFT": 300}}
}

func (f *fakeMarket) setPrice(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeMarket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/stock/market/batch" {
		out := map[string]any{}
		for i, symbol := range strings.Split(r.URL.Query().Get("symbols"), ",") {
			step := float64(i%7) / 10
			out[symbol] = map[string]any{
				"quote": map[string]any{"latestPrice": 10 + float64(i)},
				"stats": map[string]any{
					"year5ChangePercent":  step,
					"year2ChangePercent":  step / 2,
					"year1ChangePercent":  step / 3,
					"month6ChangePercent": step / 4,
				},
			}
		}
		_ = json.NewEncoder(w).Encode(out)
		return
	}

	symbol, ok := strings.CutPrefix(r.URL.Path, "/stock/")
	symbol, ok2 := strings.CutSuffix(symbol, "/quote")
	price, known := f.prices[symbol]
	if !ok || !ok2 || !known {
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"symbol":        symbol,
		"companyName":   symbol + " Inc.",
		"latestPrice":   price,
		"change":        0.5,
		"changePercent": 0.005,
		"latestTime":    "March 1, 2024",
	})
}

// clearDatabase removes all rows so each test starts from a clean ledger.
func clearDatabase(t *testing.T) {
	// Order is important due to foreign key dependencies.
	for _, table := range []string{"transactions", "users"} {
		_, err := testApp.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
		require.NoError(t, err, "Failed to clear table %s", table)
	}
	market.setPrice("AAPL", 100)
	market.setPrice("MSFT", 300)
}

// makeRequest helper function: sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path, token string, body io.Reader) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// The caller closes the body; it may still need the headers.
	return resp, string(respBody)
}

func decodeMap(t *testing.T, body string) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}

func decimalField(t *testing.T, m map[string]interface{}, key string) decimal.Decimal {
	s, ok := m[key].(string)
	require.True(t, ok, "%s should be a decimal string, got %v", key, m[key])
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// registerUser creates an account through the API and returns its session token.
func registerUser(t *testing.T, username string) string {
	body := fmt.Sprintf(`{"username": %q, "password": "pw", "confirmation": "pw"}`, username)
	resp, respBody := makeRequest(t, "POST", "/register", "", strings.NewReader(body))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, respBody)
	return decodeMap(t, respBody)["token"].(string)
}

// TestAuthIntegration tests registration, login and logout.
func TestAuthIntegration(t *testing.T) {
	clearDatabase(t)
	token := registerUser(t, "alice")
	assert.NotEmpty(t, token)

	t.Run("DuplicateUsername", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/register", "", strings.NewReader(`{"username":"alice","password":"x","confirmation":"x"}`))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "username already in use")
	})

	t.Run("PasswordMismatch", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/register", "", strings.NewReader(`{"username":"bob","password":"x","confirmation":"y"}`))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "passwords do not match")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/login", "", strings.NewReader(`{"username":"alice","password":"nope"}`))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("LoginSetsCookieAndLogoutRevokes", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/login", "", strings.NewReader(`{"username":"alice","password":"pw"}`))
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "session" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		sessionToken := decodeMap(t, body)["token"].(string)
		assert.Equal(t, sessionToken, cookie.Value)

		// The cookie alone authenticates.
		req, err := http.NewRequest("GET", testServer.URL+"/history", nil)
		require.NoError(t, err)
		req.AddCookie(cookie)
		cookieResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		cookieResp.Body.Close()
		assert.Equal(t, http.StatusOK, cookieResp.StatusCode)

		logoutResp, _ := makeRequest(t, "POST", "/logout", sessionToken, nil)
		defer logoutResp.Body.Close()
		assert.Equal(t, http.StatusOK, logoutResp.StatusCode)

		after, _ := makeRequest(t, "GET", "/portfolio", sessionToken, nil)
		defer after.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
	})

	t.Run("ChangePassword", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/password", token, strings.NewReader(`{"old_password":"pw","new_password":"pw2","confirmation":"pw2"}`))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		login, _ := makeRequest(t, "POST", "/login", "", strings.NewReader(`{"username":"alice","password":"pw2"}`))
		defer login.Body.Close()
		assert.Equal(t, http.StatusOK, login.StatusCode)
	})

	t.Run("NoSession", func(t *testing.T) {
		resp, _ := makeRequest(t, "GET", "/portfolio", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp2, _ := makeRequest(t, "GET", "/portfolio", "garbage", nil)
		defer resp2.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	})
}

// TestTradeIntegration tests buy, sell, portfolio and history end to end.
func TestTradeIntegration(t *testing.T) {
	clearDatabase(t)
	token := registerUser(t, "trader")

	t.Run("BuyThenPartialSell", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/buy", token, strings.NewReader(`{"symbol":"aapl","shares":10}`))
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		buy := decodeMap(t, body)
		assert.Equal(t, "BUY", buy["side"])
		assert.True(t, decimal.NewFromInt(9000).Equal(decimalField(t, buy, "cash")))
		assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

		market.setPrice("AAPL", 120)
		resp2, body2 := makeRequest(t, "POST", "/sell", token, strings.NewReader(`{"symbol":"AAPL","shares":4}`))
		defer resp2.Body.Close()
		require.Equal(t, http.StatusOK, resp2.StatusCode, body2)
		sell := decodeMap(t, body2)
		assert.Equal(t, "SELL", sell["side"])
		assert.True(t, decimal.NewFromInt(480).Equal(decimalField(t, sell, "total")))
		assert.True(t, decimal.NewFromInt(9480).Equal(decimalField(t, sell, "cash")))
	})

	t.Run("Portfolio", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/portfolio", token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		portfolio := decodeMap(t, body)
		holdings := portfolio["holdings"].([]interface{})
		require.Len(t, holdings, 1)
		aapl := holdings[0].(map[string]interface{})
		assert.Equal(t, "AAPL", aapl["symbol"])
		assert.Equal(t, float64(6), aapl["shares"])
		assert.True(t, decimal.NewFromInt(720).Equal(decimalField(t, portfolio, "total_value")))
		assert.True(t, decimal.NewFromInt(10200).Equal(decimalField(t, portfolio, "grand_total")))
	})

	t.Run("History", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/history", token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		history := decodeMap(t, body)
		rows := history["data"].([]interface{})
		require.Len(t, rows, 2)
		assert.Equal(t, float64(10), rows[0].(map[string]interface{})["shares"])
		assert.Equal(t, float64(-4), rows[1].(map[string]interface{})["shares"])
	})

	t.Run("Rejections", func(t *testing.T) {
		cases := []struct {
			name, path, body string
			status           int
		}{
			{"ZeroShares", "/buy", `{"symbol":"AAPL","shares":0}`, http.StatusBadRequest},
			{"FractionalShares", "/buy", `{"symbol":"AAPL","shares":1.5}`, http.StatusBadRequest},
			{"UnknownSymbol", "/buy", `{"symbol":"NOPE","shares":1}`, http.StatusBadRequest},
			{"InsufficientFunds", "/buy", `{"symbol":"MSFT","shares":1000}`, http.StatusPaymentRequired},
			{"Oversell", "/sell", `{"symbol":"AAPL","shares":7}`, http.StatusConflict},
			{"SellNeverHeld", "/sell", `{"symbol":"MSFT","shares":1}`, http.StatusConflict},
			{"MalformedBody", "/sell", `{"symbol":`, http.StatusBadRequest},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				resp, body := makeRequest(t, "POST", tc.path, token, strings.NewReader(tc.body))
				defer resp.Body.Close()
				assert.Equal(t, tc.status, resp.StatusCode, body)
			})
		}

		// Nothing above changed the ledger.
		resp, body := makeRequest(t, "GET", "/history", token, nil)
		defer resp.Body.Close()
		assert.Len(t, decodeMap(t, body)["data"].([]interface{}), 2)
	})
}

// TestMarketIntegration tests quote lookup and the screener report.
func TestMarketIntegration(t *testing.T) {
	clearDatabase(t)
	token := registerUser(t, "viewer")

	t.Run("Quote", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/quote/msft", token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		q := decodeMap(t, body)
		assert.Equal(t, "MSFT", q["symbol"])
		assert.Equal(t, "MSFT Inc.", q["name"])
		assert.True(t, decimal.NewFromInt(300).Equal(decimalField(t, q, "price")))
	})

	t.Run("UnknownQuote", func(t *testing.T) {
		resp, _ := makeRequest(t, "GET", "/quote/NOPE", token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Analysis", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/analysis", token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		report := decodeMap(t, body)
		assert.Len(t, report["rows"].([]interface{}), 50)
	})
}
