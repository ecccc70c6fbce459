package integrationtests

import (
	bidding "auction-backend/internal/biddingService"
	"auction-backend/internal/catalog"
	"auction-backend/internal/config"
	"auction-backend/internal/identity"
	"auction-backend/internal/repository"
	"auction-backend/internal/server"
	"auction-backend/utils"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// SetupTestRouter wires the full application on top of an in-memory store
func SetupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return setupRouterWithStore(t, repository.NewMemoryRepo())
}

func setupRouterWithStore(t *testing.T, store repository.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GinMode:            gin.TestMode,
		StoreDriver:        config.DriverMemory,
		SessionSecret:      "integration-test-secret",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	clock := utils.SystemClock{}

	return server.SetupRouter(cfg, server.Services{
		Bidding:  bidding.NewBiddingService(store, bidding.WithClock(clock)),
		Catalog:  catalog.NewCatalogService(store, clock),
		Identity: identity.NewIdentityService(store, clock).WithHashCost(bcrypt.MinCost),
		Clock:    clock,
	})
}

// Client sends requests to the router and keeps the session cookie between them
type Client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func NewClient(t *testing.T, router *gin.Engine) *Client {
	return &Client{t: t, router: router}
}

// Do executes a request and returns the decoded envelope
func (c *Client) Do(method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	c.t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}

	var resp map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			c.t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return resp, w
}

// RegisterAndLogin creates an account and leaves the client logged in as it
func (c *Client) RegisterAndLogin(username string) string {
	c.t.Helper()

	email := username + "@example.com"
	resp, w := c.Do(http.MethodPost, "/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "secret-password",
	})
	if w.Code != http.StatusCreated {
		c.t.Fatalf("register %s: status %d: %v", username, w.Code, resp)
	}
	userID := resp["data"].(map[string]any)["user_id"].(string)

	resp, w = c.Do(http.MethodPost, "/login", map[string]any{"email": email, "password": "secret-password"})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login %s: status %d: %v", username, w.Code, resp)
	}
	return userID
}

// CreateItem lists an item through the API and returns its ID
func (c *Client) CreateItem(name string, startingPrice string, start time.Time, durationMinutes int) string {
	c.t.Helper()

	resp, w := c.Do(http.MethodPost, "/items", map[string]any{
		"name":               name,
		"description":        name + " description",
		"starting_price":     startingPrice,
		"auction_start_time": start.UTC().Format(time.RFC3339),
		"duration_minutes":   durationMinutes,
	})
	if w.Code != http.StatusCreated {
		c.t.Fatalf("create item %s: status %d: %v", name, w.Code, resp)
	}
	return resp["data"].(map[string]any)["item_id"].(string)
}
