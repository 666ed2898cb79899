package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
	"github.com/mentorlink/go-mentorship-backend/internal/storage/memory"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	cfg      *config.Config
	store    *memory.Store
	services *service.Services
	handlers *Handlers
	router   *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		Storage:     config.StorageConfig{Type: "memory"},
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpiryHours: 168,
			Issuer:      "test-mentorship",
			CookieName:  "token",
		},
		Security: config.SecurityConfig{
			BcryptCost:     bcrypt.MinCost,
			TokenBlacklist: config.TokenBlacklistConfig{Enabled: true},
		},
	}
}

// setupTestEnv wires the handlers onto a router laid out like the production one
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	cfg := testConfig()
	store := memory.NewStore()
	services := service.NewServices(store, cfg, nil, logger)
	h := NewHandlers(services, cfg, nil, logger)

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/status", h.Status)

	auth := middleware.AuthMiddleware(services.Tokens, cfg.JWT.CookieName, logger)
	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", auth, h.Me)

	users := api.Group("/users")
	users.GET("", h.ListUsers)
	users.GET("/me", auth, h.GetProfile)
	users.PUT("/me/profile", auth, h.UpdateProfile)
	users.GET("/:id", h.GetUser)

	requests := api.Group("/requests", auth)
	requests.POST("", h.CreateRequest)
	requests.GET("/sent", h.ListSentRequests)
	requests.GET("/received", h.ListReceivedRequests)
	requests.GET("/:id", h.GetRequest)
	requests.PUT("/:id", h.RespondToRequest)

	sessions := api.Group("/sessions", auth)
	sessions.POST("", h.ScheduleSession)
	sessions.GET("/mentee", h.ListMenteeSessions)
	sessions.GET("/mentor", h.ListMentorSessions)
	sessions.PUT("/:id/feedback", h.SubmitFeedback)
	sessions.PUT("/:id/cancel", h.CancelSession)

	admin := api.Group("/admin", auth, middleware.RequireLiveRole(services.User, logger, domain.RoleAdmin))
	admin.GET("/users", h.AdminListUsers)
	admin.PUT("/users/:id/role", h.AdminUpdateRole)

	return &testEnv{cfg: cfg, store: store, services: services, handlers: h, router: router}
}

// do sends a JSON request, authenticated with token when it is not empty
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// account is a registered user and its token
type account struct {
	ID    string
	Token string
}

func (e *testEnv) register(t *testing.T, email string, role domain.Role) account {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  "secret123",
		"firstName": "Test",
		"lastName":  "User",
		"role":      string(role),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	decode(t, w, &resp)
	return account{ID: resp.User.ID, Token: resp.Token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
}

func bodyMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	decode(t, w, &m)
	return m
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectMessage(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got, _ := bodyMap(t, w)["message"].(string); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
}

func TestNewHandlers(t *testing.T) {
	cfg := testConfig()
	services := service.NewServices(memory.NewStore(), cfg, nil, zap.NewNop())

	if h := NewHandlers(services, cfg, nil, zap.NewNop()); h == nil {
		t.Fatal("Expected handlers to not be nil")
	}
}

func TestHandlers_Status(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/status", "", nil)
	expectStatus(t, w, http.StatusOK)

	var resp StatusResponse
	decode(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("Expected status 'ok', got %q", resp.Status)
	}
	if resp.APIVersion != CurrentAPIVersion {
		t.Errorf("Expected api_version %d, got %d", CurrentAPIVersion, resp.APIVersion)
	}
	if len(resp.Capabilities) == 0 {
		t.Error("Expected capabilities to be listed")
	}
}

func TestHandlers_Health(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)

	body := bodyMap(t, w)
	if body["message"] != "Server is running!" {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if body["environment"] != "development" {
		t.Errorf("unexpected environment: %v", body["environment"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Error("Expected a timestamp")
	}
}

func TestServerError_HidesDetailInProduction(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			cfg := testConfig()
			cfg.Environment = env
			h := NewHandlers(service.NewServices(memory.NewStore(), cfg, nil, zap.NewNop()), cfg, nil, zap.NewNop())

			router := gin.New()
			router.GET("/boom", func(c *gin.Context) {
				h.serverError(c, "boom", errTest)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
			expectStatus(t, w, http.StatusInternalServerError)

			body := bodyMap(t, w)
			if body["message"] != "Server error" {
				t.Errorf("unexpected message: %v", body["message"])
			}
			_, hasDetail := body["error"]
			if hasDetail == (env == "production") {
				t.Errorf("error detail present=%v in %s", hasDetail, env)
			}
		})
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("storage unavailable")

func TestBindingErrors(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@example.com"})
	expectStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	decode(t, w, &resp)
	if resp.Message != "Validation failed" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	joined := strings.Join(resp.Errors, "|")
	for _, field := range []string{"password", "firstName", "lastName"} {
		if !strings.Contains(joined, field+" is required") {
			t.Errorf("expected %q to be reported, got %v", field, resp.Errors)
		}
	}

	w = env.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	expectStatus(t, w, http.StatusBadRequest)
	decode(t, w, &resp)
	if len(resp.Errors) != 1 || resp.Errors[0] != "Request body must be valid JSON" {
		t.Errorf("unexpected errors for malformed body: %v", resp.Errors)
	}
}
