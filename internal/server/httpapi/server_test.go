package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/logging"
	"github.com/samifathi/invoice-api/internal/server/auth"
	"github.com/samifathi/invoice-api/internal/server/config"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes ---

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

type fakeUserAPI struct {
	registerResult *services.AuthResult
	registerErr    error
	loginResult    *services.AuthResult
	loginErr       error
	activeUser     *models.User
	activeErr      error
	profileUser    *models.User
	profileErr     error
	updateUser     *models.User
	updateErr      error
	changeErr      error
}

func (f *fakeUserAPI) Register(context.Context, services.RegisterInput) (*services.AuthResult, error) {
	return f.registerResult, f.registerErr
}

func (f *fakeUserAPI) Login(context.Context, string, string) (*services.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeUserAPI) GetActiveUser(context.Context, int64) (*models.User, error) {
	return f.activeUser, f.activeErr
}

func (f *fakeUserAPI) GetProfile(context.Context, int64) (*models.User, error) {
	return f.profileUser, f.profileErr
}

func (f *fakeUserAPI) UpdateProfile(context.Context, int64, services.ProfileUpdateInput) (*models.User, error) {
	return f.updateUser, f.updateErr
}

func (f *fakeUserAPI) ChangePassword(context.Context, int64, string, string) error {
	return f.changeErr
}

type fakeInvoiceAPI struct {
	createResult *models.Invoice
	createErr    error
	listResult   []*models.Invoice
	listErr      error
	getResult    *models.Invoice
	getErr       error
	updateResult *models.Invoice
	updateErr    error
	deleteErr    error

	lastIdentity *models.Identity
}

func (f *fakeInvoiceAPI) Create(_ context.Context, identity *models.Identity, _ services.InvoiceInput) (*models.Invoice, error) {
	f.lastIdentity = identity
	return f.createResult, f.createErr
}

func (f *fakeInvoiceAPI) List(_ context.Context, identity *models.Identity) ([]*models.Invoice, error) {
	f.lastIdentity = identity
	return f.listResult, f.listErr
}

func (f *fakeInvoiceAPI) Get(_ context.Context, identity *models.Identity, _ int64) (*models.Invoice, error) {
	f.lastIdentity = identity
	return f.getResult, f.getErr
}

func (f *fakeInvoiceAPI) Update(_ context.Context, identity *models.Identity, _ int64, _ services.InvoiceInput) (*models.Invoice, error) {
	f.lastIdentity = identity
	return f.updateResult, f.updateErr
}

func (f *fakeInvoiceAPI) Delete(_ context.Context, identity *models.Identity, _ int64) error {
	f.lastIdentity = identity
	return f.deleteErr
}

// --- helpers ---

const testSecret = "test-secret"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	cfg.DatabaseDSN = "postgres://test"
	cfg.Environment = "test"
	return cfg
}

func activeUser(role models.Role) *models.User {
	return &models.User{
		ID:         7,
		Name:       "Test User",
		Email:      "user@example.com",
		Role:       role,
		Department: models.DepartmentFinance,
		IsActive:   true,
	}
}

func tokenFor(t *testing.T, user *models.User, validity time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken(&models.Identity{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
	}, []byte(testSecret), validity)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func newTestServer(cfg *config.Config, users UserAPI, invoices InvoiceAPI) *Server {
	if users == nil {
		users = &fakeUserAPI{}
	}
	if invoices == nil {
		invoices = &fakeInvoiceAPI{}
	}
	return NewServer(cfg, nopLogger{}, users, invoices)
}

type testEnvelope struct {
	Success bool
	Message string
	Data    map[string]any
	Error   *struct {
		Code    string
		Message string
		Errors  []map[string]any
	}
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func assertErrorCode(t *testing.T, status int, env testEnvelope, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status: got %d want %d (env %+v)", status, wantStatus, env)
	}
	if env.Success {
		t.Fatalf("error response must not be marked successful: %+v", env)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("error code: got %+v want %s", env.Error, wantCode)
	}
}

// --- tests ---

func TestHealth(t *testing.T) {
	s := newTestServer(testConfig(), nil, nil)

	status, env := doRequest(t, s, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("health: status %d env %+v", status, env)
	}
}

func TestAuthGate_NoToken(t *testing.T) {
	s := newTestServer(testConfig(), nil, nil)

	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", "", nil)
	assertErrorCode(t, status, env, http.StatusUnauthorized, "NO_TOKEN")
}

func TestAuthGate_MalformedHeader(t *testing.T) {
	s := newTestServer(testConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed header: status %d", rec.Code)
	}
}

func TestAuthGate_InvalidToken(t *testing.T) {
	s := newTestServer(testConfig(), nil, nil)

	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", "not-a-jwt", nil)
	assertErrorCode(t, status, env, http.StatusForbidden, "INVALID_TOKEN")
}

func TestAuthGate_ExpiredToken(t *testing.T) {
	s := newTestServer(testConfig(), nil, nil)

	token := tokenFor(t, activeUser(models.RoleViewer), -time.Minute)
	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", token, nil)
	assertErrorCode(t, status, env, http.StatusForbidden, "TOKEN_EXPIRED")
}

func TestAuthGate_DeactivatedUser(t *testing.T) {
	users := &fakeUserAPI{activeErr: common.ErrorAccountInactive}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, activeUser(models.RoleViewer), time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", token, nil)
	assertErrorCode(t, status, env, http.StatusUnauthorized, "INVALID_USER")
}

func TestAuthGate_DeletedUser(t *testing.T) {
	users := &fakeUserAPI{activeErr: common.ErrorNotFound}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, activeUser(models.RoleViewer), time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", token, nil)
	assertErrorCode(t, status, env, http.StatusUnauthorized, "INVALID_USER")
}

func TestAuthGate_ValidToken(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user, profileUser: user}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", token, nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("profile: status %d env %+v", status, env)
	}
	if env.Data["user"] == nil {
		t.Fatalf("profile data missing user: %+v", env.Data)
	}
}

func TestRoleGate_ViewerCannotCreateInvoice(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodPost, "/api/invoices", token, gin.H{})
	assertErrorCode(t, status, env, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")
}

func TestRoleGate_LiveRoleWins(t *testing.T) {
	// Token was minted while the user was an admin, but the stored role is
	// viewer now. The gate must use the stored role.
	tokenUser := activeUser(models.RoleAdmin)
	storedUser := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: storedUser}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, tokenUser, time.Hour)
	status, env := doRequest(t, s, http.MethodPost, "/api/invoices", token, gin.H{})
	assertErrorCode(t, status, env, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")
}

func TestRoleGate_AccountantCreatesInvoice(t *testing.T) {
	user := activeUser(models.RoleAccountant)
	users := &fakeUserAPI{activeUser: user}
	invoices := &fakeInvoiceAPI{createResult: &models.Invoice{ID: 1, InvoiceNumber: "INV-2026-00001"}}
	s := newTestServer(testConfig(), users, invoices)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodPost, "/api/invoices", token, gin.H{"customerName": "Acme"})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("create: status %d env %+v", status, env)
	}
	if invoices.lastIdentity == nil || invoices.lastIdentity.UserID != user.ID {
		t.Fatalf("identity not forwarded: %+v", invoices.lastIdentity)
	}
}

func TestRoleGate_AccountantCannotDelete(t *testing.T) {
	user := activeUser(models.RoleAccountant)
	users := &fakeUserAPI{activeUser: user}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodDelete, "/api/invoices/1", token, nil)
	assertErrorCode(t, status, env, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")
}

func TestRegister_Success(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{registerResult: &services.AuthResult{User: user, Token: "tok"}}
	s := newTestServer(testConfig(), users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Test User", "email": "user@example.com", "password": "secret1", "department": "finance",
	})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("register: status %d env %+v", status, env)
	}
	if env.Data["token"] != "tok" {
		t.Fatalf("register data missing token: %+v", env.Data)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &fakeUserAPI{registerErr: common.ErrorUserExists}
	s := newTestServer(testConfig(), users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/register", "", gin.H{})
	assertErrorCode(t, status, env, http.StatusConflict, "USER_EXISTS")
}

func TestRegister_ValidationEnvelope(t *testing.T) {
	verr := &common.ValidationError{}
	verr.Add("name", "name is required")
	verr.Add("email", "invalid email format")
	users := &fakeUserAPI{registerErr: verr}
	s := newTestServer(testConfig(), users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/register", "", gin.H{})
	assertErrorCode(t, status, env, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	if len(env.Error.Errors) != 2 {
		t.Fatalf("want 2 field errors, got %+v", env.Error.Errors)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &fakeUserAPI{loginErr: common.ErrorInvalidCredentials}
	s := newTestServer(testConfig(), users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "user@example.com", "password": "wrong",
	})
	assertErrorCode(t, status, env, http.StatusUnauthorized, "INVALID_CREDENTIALS")
}

func TestLogin_InactiveAccount(t *testing.T) {
	users := &fakeUserAPI{loginErr: common.ErrorAccountInactive}
	s := newTestServer(testConfig(), users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "user@example.com", "password": "secret1",
	})
	assertErrorCode(t, status, env, http.StatusForbidden, "ACCOUNT_INACTIVE")
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user, changeErr: common.ErrorInvalidPassword}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodPut, "/api/auth/change-password", token, gin.H{
		"currentPassword": "wrong", "newPassword": "secret2",
	})
	assertErrorCode(t, status, env, http.StatusUnauthorized, "INVALID_PASSWORD")
}

func TestGetInvoice_NotFound(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user}
	invoices := &fakeInvoiceAPI{getErr: common.ErrorNotFound}
	s := newTestServer(testConfig(), users, invoices)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/invoices/5", token, nil)
	assertErrorCode(t, status, env, http.StatusNotFound, "INVOICE_NOT_FOUND")
}

func TestGetInvoice_InvalidID(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user}
	s := newTestServer(testConfig(), users, nil)

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/invoices/abc", token, nil)
	assertErrorCode(t, status, env, http.StatusBadRequest, "INVALID_ID")
}

func TestListInvoices_EmptyIsArray(t *testing.T) {
	user := activeUser(models.RoleViewer)
	users := &fakeUserAPI{activeUser: user}
	s := newTestServer(testConfig(), users, &fakeInvoiceAPI{})

	token := tokenFor(t, user, time.Hour)
	status, env := doRequest(t, s, http.MethodGet, "/api/invoices", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d env %+v", status, env)
	}
	if _, ok := env.Data["invoices"].([]any); !ok {
		t.Fatalf("empty list must serialize as an array: %+v", env.Data)
	}
	if env.Data["count"].(float64) != 0 {
		t.Fatalf("count mismatch: %+v", env.Data)
	}
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 2
	users := &fakeUserAPI{loginErr: common.ErrorInvalidCredentials}
	s := newTestServer(cfg, users, nil)

	body := gin.H{"email": "user@example.com", "password": "wrong"}
	for i := 0; i < 2; i++ {
		status, _ := doRequest(t, s, http.MethodPost, "/api/auth/login", "", body)
		if status != http.StatusUnauthorized {
			t.Fatalf("request %d: status %d", i+1, status)
		}
	}

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/login", "", body)
	assertErrorCode(t, status, env, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED")
}

func TestAPIRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.APIRateLimit = 3
	s := newTestServer(cfg, nil, nil)

	for i := 0; i < 3; i++ {
		status, _ := doRequest(t, s, http.MethodGet, "/api/auth/profile", "", nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("request %d: status %d", i+1, status)
		}
	}

	status, env := doRequest(t, s, http.MethodGet, "/api/auth/profile", "", nil)
	assertErrorCode(t, status, env, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED")
}

func TestInternalError_HidesDetailInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "production"
	users := &fakeUserAPI{loginErr: context.DeadlineExceeded}
	s := newTestServer(cfg, users, nil)

	status, env := doRequest(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "user@example.com", "password": "secret1",
	})
	assertErrorCode(t, status, env, http.StatusInternalServerError, "INTERNAL_ERROR")
	if env.Error.Message != "An unexpected error occurred" {
		t.Fatalf("internal error must not leak detail: %+v", env.Error)
	}
}
