package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/myreadsapp/myreads/pkg/binder"
	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/myreadsapp/myreads/pkg/migrations"
	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func signupTestUser(t *testing.T, svc *Service, username, password string) *models.User {
	t.Helper()

	user, err := svc.Signup(context.Background(), SignupOptions{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestHandler_Signup(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	payload := `{"username":"reader","email":"reader@example.com","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/signup")

	err := h.signup(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "reader", resp.Username)
	assert.Equal(t, "reader@example.com", resp.Email)

	// The session cookie should be set so signup doubles as login.
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// The password must never be stored in the clear.
	user := &models.User{}
	err = db.NewSelect().Model(user).Where("u.username = ?", "reader").Scan(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "securepassword123", user.PasswordHash)
	assert.True(t, CheckPassword("securepassword123", user.PasswordHash))
}

func TestHandler_Signup_DuplicateUsername(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	signupTestUser(t, svc, "reader", "securepassword123")

	// Same username with different casing still collides.
	payload := `{"username":"Reader","email":"other@example.com","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/signup")

	err := h.signup(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	signupTestUser(t, svc, "reader", "securepassword123")

	payload := `{"username":"reader","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "reader", resp.Username)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	signupTestUser(t, svc, "reader", "securepassword123")

	payload := `{"username":"reader","password":"wrongpassword1"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
	assert.Equal(t, "Invalid username or password", errResp.Message)
}

func TestHandler_Login_UnknownUser(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	payload := `{"username":"nobody","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err := h.login(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
	// Same message as a wrong password so usernames can't be probed.
	assert.Equal(t, "Invalid username or password", errResp.Message)
}

func TestHandler_Me(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	user := signupTestUser(t, svc, "reader", "securepassword123")
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	c, rr := newTestContext(t, "", http.MethodGet, "/auth/me")
	c.Request().AddCookie(&http.Cookie{Name: CookieName, Value: token})

	err = h.me(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "reader", resp.Username)
}

func TestHandler_Me_NoCookie(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, rr := newTestContext(t, "", http.MethodGet, "/auth/me")

	err := h.me(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Logout_ClearsCookie(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, rr := newTestContext(t, "", http.MethodPost, "/auth/logout")

	err := h.logout(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
