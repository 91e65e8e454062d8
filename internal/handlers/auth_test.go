package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/middleware"
	"go.uber.org/zap"
)

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

func (suite *HandlerTestSuite) TestRegister_SetsCookiesAndReturnsUser() {
	w := suite.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "New@Example.com",
		"name":     "New User",
		"password": "password123",
	}, nil)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp sessionResponse
	suite.decode(w, &resp)
	suite.Equal("new@example.com", resp.User.Email)
	suite.NotEmpty(resp.AccessToken)

	access, ok := cookieValue(w, constants.AccessTokenCookieName)
	suite.True(ok)
	suite.Equal(resp.AccessToken, access)
	_, ok = cookieValue(w, constants.RefreshTokenCookieName)
	suite.True(ok)
}

func (suite *HandlerTestSuite) TestRegister_Validation() {
	cases := map[string]map[string]string{
		"missing name":   {"email": "a@example.com", "password": "password123"},
		"short password": {"email": "a@example.com", "name": "A", "password": "short"},
		"taken email":    {"email": "admin@example.com", "name": "A", "password": "password123"},
	}
	for name, body := range cases {
		w := suite.do(http.MethodPost, "/api/auth/register", body, nil)
		suite.Equal(http.StatusBadRequest, w.Code, name)
	}
}

func (suite *HandlerTestSuite) TestLoginRefreshAndMe() {
	suite.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "login@example.com", "name": "Login", "password": "password123",
	}, nil)

	w := suite.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "login@example.com", "password": "wrong-password",
	}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "login@example.com", "password": "password123",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	access, _ := cookieValue(w, constants.AccessTokenCookieName)
	refresh, _ := cookieValue(w, constants.RefreshTokenCookieName)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: access})
	me := httptest.NewRecorder()
	suite.router.ServeHTTP(me, req)
	suite.Equal(http.StatusOK, me.Code)
	suite.Contains(me.Body.String(), "login@example.com")

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: refresh})
	refreshed := httptest.NewRecorder()
	suite.router.ServeHTTP(refreshed, req)
	suite.Equal(http.StatusOK, refreshed.Code, refreshed.Body.String())
}

func (suite *HandlerTestSuite) TestRefresh_AcceptsBodyTokenAndRejectsGarbage() {
	pair, err := suite.tokens.Issue(suite.member.ID, suite.member.Email)
	suite.Require().NoError(err)

	w := suite.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken}, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": pair.AccessToken}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPost, "/api/auth/refresh", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestLogout_ClearsCookies() {
	w := suite.do(http.MethodPost, "/api/auth/logout", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	for _, cookie := range w.Result().Cookies() {
		suite.Empty(cookie.Value, cookie.Name)
		suite.Negative(cookie.MaxAge, cookie.Name)
	}
	suite.Len(w.Result().Cookies(), 2)
}

func (suite *HandlerTestSuite) TestUpdateProfile() {
	w := suite.do(http.MethodPatch, "/api/users/me", map[string]string{"name": "Renamed"}, suite.member)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), "Renamed")
}

func (suite *HandlerTestSuite) TestAuthRoutesAreRateLimited() {
	suite.router = suite.newRouter(middleware.NewRateLimiter(0.001, 1, zap.NewNop()))
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}

	first := suite.do(http.MethodPost, "/api/auth/login", body, nil)
	second := suite.do(http.MethodPost, "/api/auth/login", body, nil)

	suite.Equal(http.StatusUnauthorized, first.Code)
	suite.Equal(http.StatusTooManyRequests, second.Code)

	// other routes are not limited
	health := suite.do(http.MethodGet, "/health", nil, nil)
	suite.Equal(http.StatusOK, health.Code)
	suite.False(strings.Contains(health.Body.String(), "Too many"))
}
