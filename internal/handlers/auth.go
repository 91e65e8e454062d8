package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the token
// cookies Secure, which production deployments behind HTTPS want.
func NewAuthHandler(authService *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

type sessionResponse struct {
	User             dto.UserDTO `json:"user"`
	AccessToken      string      `json:"access_token"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshExpiresAt time.Time   `json:"refresh_expires_at"`
}

// Register creates a user and signs them in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Name     string `json:"name" binding:"required,max=100"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.writeSession(c, http.StatusCreated, session)
}

// Login authenticates a user and sets the token cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.writeSession(c, http.StatusOK, session)
}

// Refresh exchanges the refresh token, from its cookie or the body, for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(constants.RefreshTokenCookieName)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		apierrors.Unauthorized(c, "Refresh token required")
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.writeSession(c, http.StatusOK, session)
}

// Logout clears the token cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, constants.AccessTokenCookieName, "", -1)
	h.setCookie(c, constants.RefreshTokenCookieName, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	respond(c, http.StatusOK, user, err)
}

// UpdateProfile changes the caller's name or avatar.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Name            *string `json:"name"`
		ProfileImageURL *string `json:"profile_image_url"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
	})
	respond(c, http.StatusOK, user, err)
}

func (h *AuthHandler) writeSession(c *gin.Context, status int, session *services.Session) {
	now := time.Now()
	h.setCookie(c, constants.AccessTokenCookieName, session.Tokens.AccessToken, int(session.Tokens.AccessExpiresAt.Sub(now).Seconds()))
	h.setCookie(c, constants.RefreshTokenCookieName, session.Tokens.RefreshToken, int(session.Tokens.RefreshExpiresAt.Sub(now).Seconds()))
	c.JSON(status, sessionResponse{
		User:             session.User,
		AccessToken:      session.Tokens.AccessToken,
		AccessExpiresAt:  session.Tokens.AccessExpiresAt,
		RefreshExpiresAt: session.Tokens.RefreshExpiresAt,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secureCookie, true)
}
