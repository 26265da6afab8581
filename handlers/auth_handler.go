package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizio/services"
)

// cookieMaxAge matches the 7-day token validity window, in seconds.
const cookieMaxAge = 604800

type AuthHandler struct {
	authService *services.AuthService
	cookieName  string
}

func NewAuthHandler(authService *services.AuthService, cookieName string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieName:  cookieName,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Signup(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, user.Token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, user.Token)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logout clears the session cookie. Issued tokens stay valid until their
// natural expiry; this is a cookie-level action only.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSession is the soft session probe: no cookie or a bad token yields
// {"user": null} with a 200, never an error.
func (h *AuthHandler) GetSession(c *gin.Context) {
	token, _ := c.Cookie(h.cookieName)

	user, err := h.authService.GetSession(token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.UpdateProfile(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) GetUserByID(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) GetUsernameByID(c *gin.Context) {
	name, err := h.authService.GetUsernameByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(h.cookieName, token, cookieMaxAge, "/", "", false, true)
}
