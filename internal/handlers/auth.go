package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/middleware"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/utils"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *logger.Logger
	cfg  config.AuthConfig
}

func NewAuthHandler(auth *services.AuthService, log *logger.Logger, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: auth, log: log, cfg: cfg}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.Phone == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Phone and password are required", ""))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrPhoneTaken) {
			c.JSON(http.StatusConflict, utils.ErrorResponse("Phone number already registered", ""))
			return
		}
		h.log.Error("AUTH", "Registration failed: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Registration failed", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Invalid phone or password", ""))
			return
		}
		h.log.Error("AUTH", "Login failed: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Login failed", err.Error()))
		return
	}

	h.setAccessCookie(c, token.AccessToken, int(h.cfg.TokenTTL.Seconds()))
	c.JSON(http.StatusOK, token)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.ExtractToken(c, h.cfg.CookieName); token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			h.log.Error("AUTH", "Logout failed: "+err.Error())
		}
	}

	h.setAccessCookie(c, "", -1)
	c.JSON(http.StatusOK, utils.SuccessResponse("Logged out", nil))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Not authenticated", ""))
		return
	}
	c.JSON(http.StatusOK, user.Out())
}

func (h *AuthHandler) setAccessCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, token, maxAge, "/", "", h.cfg.CookieSecure, true)
}
