package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/utils"
)

const UserKey = "currentUser"

// ExtractToken pulls the access token from the Authorization header, falling
// back to the auth cookie set at login.
func ExtractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func Auth(auth *services.AuthService, cookieName string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Not authenticated", ""))
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.LogSecurity("AUTH_REJECTED", "Token rejected from IP: "+c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Not authenticated", ""))
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

func RequireAdmin(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			log.LogSecurity("FORBIDDEN", "Non-admin attempt on "+c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse("Admin access required", ""))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
