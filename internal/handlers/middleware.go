package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const currentUserKey = "rewear.user"

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			h.log.Error("request failed", append(fields, zap.String("error", c.Errors.String()))...)
			return
		}
		h.log.Debug("request", fields...)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireSession resolves the bearer token to a user and aborts with 401 when
// there is none.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := h.sessions.Resolve(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		u, ok := h.svc.User(claims.UserID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session user no longer exists"})
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": market.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	u, _ := c.MustGet(currentUserKey).(models.User)
	return u
}
