package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/customer-api/internal/models"
)

// RequestID asigna un identificador único a cada request si el cliente
// no envió uno, y lo propaga en la respuesta
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// AdminAuthMiddleware restringe la operación a la credencial del
// administrador vía HTTP Basic. El directorio de un solo usuario es un
// placeholder: cambiar el mecanismo de verificación no toca los handlers.
func (api *API) AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="customers"`)
			c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Authentication required"))
			c.Abort()
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(api.cfg.Auth.AdminUser)) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(api.cfg.Auth.AdminPassword)) == 1
		if !userMatch || !passwordMatch {
			c.Header("WWW-Authenticate", `Basic realm="customers"`)
			c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid credentials"))
			c.Abort()
			return
		}

		c.Next()
	}
}
