package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ctchen222/solo-tictactoe/internal/api/response"
	"ctchen222/solo-tictactoe/internal/api/service"
)

const claimsKey = "claims"

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Auth requires a valid token in the Authorization header or, for browser
// websockets that cannot set headers, the "token" query parameter.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// PlayerID returns the authenticated player's id.
func PlayerID(c *gin.Context) string {
	v, ok := c.Get(claimsKey)
	if !ok {
		return ""
	}
	claims, _ := v.(*service.Claims)
	if claims == nil {
		return ""
	}
	return claims.PlayerID
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
