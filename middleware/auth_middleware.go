package middleware

import (
	"net/http"
	"strings"

	"github.com/arjundev/vidtubebackend/auth"
	"github.com/gin-gonic/gin"
)

// Auth resolves the current account from the access token, taken from the
// accessToken cookie or a Bearer header, and injects the user id for the
// handlers behind it.
func Auth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, _ := c.Cookie("accessToken")
		if tokenStr == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"message":    "missing access token",
				"success":    false,
			})
			return
		}

		userID, err := tokens.Verify(tokenStr, auth.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"message":    "invalid or expired access token",
				"success":    false,
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
