package controllers

import (
	"net/http"
	"time"

	"github.com/arjundev/vidtubebackend/config"
	"github.com/arjundev/vidtubebackend/service"
	"github.com/gin-gonic/gin"
)

// Session state travels in two cookies, accessToken and refreshToken,
// both http-only. SameSite=None so browser clients on other origins can
// send them with credentials.
func setSessionCookies(c *gin.Context, cfg config.Config, pair *service.SessionPair) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		MaxAge:   int(cfg.JWT.AccessTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		MaxAge:   int(cfg.JWT.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearSessionCookies(c *gin.Context, cfg config.Config) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.Cookie.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Cookie.Secure,
			SameSite: http.SameSiteNoneMode,
		})
	}
}
