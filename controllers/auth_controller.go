package controllers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/arjundev/vidtubebackend/config"
	"github.com/arjundev/vidtubebackend/dto"
	"github.com/arjundev/vidtubebackend/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /users/register (multipart: fields + avatar/coverImage files)
func Register(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			respondBindError(c, err)
			return
		}

		avatarPath, err := saveTemp(c, "avatar")
		if err != nil {
			respondBindError(c, err)
			return
		}
		// Optional; empty path when the field is absent.
		coverPath, _ := saveTemp(c, "coverImage")

		user, err := s.Register(c.Request.Context(), service.RegisterInput{
			Username:       body.Username,
			Email:          body.Email,
			Password:       body.Password,
			FullName:       body.FullName,
			AvatarPath:     avatarPath,
			CoverImagePath: coverPath,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		respond(c, http.StatusCreated, user, "user registered successfully")
	}
}

// POST /users/login
func Login(s *service.Service, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}

		user, pair, err := s.Login(c.Request.Context(), service.LoginInput{
			Username: body.Username,
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		setSessionCookies(c, cfg, pair)
		respond(c, http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "user logged in successfully")
	}
}

// POST /users/logout (authenticated)
func Logout(s *service.Service, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		if err := s.Logout(c.Request.Context(), userID); err != nil {
			respondError(c, err)
			return
		}

		clearSessionCookies(c, cfg)
		respond(c, http.StatusOK, nil, "user logged out")
	}
}

// POST /users/refresh-token — the refresh token comes from the cookie,
// with a request-body fallback.
func Refresh(s *service.Service, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, _ := c.Cookie("refreshToken")
		if refreshToken == "" {
			var body dto.RefreshDTO
			if err := c.ShouldBindJSON(&body); err == nil {
				refreshToken = body.RefreshToken
			}
		}

		_, pair, err := s.Refresh(c.Request.Context(), refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}

		setSessionCookies(c, cfg, pair)
		respond(c, http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "access token refreshed")
	}
}

// saveTemp writes the named multipart file to a unique path under the OS
// temp dir; the media store removes it after the upload attempt.
func saveTemp(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	return saveTempFile(c, fh)
}

func saveTempFile(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	dst := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}
