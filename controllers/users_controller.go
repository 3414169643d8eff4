package controllers

import (
	"context"
	"net/http"

	"github.com/arjundev/vidtubebackend/dto"
	"github.com/arjundev/vidtubebackend/models"
	"github.com/arjundev/vidtubebackend/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func currentUserID(c *gin.Context) (bson.ObjectID, bool) {
	raw, ok := c.Get("userID")
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(raw.(string))
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

// GET /users/me
func CurrentUser(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		user, err := s.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, user, "current user fetched")
	}
}

// POST /users/change-password
func ChangePassword(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}

		if err := s.ChangePassword(c.Request.Context(), userID, body.OldPassword, body.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, nil, "password changed successfully")
	}
}

// PATCH /users/me
func UpdateProfile(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		var body dto.UpdateProfileDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBindError(c, err)
			return
		}

		user, err := s.UpdateProfile(c.Request.Context(), userID, body.FullName, body.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, user, "profile updated")
	}
}

// PATCH /users/me/avatar (multipart "avatar")
func UpdateAvatar(s *service.Service) gin.HandlerFunc {
	return updateImage(s, "avatar", (*service.Service).UpdateAvatar, "avatar updated")
}

// PATCH /users/me/cover-image (multipart "coverImage")
func UpdateCoverImage(s *service.Service) gin.HandlerFunc {
	return updateImage(s, "coverImage", (*service.Service).UpdateCoverImage, "cover image updated")
}

func updateImage(
	s *service.Service,
	field string,
	apply func(*service.Service, context.Context, bson.ObjectID, string) (*models.User, error),
	message string,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		localPath, err := saveTemp(c, field)
		if err != nil {
			respondBindError(c, err)
			return
		}

		user, err := apply(s, c.Request.Context(), userID, localPath)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, user, message)
	}
}

// GET /users/channel/:username
func ChannelProfile(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, _ := currentUserID(c)

		profile, err := s.ChannelProfile(c.Request.Context(), c.Param("username"), viewer)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, profile, "channel profile fetched")
	}
}

// GET /users/history
func WatchHistory(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		entries, err := s.WatchHistory(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, entries, "watch history fetched")
	}
}

// POST /users/history/:videoId
func RecordWatch(s *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, service.ErrAuth)
			return
		}

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			respondError(c, service.ErrValidation)
			return
		}

		if err := s.RecordWatch(c.Request.Context(), userID, videoID); err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, nil, "video recorded in watch history")
	}
}
