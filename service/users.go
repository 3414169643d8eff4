package service

import (
	"context"
	"errors"
	"log"

	"github.com/arjundev/vidtubebackend/models"
	"github.com/arjundev/vidtubebackend/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (s *Service) CurrentUser(ctx context.Context, userID bson.ObjectID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID bson.ObjectID, fullName, email *string) (*models.User, error) {
	if fullName == nil && email == nil {
		return nil, fail(ErrValidation, "nothing to update")
	}
	if fullName != nil && *fullName == "" {
		return nil, fail(ErrValidation, "full name must not be blank")
	}
	if email != nil {
		normalized := normalizeEmail(*email)
		if err := s.emailPolicy(normalized); err != nil {
			return nil, fail(ErrValidation, err.Error())
		}
		email = &normalized
	}

	user, err := s.store.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, fail(ErrNotFound, "user does not exist")
		case errors.Is(err, store.ErrDuplicate):
			return nil, fail(ErrConflict, "email already in use")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID bson.ObjectID, localPath string) (*models.User, error) {
	return s.replaceImage(ctx, userID, localPath,
		func(u *models.User) string { return u.Avatar },
		s.store.SetAvatar,
	)
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID bson.ObjectID, localPath string) (*models.User, error) {
	return s.replaceImage(ctx, userID, localPath,
		func(u *models.User) string { return u.CoverImage },
		s.store.SetCoverImage,
	)
}

func (s *Service) replaceImage(
	ctx context.Context,
	userID bson.ObjectID,
	localPath string,
	current func(*models.User) string,
	persist func(context.Context, bson.ObjectID, string) (*models.User, error),
) (*models.User, error) {
	if localPath == "" {
		return nil, fail(ErrValidation, "image file is required")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, err
	}
	old := current(user)

	url, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return nil, fail(ErrUpstream, "image upload failed")
	}

	updated, err := persist(ctx, userID, url)
	if err != nil {
		s.deleteAssets(ctx, url)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, fail(ErrInternal, "failed to persist image")
	}

	if old != "" {
		// Replaced asset; deletion is best effort.
		if err := s.media.Delete(ctx, old); err != nil {
			log.Println("replaced asset cleanup failed:", err)
		}
	}
	return updated, nil
}

func (s *Service) ChannelProfile(ctx context.Context, username string, viewer bson.ObjectID) (*models.ChannelProfile, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, fail(ErrValidation, "username is required")
	}

	profile, err := s.store.ChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(ErrNotFound, "channel does not exist")
		}
		return nil, err
	}
	return profile, nil
}

func (s *Service) WatchHistory(ctx context.Context, userID bson.ObjectID) ([]models.WatchHistoryEntry, error) {
	entries, err := s.store.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, err
	}
	return entries, nil
}

func (s *Service) RecordWatch(ctx context.Context, userID, videoID bson.ObjectID) error {
	if err := s.store.AddToWatchHistory(ctx, userID, videoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrNotFound, "user does not exist")
		}
		return err
	}
	return nil
}
