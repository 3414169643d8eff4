package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/arjundev/vidtubebackend/auth"
	"github.com/arjundev/vidtubebackend/models"
	"github.com/arjundev/vidtubebackend/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// SessionPair is the access+refresh token pair issued as a unit on login
// and refresh.
type SessionPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string

	// Local temp-file paths of the uploaded images. Avatar is mandatory,
	// cover image optional (empty path). The media store removes the temp
	// files whether or not the uploads succeed.
	AvatarPath     string
	CoverImagePath string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || in.Password == "" || fullName == "" {
		return nil, fail(ErrValidation, "all fields are required")
	}
	if err := s.emailPolicy(email); err != nil {
		return nil, fail(ErrValidation, err.Error())
	}

	exists, err := s.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fail(ErrConflict, "user already registered with this email/username")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	if in.AvatarPath == "" {
		return nil, fail(ErrValidation, "avatar file is required")
	}
	avatarURL, err := s.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, fail(ErrValidation, "avatar file is required, upload failed")
	}

	coverURL := ""
	if in.CoverImagePath != "" {
		// Cover image is optional; a failed upload degrades to no cover.
		coverURL, err = s.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			log.Println("cover image upload failed:", err)
			coverURL = ""
		}
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	}

	if err := s.store.Create(ctx, user); err != nil {
		// The assets are already uploaded; compensate before surfacing.
		s.deleteAssets(ctx, avatarURL, coverURL)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fail(ErrConflict, "user already registered with this email/username")
		}
		return nil, fail(ErrInternal, "something went wrong while registering user")
	}

	created, err := s.store.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fail(ErrInternal, "something went wrong while registering user")
	}
	return created, nil
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, *SessionPair, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" && email == "" {
		return nil, nil, fail(ErrValidation, "username or email is required")
	}

	user, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, nil, err
	}

	if in.Password == "" {
		return nil, nil, fail(ErrValidation, "password is required")
	}
	if !s.hasher.Check(user.PasswordHash, in.Password) {
		return nil, nil, fail(ErrAuth, "invalid credentials")
	}

	pair, err := s.issuePair(ctx, user.ID, "")
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout clears the account's live refresh token. The previously issued
// refresh token stays cryptographically valid but no longer matches the
// store, so Refresh rejects it.
func (s *Service) Logout(ctx context.Context, userID bson.ObjectID) error {
	if err := s.store.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrNotFound, "user does not exist")
		}
		return err
	}
	return nil
}

// Refresh verifies the presented refresh token against both its signature
// and the stored hash, then rotates the pair. Signature validity alone is
// not enough: logout and re-login must revoke still-unexpired tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.User, *SessionPair, error) {
	if refreshToken == "" {
		return nil, nil, fail(ErrAuth, "refresh token is required")
	}

	uid, err := s.tokens.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, fail(ErrAuth, "refresh token is expired")
		}
		return nil, nil, fail(ErrAuth, "invalid refresh token")
	}

	id, err := bson.ObjectIDFromHex(uid)
	if err != nil {
		return nil, nil, fail(ErrAuth, "invalid refresh token")
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fail(ErrNotFound, "user does not exist")
		}
		return nil, nil, err
	}

	presented := auth.HashToken(refreshToken)
	if user.RefreshTokenHash == "" || user.RefreshTokenHash != presented {
		return nil, nil, fail(ErrAuth, "refresh token is expired or used")
	}

	pair, err := s.issuePair(ctx, user.ID, presented)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID bson.ObjectID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fail(ErrValidation, "new password is required")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrNotFound, "user does not exist")
		}
		return err
	}

	if !s.hasher.Check(user.PasswordHash, oldPassword) {
		return fail(ErrAuth, "old password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	// The live refresh token is deliberately left alone: changing the
	// password does not log out other sessions.
	return s.store.SetPasswordHash(ctx, userID, hash)
}

// issuePair issues a fresh token pair and installs the new refresh hash.
// With oldHash set the swap is conditional, so two concurrent refreshes
// of the same token cannot both win; with oldHash empty (login) the write
// overwrites whatever was there, last writer wins.
func (s *Service) issuePair(ctx context.Context, userID bson.ObjectID, oldHash string) (*SessionPair, error) {
	access, err := s.tokens.IssueAccess(userID.Hex())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(userID.Hex())
	if err != nil {
		return nil, err
	}

	newHash := auth.HashToken(refresh)
	if oldHash == "" {
		err = s.store.SetRefreshTokenHash(ctx, userID, newHash)
	} else {
		err = s.store.RotateRefreshTokenHash(ctx, userID, oldHash, newHash)
	}
	if err != nil {
		if errors.Is(err, store.ErrNoMatch) {
			return nil, fail(ErrAuth, "refresh token is expired or used")
		}
		return nil, err
	}

	return &SessionPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) deleteAssets(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.media.Delete(ctx, url); err != nil {
			log.Println("orphaned asset cleanup failed:", err)
		}
	}
}
