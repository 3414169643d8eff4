// Package store persists user accounts and the read projections built on
// top of them. The Mongo implementation is the single source of truth at
// runtime; the in-memory implementation backs tests.
package store

import (
	"context"
	"errors"

	"github.com/arjundev/vidtubebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotFound — no record matched the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate — a unique index (username or email) was violated.
	ErrDuplicate = errors.New("duplicate record")

	// ErrNoMatch — a conditional update matched no record, i.e. the
	// expected field value changed underneath the caller.
	ErrNoMatch = errors.New("conditional update matched nothing")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// SetRefreshTokenHash overwrites the stored hash unconditionally.
	// Login stores a fresh hash; logout clears it with "".
	SetRefreshTokenHash(ctx context.Context, id bson.ObjectID, hash string) error

	// RotateRefreshTokenHash swaps oldHash for newHash only if oldHash is
	// still the stored value. Returns ErrNoMatch when a concurrent login,
	// refresh or logout got there first.
	RotateRefreshTokenHash(ctx context.Context, id bson.ObjectID, oldHash, newHash string) error

	SetPasswordHash(ctx context.Context, id bson.ObjectID, hash string) error
	UpdateProfile(ctx context.Context, id bson.ObjectID, fullName, email *string) (*models.User, error)
	SetAvatar(ctx context.Context, id bson.ObjectID, url string) (*models.User, error)
	SetCoverImage(ctx context.Context, id bson.ObjectID, url string) (*models.User, error)

	AddToWatchHistory(ctx context.Context, id, videoID bson.ObjectID) error
	ChannelProfile(ctx context.Context, username string, viewer bson.ObjectID) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, id bson.ObjectID) ([]models.WatchHistoryEntry, error)
}
