package store

import (
	"context"
	"sync"
	"time"

	"github.com/arjundev/vidtubebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryUserStore is a mutex-guarded in-memory UserStore. It backs the
// service and handler tests and mirrors the Mongo implementation's
// conditional-update semantics.
type MemoryUserStore struct {
	mu            sync.Mutex
	users         map[bson.ObjectID]*models.User
	subscriptions []models.Subscription
	videos        map[bson.ObjectID]*models.Video
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[bson.ObjectID]*models.User),
		videos: make(map[bson.ObjectID]*models.Video),
	}
}

// AddSubscription and AddVideo seed relation data for the read views.
func (s *MemoryUserStore) AddSubscription(sub models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, sub)
}

func (s *MemoryUserStore) AddVideo(video *models.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if video.ID.IsZero() {
		video.ID = bson.NewObjectID()
	}
	s.videos[video.ID] = video
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := s.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return true, nil
	}
	if err == ErrNotFound {
		return false, nil
	}
	return false, err
}

func (s *MemoryUserStore) SetRefreshTokenHash(_ context.Context, id bson.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.RefreshTokenHash = hash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) RotateRefreshTokenHash(_ context.Context, id bson.ObjectID, oldHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok || user.RefreshTokenHash != oldHash {
		return ErrNoMatch
	}
	user.RefreshTokenHash = newHash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) SetPasswordHash(_ context.Context, id bson.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id bson.ObjectID, fullName, email *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if email != nil {
		for _, u := range s.users {
			if u.ID != id && u.Email == *email {
				return nil, ErrDuplicate
			}
		}
		user.Email = *email
	}
	if fullName != nil {
		user.FullName = *fullName
	}
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) SetAvatar(_ context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.setField(id, func(u *models.User) { u.Avatar = url })
}

func (s *MemoryUserStore) SetCoverImage(_ context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.setField(id, func(u *models.User) { u.CoverImage = url })
}

func (s *MemoryUserStore) setField(id bson.ObjectID, apply func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) AddToWatchHistory(_ context.Context, id, videoID bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, v := range user.WatchHistory {
		if v == videoID {
			return nil
		}
	}
	user.WatchHistory = append(user.WatchHistory, videoID)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) ChannelProfile(_ context.Context, username string, viewer bson.ObjectID) (*models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var channel *models.User
	for _, u := range s.users {
		if u.Username == username {
			channel = u
			break
		}
	}
	if channel == nil {
		return nil, ErrNotFound
	}

	profile := &models.ChannelProfile{
		ID:         channel.ID,
		Username:   channel.Username,
		Email:      channel.Email,
		FullName:   channel.FullName,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
	}
	for _, sub := range s.subscriptions {
		if sub.Channel == channel.ID {
			profile.SubscriberCount++
			if sub.Subscriber == viewer {
				profile.IsSubscribed = true
			}
		}
		if sub.Subscriber == channel.ID {
			profile.SubscribedTo++
		}
	}
	return profile, nil
}

func (s *MemoryUserStore) WatchHistory(_ context.Context, id bson.ObjectID) ([]models.WatchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	entries := make([]models.WatchHistoryEntry, 0, len(user.WatchHistory))
	for _, vid := range user.WatchHistory {
		video, ok := s.videos[vid]
		if !ok {
			continue
		}
		entry := models.WatchHistoryEntry{
			ID:        video.ID,
			VideoFile: video.VideoFile,
			Thumbnail: video.Thumbnail,
			Title:     video.Title,
			Duration:  video.Duration,
			Views:     video.Views,
		}
		if owner, ok := s.users[video.Owner]; ok {
			entry.Owner = models.VideoOwner{
				ID:       owner.ID,
				Username: owner.Username,
				FullName: owner.FullName,
				Avatar:   owner.Avatar,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
