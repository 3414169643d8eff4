package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID               bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username         string          `bson:"username" json:"username"`
	Email            string          `bson:"email" json:"email"`
	FullName         string          `bson:"fullName" json:"fullName"`
	PasswordHash     string          `bson:"passwordHash" json:"-"` // never expose
	Avatar           string          `bson:"avatar" json:"avatar"`
	CoverImage       string          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	RefreshTokenHash string          `bson:"refreshTokenHash,omitempty" json:"-"` // sha256 of the one live refresh token
	WatchHistory     []bson.ObjectID `bson:"watchHistory,omitempty" json:"-"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Subscription links a subscriber to the channel (also a user) they follow.
type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// ChannelProfile is the read projection returned for a channel page:
// public user fields plus subscription counts computed by aggregation.
type ChannelProfile struct {
	ID              bson.ObjectID `bson:"_id" json:"id"`
	Username        string        `bson:"username" json:"username"`
	Email           string        `bson:"email" json:"email"`
	FullName        string        `bson:"fullName" json:"fullName"`
	Avatar          string        `bson:"avatar" json:"avatar"`
	CoverImage      string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscriberCount int64         `bson:"subscriberCount" json:"subscriberCount"`
	SubscribedTo    int64         `bson:"subscribedTo" json:"subscribedTo"`
	IsSubscribed    bool          `bson:"isSubscribed" json:"isSubscribed"`
}
