package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Video struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       bson.ObjectID `bson:"owner" json:"owner"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	IsPublished bool          `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// WatchHistoryEntry is a watched video joined with its owner's public fields.
type WatchHistoryEntry struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	VideoFile string        `bson:"videoFile" json:"videoFile"`
	Thumbnail string        `bson:"thumbnail" json:"thumbnail"`
	Title     string        `bson:"title" json:"title"`
	Duration  float64       `bson:"duration" json:"duration"`
	Views     int64         `bson:"views" json:"views"`
	Owner     VideoOwner    `bson:"owner" json:"owner"`
}

type VideoOwner struct {
	ID       bson.ObjectID `bson:"_id" json:"id"`
	Username string        `bson:"username" json:"username"`
	FullName string        `bson:"fullName" json:"fullName"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}
