package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arjundev/vidtubebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoUserStore struct {
	users         *mongo.Collection
	subscriptions *mongo.Collection
	videos        *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{
		users:         db.Collection("users"),
		subscriptions: db.Collection("subscriptions"),
		videos:        db.Collection("videos"),
	}
}

// EnsureIndexes creates the unique indexes backing the username/email
// uniqueness invariant, plus the indexes the channel and history
// aggregations lean on. Called once at startup.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	return err
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	count, err := s.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoUserStore) SetRefreshTokenHash(ctx context.Context, id bson.ObjectID, hash string) error {
	update := bson.M{"$set": bson.M{
		"refreshTokenHash": hash,
		"updatedAt":        time.Now().UTC(),
	}}
	if hash == "" {
		update = bson.M{
			"$unset": bson.M{"refreshTokenHash": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
	}
	res, err := s.users.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) RotateRefreshTokenHash(ctx context.Context, id bson.ObjectID, oldHash, newHash string) error {
	// Filtering on the current hash makes the read-then-write atomic: a
	// concurrent login/refresh/logout changes the hash and this matches 0.
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id, "refreshTokenHash": oldHash},
		bson.M{"$set": bson.M{
			"refreshTokenHash": newHash,
			"updatedAt":        time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (s *MongoUserStore) SetPasswordHash(ctx context.Context, id bson.ObjectID, hash string) error {
	res, err := s.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id bson.ObjectID, fullName, email *string) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if fullName != nil {
		set["fullName"] = *fullName
	}
	if email != nil {
		set["email"] = *email
	}
	return s.findAndSet(ctx, id, set)
}

func (s *MongoUserStore) SetAvatar(ctx context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.findAndSet(ctx, id, bson.M{"avatar": url, "updatedAt": time.Now().UTC()})
}

func (s *MongoUserStore) SetCoverImage(ctx context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.findAndSet(ctx, id, bson.M{"coverImage": url, "updatedAt": time.Now().UTC()})
}

func (s *MongoUserStore) findAndSet(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) AddToWatchHistory(ctx context.Context, id, videoID bson.ObjectID) error {
	res, err := s.users.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"watchHistory": videoID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) ChannelProfile(ctx context.Context, username string, viewer bson.ObjectID) (*models.ChannelProfile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedChannels",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscriberCount": bson.M{"$size": "$subscribers"},
			"subscribedTo":    bson.M{"$size": "$subscribedChannels"},
			"isSubscribed": bson.M{
				"$in": bson.A{viewer, "$subscribers.subscriber"},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":        1,
			"email":           1,
			"fullName":        1,
			"avatar":          1,
			"coverImage":      1,
			"subscriberCount": 1,
			"subscribedTo":    1,
			"isSubscribed":    1,
		}}},
	}

	cursor, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []models.ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

func (s *MongoUserStore) WatchHistory(ctx context.Context, id bson.ObjectID) ([]models.WatchHistoryEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "videos",
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         "users",
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{
							"username": 1,
							"fullName": 1,
							"avatar":   1,
						}},
					},
				}},
				bson.M{"$addFields": bson.M{
					"owner": bson.M{"$first": "$owner"},
				}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1}}},
	}

	cursor, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		WatchHistory []models.WatchHistoryEntry `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0].WatchHistory, nil
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	// Fallback
	return strings.Contains(err.Error(), "E11000 duplicate key error")
}
