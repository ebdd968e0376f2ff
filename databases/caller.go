package databases

// go generate: mockery --name CallerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicsetu/civic-voice-api/models"
)

const callerName = "callers"

// CallerDatabase contains the methods to use with the caller database.
// Uniqueness on the normalized phone number is enforced by a unique index on
// the callers collection.
type CallerDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Caller, error)
	InsertOne(ctx context.Context, caller models.Caller) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
}

type callerDatabase struct {
	db DatabaseHelper
}

// NewCallerDatabase initializes a new instance of caller database with the provided db connection
func NewCallerDatabase(db DatabaseHelper) CallerDatabase {
	return &callerDatabase{
		db: db,
	}
}

func (c *callerDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Caller, error) {
	caller := &models.Caller{}
	err := c.db.Collection(callerName).FindOne(ctx, filter).Decode(caller)
	if err != nil {
		return nil, err
	}
	return caller, nil
}

func (c *callerDatabase) InsertOne(ctx context.Context, caller models.Caller) (interface{}, error) {
	res, err := c.db.Collection(callerName).InsertOne(ctx, caller)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *callerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	res, err := c.db.Collection(callerName).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	return res, nil
}
