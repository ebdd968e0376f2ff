package databases

// go generate: mockery --name ComplaintDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicsetu/civic-voice-api/models"
)

const complaintName = "complaints"

// ComplaintDatabase contains the methods to use with the complaint database
type ComplaintDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Complaint, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error)
	FindUnscored(ctx context.Context, limit int) ([]models.Complaint, error)
	InsertOne(ctx context.Context, complaint models.Complaint) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
}

type complaintDatabase struct {
	db DatabaseHelper
}

// NewComplaintDatabase initializes a new instance of complaint database with the provided db connection
func NewComplaintDatabase(db DatabaseHelper) ComplaintDatabase {
	return &complaintDatabase{
		db: db,
	}
}

func (c *complaintDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	err := c.db.Collection(complaintName).FindOne(ctx, filter).Decode(complaint)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (c *complaintDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error) {
	cursor, err := c.db.Collection(complaintName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var complaints []models.Complaint
	if err := cursor.Decode(&complaints); err != nil {
		return nil, err
	}
	return complaints, nil
}

// FindUnscored returns the most recent complaints that have not been through
// the priority engine yet, bounded by limit.
func (c *complaintDatabase) FindUnscored(ctx context.Context, limit int) ([]models.Complaint, error) {
	l := int64(limit)
	opts := options.Find().
		SetLimit(l).
		SetSort(bson.M{"createdAt": -1})
	filter := bson.M{
		"$or": []bson.M{
			{"priorityScore": bson.M{"$exists": false}},
			{"priorityScore": nil},
			{"priorityScore": 0},
		},
	}
	return c.Find(ctx, filter, opts)
}

func (c *complaintDatabase) InsertOne(ctx context.Context, complaint models.Complaint) (interface{}, error) {
	res, err := c.db.Collection(complaintName).InsertOne(ctx, complaint)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *complaintDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	res, err := c.db.Collection(complaintName).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	return res, nil
}
