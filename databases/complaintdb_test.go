package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicsetu/civic-voice-api/databases"
	"github.com/civicsetu/civic-voice-api/databases/mocks"
	"github.com/civicsetu/civic-voice-api/models"
)

func TestComplaintDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Complaint)
		arg.Title = "mocked-complaint"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	// Create new database with mocked Database interface
	complaintDba := databases.NewComplaintDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	complaint, err := complaintDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, complaint)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with a different filter for the correct
	// result
	complaint, err = complaintDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &models.Complaint{Title: "mocked-complaint"}, complaint)
	assert.NoError(t, err)
}

func TestComplaintDatabase_InsertOne(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var iorHelper databases.InsertOneResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	iorHelper = &mocks.InsertOneResultHelper{}

	broken := models.Complaint{Title: "broken"}
	stored := models.Complaint{Title: "stored"}

	iorHelper.(*mocks.InsertOneResultHelper).
		On("Decode").Return("mocked-complaint-id")

	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", context.Background(), broken).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", context.Background(), stored).
		Return(iorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	id, err := complaintDba.InsertOne(context.Background(), broken)

	assert.Nil(t, id)
	assert.EqualError(t, err, "mocked-error")

	id, err = complaintDba.InsertOne(context.Background(), stored)

	assert.Equal(t, "mocked-complaint-id", id)
	assert.NoError(t, err)
}

func TestComplaintDatabase_UpdateOne(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	update := bson.M{"$set": bson.M{"status": "resolved"}}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"error": true}, update).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"error": false}, update).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	res, err := complaintDba.UpdateOne(context.Background(), bson.M{"error": true}, update)

	assert.Nil(t, res)
	assert.EqualError(t, err, "mocked-error")

	res, err = complaintDba.UpdateOne(context.Background(), bson.M{"error": false}, update)

	assert.Equal(t, int64(1), res.ModifiedCount)
	assert.NoError(t, err)
}

func TestComplaintDatabase_Find_Error(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	complaints, err := complaintDba.Find(context.Background(), bson.M{"error": true})

	assert.Nil(t, complaints)
	assert.EqualError(t, err, "mocked-error")
}

func TestComplaintDatabase_FindUnscored(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	// never scored: the field is absent, null, or still zero
	unscoredFilter := bson.M{
		"$or": []bson.M{
			{"priorityScore": bson.M{"$exists": false}},
			{"priorityScore": nil},
			{"priorityScore": 0},
		},
	}

	cursorHelper.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Complaint)
		*arg = []models.Complaint{{Title: "mocked-unscored"}}
	})

	var gotOpts *options.FindOptions
	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), unscoredFilter, mock.AnythingOfType("*options.FindOptions")).
		Return(cursorHelper, nil).Run(func(args mock.Arguments) {
		gotOpts = args.Get(2).(*options.FindOptions)
	})

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	complaints, err := complaintDba.FindUnscored(context.Background(), 25)

	assert.NoError(t, err)
	assert.Equal(t, []models.Complaint{{Title: "mocked-unscored"}}, complaints)

	// newest first, bounded by the caller's limit
	if assert.NotNil(t, gotOpts) {
		assert.Equal(t, int64(25), *gotOpts.Limit)
		assert.Equal(t, bson.M{"createdAt": -1}, gotOpts.Sort)
	}
}
