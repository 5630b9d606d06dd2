package timeblocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/date"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a time block id is unknown to the store
var ErrNotFound = errors.New("time block not found")

// TimeBlockRepositoryInterface is an interface for a *MongoDBTimeBlockRepository
type TimeBlockRepositoryInterface interface {
	Add(ctx context.Context, block *TimeBlock) error
	FindAll(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]TimeBlock, error)
	FindByID(ctx context.Context, blockID string) (TimeBlock, error)
	Update(ctx context.Context, block *TimeBlock) error
	Delete(ctx context.Context, blockID string) error
}

// MongoDBTimeBlockRepository does everything related to storing and finding time blocks
type MongoDBTimeBlockRepository struct {
	DB     *mongo.Collection
	Logger logger.Interface
}

// Add adds a time block, assigning its id and audit timestamps
func (s *MongoDBTimeBlockRepository) Add(ctx context.Context, block *TimeBlock) error {
	now := time.Now().UTC()
	block.ID = uuid.NewString()
	block.CreatedAt = now
	block.UpdatedAt = now
	block.Date = date.DayOf(block.Date)

	_, err := s.DB.InsertOne(ctx, block)
	if err != nil {
		return errors.Wrap(err, "could not insert time block")
	}

	return nil
}

// FindAll finds all time blocks, optionally bounded by inclusive date-only
// filters against the Date field, ordered by start time ascending
func (s *MongoDBTimeBlockRepository) FindAll(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]TimeBlock, error) {
	blocks := []TimeBlock{}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"startTime": 1})

	filter := bson.M{}
	dateFilter := bson.M{}
	if startDate != nil {
		dateFilter["$gte"] = date.DayOf(*startDate)
	}
	if endDate != nil {
		dateFilter["$lte"] = date.DayOf(*endDate)
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	cursor, err := s.DB.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "could not query time blocks")
	}

	err = cursor.All(ctx, &blocks)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode time blocks")
	}

	return blocks, nil
}

// FindByID finds a specific time block
func (s *MongoDBTimeBlockRepository) FindByID(ctx context.Context, blockID string) (TimeBlock, error) {
	block := TimeBlock{}

	result := s.DB.FindOne(ctx, bson.M{"_id": blockID})
	if result.Err() == mongo.ErrNoDocuments {
		return block, ErrNotFound
	}

	err := result.Decode(&block)
	if err != nil {
		return block, errors.Wrap(err, "could not decode time block")
	}

	return block, nil
}

// Update overwrites a time block's fields and stamps UpdatedAt
func (s *MongoDBTimeBlockRepository) Update(ctx context.Context, block *TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	block.Date = date.DayOf(block.Date)

	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": block.ID}, bson.M{"$set": bson.M{
		"taskName":        block.TaskName,
		"startTime":       block.StartTime,
		"endTime":         block.EndTime,
		"durationMinutes": block.DurationMinutes,
		"date":            block.Date,
		"updatedAt":       block.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "could not update time block")
	}

	if result.MatchedCount != 1 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a time block
func (s *MongoDBTimeBlockRepository) Delete(ctx context.Context, blockID string) error {
	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": blockID})
	if err != nil {
		return errors.Wrap(err, "could not delete time block")
	}

	if result.DeletedCount != 1 {
		return ErrNotFound
	}

	return nil
}
