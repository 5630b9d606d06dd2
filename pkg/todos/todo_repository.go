package todos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a todo item id is unknown to the store
var ErrNotFound = errors.New("todo item not found")

// TodoRepositoryInterface is an interface for a *MongoDBTodoRepository
type TodoRepositoryInterface interface {
	Add(ctx context.Context, item *TodoItem) error
	FindAll(ctx context.Context) ([]TodoItem, error)
	FindByID(ctx context.Context, itemID string) (TodoItem, error)
	Update(ctx context.Context, item *TodoItem) error
	Delete(ctx context.Context, itemID string) error
}

// MongoDBTodoRepository does everything related to storing and finding todo items
type MongoDBTodoRepository struct {
	DB     *mongo.Collection
	Logger logger.Interface
}

// Add adds a todo item, assigning its id and creation timestamp
func (s *MongoDBTodoRepository) Add(ctx context.Context, item *TodoItem) error {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()

	_, err := s.DB.InsertOne(ctx, item)
	if err != nil {
		return errors.Wrap(err, "could not insert todo item")
	}

	return nil
}

// FindAll finds all todo items ordered by creation time descending
func (s *MongoDBTodoRepository) FindAll(ctx context.Context) ([]TodoItem, error) {
	items := []TodoItem{}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"createdAt": -1})

	cursor, err := s.DB.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "could not query todo items")
	}

	err = cursor.All(ctx, &items)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode todo items")
	}

	return items, nil
}

// FindByID finds a specific todo item
func (s *MongoDBTodoRepository) FindByID(ctx context.Context, itemID string) (TodoItem, error) {
	item := TodoItem{}

	result := s.DB.FindOne(ctx, bson.M{"_id": itemID})
	if result.Err() == mongo.ErrNoDocuments {
		return item, ErrNotFound
	}

	err := result.Decode(&item)
	if err != nil {
		return item, errors.Wrap(err, "could not decode todo item")
	}

	return item, nil
}

// Update overwrites a todo item's mutable fields
func (s *MongoDBTodoRepository) Update(ctx context.Context, item *TodoItem) error {
	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": item.ID}, bson.M{"$set": bson.M{
		"title":       item.Title,
		"description": item.Description,
		"isCompleted": item.IsCompleted,
		"completedAt": item.CompletedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "could not update todo item")
	}

	if result.MatchedCount != 1 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a todo item
func (s *MongoDBTodoRepository) Delete(ctx context.Context, itemID string) error {
	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": itemID})
	if err != nil {
		return errors.Wrap(err, "could not delete todo item")
	}

	if result.DeletedCount != 1 {
		return ErrNotFound
	}

	return nil
}
