package todos

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MockTodoRepository is a todo repository for testing
type MockTodoRepository struct {
	Items []*TodoItem
}

// Add adds a todo item
func (m *MockTodoRepository) Add(_ context.Context, item *TodoItem) error {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()

	stored := *item
	m.Items = append(m.Items, &stored)
	return nil
}

// FindAll finds all todo items ordered by creation time descending
func (m *MockTodoRepository) FindAll(_ context.Context) ([]TodoItem, error) {
	items := []TodoItem{}
	for _, item := range m.Items {
		items = append(items, *item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// FindByID finds a specific todo item
func (m *MockTodoRepository) FindByID(_ context.Context, itemID string) (TodoItem, error) {
	for _, item := range m.Items {
		if item.ID == itemID {
			return *item, nil
		}
	}

	return TodoItem{}, ErrNotFound
}

// Update overwrites a stored todo item
func (m *MockTodoRepository) Update(_ context.Context, item *TodoItem) error {
	for i, stored := range m.Items {
		if stored.ID == item.ID {
			updated := *item
			m.Items[i] = &updated
			return nil
		}
	}

	return ErrNotFound
}

// Delete removes a todo item
func (m *MockTodoRepository) Delete(_ context.Context, itemID string) error {
	for i, item := range m.Items {
		if item.ID == itemID {
			m.Items = append(m.Items[:i], m.Items[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}
