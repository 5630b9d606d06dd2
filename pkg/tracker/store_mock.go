package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// MockStore is an in-memory store for testing engine behavior without a
// backend
type MockStore struct {
	mu     sync.Mutex
	Blocks []*timeblocks.TimeBlock
	Items  []*todos.TodoItem

	// FailCreates makes every create call fail with a transport error
	FailCreates bool

	CreateCalls int
	UpdateCalls int
}

// CreateTimeBlock persists a block and assigns server fields
func (m *MockStore) CreateTimeBlock(_ context.Context, block *timeblocks.TimeBlock) (*timeblocks.TimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.FailCreates {
		return nil, errors.New("store unreachable")
	}

	stored := *block
	stored.ID = uuid.NewString()
	stored.Pending = false
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.Blocks = append(m.Blocks, &stored)

	created := stored
	return &created, nil
}

// ListTimeBlocks returns all stored blocks
func (m *MockStore) ListTimeBlocks(_ context.Context, _ *time.Time, _ *time.Time) ([]timeblocks.TimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blocks := []timeblocks.TimeBlock{}
	for _, b := range m.Blocks {
		blocks = append(blocks, *b)
	}
	return blocks, nil
}

// UpdateTimeBlock overwrites a stored block
func (m *MockStore) UpdateTimeBlock(_ context.Context, blockID string, block *timeblocks.TimeBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	for i, b := range m.Blocks {
		if b.ID == blockID {
			stored := *block
			stored.ID = blockID
			m.Blocks[i] = &stored
			return nil
		}
	}
	return timeblocks.ErrNotFound
}

// DeleteTimeBlock removes a stored block
func (m *MockStore) DeleteTimeBlock(_ context.Context, blockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.Blocks {
		if b.ID == blockID {
			m.Blocks = append(m.Blocks[:i], m.Blocks[i+1:]...)
			return nil
		}
	}
	return timeblocks.ErrNotFound
}

// CreateTodoItem persists a todo item and assigns server fields
func (m *MockStore) CreateTodoItem(_ context.Context, item *todos.TodoItem) (*todos.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.FailCreates {
		return nil, errors.New("store unreachable")
	}

	stored := *item
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	m.Items = append(m.Items, &stored)

	created := stored
	return &created, nil
}

// ListTodoItems returns all stored items
func (m *MockStore) ListTodoItems(_ context.Context) ([]todos.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []todos.TodoItem{}
	for _, item := range m.Items {
		items = append(items, *item)
	}
	return items, nil
}

// UpdateTodoItem overwrites a stored item
func (m *MockStore) UpdateTodoItem(_ context.Context, itemID string, item *todos.TodoItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	for i, stored := range m.Items {
		if stored.ID == itemID {
			updated := *item
			updated.ID = itemID
			m.Items[i] = &updated
			return nil
		}
	}
	return todos.ErrNotFound
}

// DeleteTodoItem removes a stored item
func (m *MockStore) DeleteTodoItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.Items {
		if item.ID == itemID {
			m.Items = append(m.Items[:i], m.Items[i+1:]...)
			return nil
		}
	}
	return todos.ErrNotFound
}

// BlockByID returns a stored block for assertions
func (m *MockStore) BlockByID(blockID string) (timeblocks.TimeBlock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.Blocks {
		if b.ID == blockID {
			return *b, true
		}
	}
	return timeblocks.TimeBlock{}, false
}

// Updates returns how many update calls the store has seen
func (m *MockStore) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpdateCalls
}
