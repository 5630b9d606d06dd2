package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/date"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// ErrEmptyTitle is returned when a todo item is added without a title
var ErrEmptyTitle = errors.New("todo title must not be empty")

// Load fills both collections from the store
func (e *Engine) Load(ctx context.Context) error {
	blocks, err := e.store.ListTimeBlocks(ctx, nil, nil)
	if err != nil {
		return errors.Wrap(err, "could not load time blocks")
	}
	e.Blocks.Replace(blocks)

	items, err := e.store.ListTodoItems(ctx)
	if err != nil {
		return errors.Wrap(err, "could not load todo items")
	}
	e.Todos.Replace(items)

	return nil
}

// BlockFromDrag builds a time block from a calendar drag selection. The
// start snaps down to its slot, the release point extends to the end of the
// slot it landed in.
func BlockFromDrag(taskName string, dragStart time.Time, dragEnd time.Time) timeblocks.TimeBlock {
	start := date.SlotStart(dragStart)
	end := date.SlotEnd(dragEnd)

	span := date.Timespan{Start: start, End: end}

	return timeblocks.TimeBlock{
		TaskName:        taskName,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: span.Minutes(),
		Date:            date.DayOf(start),
	}
}

// AddTimeBlock merges a new block into the cache immediately under a pending
// placeholder id and persists it asynchronously; the placeholder is swapped
// for the server record on success and dropped on failure.
func (e *Engine) AddTimeBlock(block timeblocks.TimeBlock) {
	block.ID = uuid.NewString()
	block.Pending = true
	e.Blocks.MergeCreate(block)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		created, err := e.store.CreateTimeBlock(ctx, &block)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err != nil {
			e.logger.Error("Could not create time block", err)
			e.Blocks.Remove(block.ID)
			return
		}

		e.Blocks.Remove(block.ID)
		e.Blocks.MergeCreate(*created)
	}()
}

// UpdateTimeBlock applies an edit to the cache first and pushes it to the
// store afterwards. A store miss leaves the local copy as it is.
func (e *Engine) UpdateTimeBlock(blockID string, block timeblocks.TimeBlock) {
	block.ID = blockID
	e.Blocks.MergeUpdate(block)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		err := e.store.UpdateTimeBlock(ctx, blockID, &block)
		if err != nil {
			e.logger.Error("Could not update time block in store", err)
		}
	}()
}

// DeleteTimeBlock drops a block locally and from the store
func (e *Engine) DeleteTimeBlock(blockID string) {
	e.Blocks.Remove(blockID)

	e.mu.Lock()
	if e.activeBlockID == blockID {
		e.activeBlockID = ""
		e.saveSessionLocked()
	}
	e.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		err := e.store.DeleteTimeBlock(ctx, blockID)
		if err != nil {
			e.logger.Error("Could not delete time block from store", err)
		}
	}()
}

// AddTodo creates a todo item with the given title
func (e *Engine) AddTodo(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	item := todos.TodoItem{
		ID:    uuid.NewString(),
		Title: title,
	}
	e.Todos.MergeCreate(item)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		created, err := e.store.CreateTodoItem(ctx, &item)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err != nil {
			e.logger.Error("Could not create todo item", err)
			e.Todos.Remove(item.ID)
			return
		}

		e.Todos.Remove(item.ID)
		e.Todos.MergeCreate(*created)
	}()

	return nil
}

// ToggleTodo flips a todo item's completion, stamping or clearing its
// completion time locally and in the store
func (e *Engine) ToggleTodo(itemID string) {
	item, ok := e.Todos.Find(itemID)
	if !ok {
		return
	}

	item.IsCompleted = !item.IsCompleted
	item.CompletedAt = nil
	item.StampCompletion(e.now().UTC())
	e.Todos.MergeUpdate(item)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		err := e.store.UpdateTodoItem(ctx, item.ID, &item)
		if err != nil {
			e.logger.Error("Could not update todo item in store", err)
		}
	}()
}

// DeleteTodo drops a todo item locally and from the store
func (e *Engine) DeleteTodo(itemID string) {
	e.Todos.Remove(itemID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		err := e.store.DeleteTodoItem(ctx, itemID)
		if err != nil {
			e.logger.Error("Could not delete todo item from store", err)
		}
	}()
}
