package tracker

import (
	"sync"

	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// BlockObserver is notified with a fresh snapshot whenever the time block
// collection changes
type BlockObserver interface {
	OnBlocksChange(blocks []timeblocks.TimeBlock)
}

// Collection is the in-memory mirror of the store's time block records.
// Every mutation the client performs goes through it, so presentation
// components never hold divergent copies.
type Collection struct {
	mu          sync.Mutex
	blocks      []timeblocks.TimeBlock
	subscribers []BlockObserver
}

// NewCollection initializes an empty Collection
func NewCollection() *Collection {
	return &Collection{}
}

// Subscribe registers an observer
func (c *Collection) Subscribe(o BlockObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, o)
}

// Unsubscribe removes an observer
func (c *Collection) Unsubscribe(o BlockObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, subscriber := range c.subscribers {
		if subscriber == o {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the current blocks
func (c *Collection) Snapshot() []timeblocks.TimeBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection) snapshotLocked() []timeblocks.TimeBlock {
	snapshot := make([]timeblocks.TimeBlock, len(c.blocks))
	copy(snapshot, c.blocks)
	return snapshot
}

func (c *Collection) publishLocked() {
	snapshot := c.snapshotLocked()
	for _, subscriber := range c.subscribers {
		subscriber.OnBlocksChange(snapshot)
	}
}

// Replace swaps in a full set of blocks, usually from an initial list call
func (c *Collection) Replace(blocks []timeblocks.TimeBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = make([]timeblocks.TimeBlock, len(blocks))
	copy(c.blocks, blocks)
	c.publishLocked()
}

// MergeCreate appends a newly created block
func (c *Collection) MergeCreate(block timeblocks.TimeBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, block)
	c.publishLocked()
}

// MergeUpdate replaces the block with the same id; unknown ids are ignored
func (c *Collection) MergeUpdate(block timeblocks.TimeBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.blocks {
		if existing.ID == block.ID {
			c.blocks[i] = block
			c.publishLocked()
			return
		}
	}
}

// Remove drops the block with the given id
func (c *Collection) Remove(blockID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.blocks {
		if existing.ID == blockID {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			c.publishLocked()
			return
		}
	}
}

// Find returns the block with the given id
func (c *Collection) Find(blockID string) (timeblocks.TimeBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.blocks {
		if existing.ID == blockID {
			return existing, true
		}
	}
	return timeblocks.TimeBlock{}, false
}

// TodoObserver is notified with a fresh snapshot whenever the todo
// collection changes
type TodoObserver interface {
	OnTodosChange(items []todos.TodoItem)
}

// TodoCollection is the in-memory mirror of the store's todo item records
type TodoCollection struct {
	mu          sync.Mutex
	items       []todos.TodoItem
	subscribers []TodoObserver
}

// NewTodoCollection initializes an empty TodoCollection
func NewTodoCollection() *TodoCollection {
	return &TodoCollection{}
}

// Subscribe registers an observer
func (c *TodoCollection) Subscribe(o TodoObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, o)
}

// Unsubscribe removes an observer
func (c *TodoCollection) Unsubscribe(o TodoObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, subscriber := range c.subscribers {
		if subscriber == o {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the current items
func (c *TodoCollection) Snapshot() []todos.TodoItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *TodoCollection) snapshotLocked() []todos.TodoItem {
	snapshot := make([]todos.TodoItem, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

func (c *TodoCollection) publishLocked() {
	snapshot := c.snapshotLocked()
	for _, subscriber := range c.subscribers {
		subscriber.OnTodosChange(snapshot)
	}
}

// Replace swaps in a full set of items
func (c *TodoCollection) Replace(items []todos.TodoItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]todos.TodoItem, len(items))
	copy(c.items, items)
	c.publishLocked()
}

// MergeCreate appends a newly created item
func (c *TodoCollection) MergeCreate(item todos.TodoItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	c.publishLocked()
}

// MergeUpdate replaces the item with the same id; unknown ids are ignored
func (c *TodoCollection) MergeUpdate(item todos.TodoItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.items {
		if existing.ID == item.ID {
			c.items[i] = item
			c.publishLocked()
			return
		}
	}
}

// Remove drops the item with the given id
func (c *TodoCollection) Remove(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.items {
		if existing.ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.publishLocked()
			return
		}
	}
}

// Find returns the item with the given id
func (c *TodoCollection) Find(itemID string) (todos.TodoItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.items {
		if existing.ID == itemID {
			return existing, true
		}
	}
	return todos.TodoItem{}, false
}
