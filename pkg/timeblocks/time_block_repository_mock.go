package timeblocks

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker-app/tasktracker/pkg/date"
)

// MockTimeBlockRepository is a time block repository for testing
type MockTimeBlockRepository struct {
	Blocks []*TimeBlock
}

// Add adds a time block
func (m *MockTimeBlockRepository) Add(_ context.Context, block *TimeBlock) error {
	now := time.Now().UTC()
	block.ID = uuid.NewString()
	block.CreatedAt = now
	block.UpdatedAt = now
	block.Date = date.DayOf(block.Date)

	stored := *block
	m.Blocks = append(m.Blocks, &stored)
	return nil
}

// FindAll finds all time blocks within the optional date bounds
func (m *MockTimeBlockRepository) FindAll(_ context.Context, startDate *time.Time, endDate *time.Time) ([]TimeBlock, error) {
	blocks := []TimeBlock{}

	for _, b := range m.Blocks {
		if startDate != nil && b.Date.Before(date.DayOf(*startDate)) {
			continue
		}
		if endDate != nil && b.Date.After(date.DayOf(*endDate)) {
			continue
		}
		blocks = append(blocks, *b)
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].StartTime.Before(blocks[j].StartTime)
	})

	return blocks, nil
}

// FindByID finds a specific time block
func (m *MockTimeBlockRepository) FindByID(_ context.Context, blockID string) (TimeBlock, error) {
	for _, b := range m.Blocks {
		if b.ID == blockID {
			return *b, nil
		}
	}

	return TimeBlock{}, ErrNotFound
}

// Update overwrites a stored time block
func (m *MockTimeBlockRepository) Update(_ context.Context, block *TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	block.Date = date.DayOf(block.Date)

	for i, b := range m.Blocks {
		if b.ID == block.ID {
			stored := *block
			m.Blocks[i] = &stored
			return nil
		}
	}

	return ErrNotFound
}

// Delete removes a time block
func (m *MockTimeBlockRepository) Delete(_ context.Context, blockID string) error {
	for i, b := range m.Blocks {
		if b.ID == blockID {
			m.Blocks = append(m.Blocks[:i], m.Blocks[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}
