package todos

import (
	"time"
)

// TodoItem is the model for an entry on the task list.
// CompletedAt is present exactly when IsCompleted is true.
type TodoItem struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" bson:"description" validate:"max=1000"`
	IsCompleted bool       `json:"isCompleted" bson:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// StampCompletion reconciles CompletedAt with IsCompleted: a fresh completion
// is stamped with now, reopening clears the stamp, an already stamped item
// keeps its original completion time.
func (item *TodoItem) StampCompletion(now time.Time) {
	if !item.IsCompleted {
		item.CompletedAt = nil
		return
	}

	if item.CompletedAt == nil {
		item.CompletedAt = &now
	}
}
