package timeblocks

import (
	"time"
)

// TimeBlock is the model for a block of work on a task during a concrete interval.
// Date is the calendar day the block is filed under, keyed as UTC midnight of
// that day, independent of which day StartTime actually falls on.
type TimeBlock struct {
	ID              string    `json:"id" bson:"_id"`
	TaskName        string    `json:"taskName" bson:"taskName" validate:"required,max=200"`
	StartTime       time.Time `json:"startTime" bson:"startTime" validate:"required"`
	EndTime         time.Time `json:"endTime" bson:"endTime" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" bson:"durationMinutes"`
	Date            time.Time `json:"date" bson:"date" validate:"required"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`

	// Pending marks a client-side block whose id is a local placeholder
	// the store has not acknowledged yet. Never serialized.
	Pending bool `json:"-" bson:"-"`
}
