package localstate

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/date"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sessionKey = "timer"

const (
	// SidebarMinWidth and SidebarMaxWidth bound the stored sidebar width in pixels
	SidebarMinWidth = 200
	SidebarMaxWidth = 600
	// SidebarDefaultWidth is used when no preference has been stored yet
	SidebarDefaultWidth = 320
)

const goalMinLength = 3
const goalRetentionDays = 30

// ErrGoalTooShort is returned when a daily goal is too short to be worth keeping
var ErrGoalTooShort = errors.New("daily goal must be at least 3 characters")

// SessionRecord is the durable snapshot of the timer session, written on
// every state-affecting transition and restored on engine startup
type SessionRecord struct {
	Key            string `gorm:"primarykey;size:32"`
	TaskName       string `gorm:"size:200"`
	StartTime      *time.Time
	ElapsedSeconds int
	IsRunning      bool
	IsPaused       bool
	ActiveBlockID  string `gorm:"size:64"`
	UpdatedAt      time.Time
}

// TableName returns the table name for SessionRecord
func (SessionRecord) TableName() string {
	return "timer_sessions"
}

type preference struct {
	Key       string `gorm:"primarykey;size:64"`
	IntValue  int
	UpdatedAt time.Time
}

func (preference) TableName() string {
	return "preferences"
}

// DailyGoal is a free-text goal for one calendar day, kept for a rolling
// 30 day window
type DailyGoal struct {
	Day       string `gorm:"primarykey;size:10"`
	Text      string `gorm:"size:1000"`
	UpdatedAt time.Time
}

// TableName returns the table name for DailyGoal
func (DailyGoal) TableName() string {
	return "daily_goals"
}

// Store is the client-side durable local state, backed by a sqlite file
// outside the record store
type Store struct {
	db     *gorm.DB
	Logger logger.Interface
}

// Open opens or creates the local state database at path
func Open(path string, log logger.Interface) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not open local state database")
	}

	err = db.AutoMigrate(&SessionRecord{}, &preference{}, &DailyGoal{})
	if err != nil {
		return nil, errors.Wrap(err, "could not migrate local state database")
	}

	return &Store{db: db, Logger: log}, nil
}

// SaveSession writes the timer session snapshot
func (s *Store) SaveSession(record *SessionRecord) error {
	record.Key = sessionKey
	record.UpdatedAt = time.Now()

	err := s.db.Save(record).Error
	if err != nil {
		return errors.Wrap(err, "could not save session record")
	}

	return nil
}

// LoadSession reads the timer session snapshot. A missing record yields
// nil without error; an unreadable record is discarded and treated as missing.
func (s *Store) LoadSession() (*SessionRecord, error) {
	record := SessionRecord{}

	err := s.db.First(&record, "key = ?", sessionKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.Logger.Error("Discarding unreadable session record", err)
		_ = s.ClearSession()
		return nil, nil
	}

	return &record, nil
}

// ClearSession removes the timer session snapshot
func (s *Store) ClearSession() error {
	err := s.db.Delete(&SessionRecord{}, "key = ?", sessionKey).Error
	if err != nil {
		return errors.Wrap(err, "could not clear session record")
	}

	return nil
}

// SidebarWidth returns the stored sidebar width preference
func (s *Store) SidebarWidth() int {
	pref := preference{}

	err := s.db.First(&pref, "key = ?", "sidebarWidth").Error
	if err != nil {
		return SidebarDefaultWidth
	}

	return clampSidebarWidth(pref.IntValue)
}

// SetSidebarWidth stores the sidebar width preference, clamped to its
// configured range
func (s *Store) SetSidebarWidth(pixels int) error {
	pref := preference{
		Key:       "sidebarWidth",
		IntValue:  clampSidebarWidth(pixels),
		UpdatedAt: time.Now(),
	}

	err := s.db.Save(&pref).Error
	if err != nil {
		return errors.Wrap(err, "could not save sidebar width")
	}

	return nil
}

func clampSidebarWidth(pixels int) int {
	if pixels < SidebarMinWidth {
		return SidebarMinWidth
	}
	if pixels > SidebarMaxWidth {
		return SidebarMaxWidth
	}
	return pixels
}

// Goal returns the stored goal text for a calendar day, empty when none is set
func (s *Store) Goal(day time.Time) (string, error) {
	goal := DailyGoal{}

	err := s.db.First(&goal, "day = ?", date.DayKey(day)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "could not load daily goal")
	}

	return goal.Text, nil
}

// SetGoal stores the goal text for a calendar day. Clearing the text deletes
// the record; texts shorter than the minimum are rejected. Every save prunes
// goals that have fallen out of the retention window.
func (s *Store) SetGoal(day time.Time, text string) error {
	text = strings.TrimSpace(text)

	if text == "" {
		err := s.db.Delete(&DailyGoal{}, "day = ?", date.DayKey(day)).Error
		if err != nil {
			return errors.Wrap(err, "could not delete daily goal")
		}
		return s.pruneGoals()
	}

	if len(text) < goalMinLength {
		return ErrGoalTooShort
	}

	goal := DailyGoal{
		Day:       date.DayKey(day),
		Text:      text,
		UpdatedAt: time.Now(),
	}

	err := s.db.Save(&goal).Error
	if err != nil {
		return errors.Wrap(err, "could not save daily goal")
	}

	return s.pruneGoals()
}

// Goals returns all retained goals keyed by calendar day
func (s *Store) Goals() (map[string]string, error) {
	goals := []DailyGoal{}

	err := s.db.Find(&goals).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load daily goals")
	}

	result := map[string]string{}
	for _, goal := range goals {
		result[goal.Day] = goal.Text
	}

	return result, nil
}

func (s *Store) pruneGoals() error {
	cutoff := date.DayKey(time.Now().AddDate(0, 0, -goalRetentionDays))

	err := s.db.Delete(&DailyGoal{}, "day < ?", cutoff).Error
	if err != nil {
		return errors.Wrap(err, "could not prune daily goals")
	}

	return nil
}
