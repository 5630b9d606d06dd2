package tracker

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/date"
	"github.com/tasktracker-app/tasktracker/pkg/localstate"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// ErrEmptyTaskName is returned when a session is started without a task name
var ErrEmptyTaskName = errors.New("task name must not be empty")

// ErrNotRunning is returned when the start time of a session is edited while
// no session is running
var ErrNotRunning = errors.New("no session is running")

const storeCallTimeout = 10 * time.Second

// StoreInterface is what the engine needs from the remote access layer
type StoreInterface interface {
	CreateTimeBlock(ctx context.Context, block *timeblocks.TimeBlock) (*timeblocks.TimeBlock, error)
	ListTimeBlocks(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]timeblocks.TimeBlock, error)
	UpdateTimeBlock(ctx context.Context, blockID string, block *timeblocks.TimeBlock) error
	DeleteTimeBlock(ctx context.Context, blockID string) error
	CreateTodoItem(ctx context.Context, item *todos.TodoItem) (*todos.TodoItem, error)
	ListTodoItems(ctx context.Context) ([]todos.TodoItem, error)
	UpdateTodoItem(ctx context.Context, itemID string, item *todos.TodoItem) error
	DeleteTodoItem(ctx context.Context, itemID string) error
}

// SessionStore persists the timer session outside the record store
type SessionStore interface {
	SaveSession(record *localstate.SessionRecord) error
	LoadSession() (*localstate.SessionRecord, error)
	ClearSession() error
}

// SessionState is the observable state of the timer session. Exactly one of
// idle (neither flag), running or paused holds at any time.
type SessionState struct {
	TaskName       string
	StartTime      *time.Time
	ElapsedSeconds int
	IsRunning      bool
	IsPaused       bool
}

// Engine owns the timer session state machine, the elapsed-time
// reconciliation and the synchronization of the live block with the
// collection and the store. All state is serialized behind one mutex; the
// periodic tick and store callbacks take the same lock, so no two mutations
// race.
type Engine struct {
	mu            sync.Mutex
	state         SessionState
	activeBlockID string

	store    StoreInterface
	sessions SessionStore
	logger   logger.Interface

	// Blocks and Todos are the single sources of truth for rendering
	Blocks *Collection
	Todos  *TodoCollection

	now          func() time.Time
	tickInterval time.Duration
	tickStop     chan struct{}
}

// Option configures an Engine
type Option func(*Engine)

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTickInterval overrides the periodic tick granularity
func WithTickInterval(interval time.Duration) Option {
	return func(e *Engine) {
		e.tickInterval = interval
	}
}

// NewEngine builds an engine and restores any persisted session. A running
// session resumes with its elapsed time recomputed from the wall clock and
// the tick restarted; a paused one keeps its frozen elapsed value; anything
// else is discarded.
func NewEngine(store StoreInterface, sessions SessionStore, log logger.Interface, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		sessions:     sessions,
		logger:       log,
		Blocks:       NewCollection(),
		Todos:        NewTodoCollection(),
		now:          time.Now,
		tickInterval: time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.restore()

	return e
}

func (e *Engine) restore() {
	record, err := e.sessions.LoadSession()
	if err != nil {
		e.logger.Error("Could not restore session", err)
		return
	}
	if record == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	valid := (record.IsRunning != record.IsPaused) && record.StartTime != nil
	if !valid {
		e.logger.Debug("Discarding stale session record")
		e.clearSessionLocked()
		return
	}

	e.state = SessionState{
		TaskName:       record.TaskName,
		StartTime:      record.StartTime,
		ElapsedSeconds: record.ElapsedSeconds,
		IsRunning:      record.IsRunning,
		IsPaused:       record.IsPaused,
	}
	e.activeBlockID = record.ActiveBlockID

	if record.IsRunning {
		e.reconcileLocked()
		e.startTickLocked()
	}
}

// State returns a snapshot of the session state
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActiveBlockID returns the id of the live block, empty when there is none
func (e *Engine) ActiveBlockID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeBlockID
}

// Start begins a new session, or resumes a paused one. Resuming ignores
// taskName and keeps the session's original task and start time. A fresh
// start creates the live block in the store asynchronously; if that fails
// the session keeps timing with no live block.
func (e *Engine) Start(taskName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsRunning {
		return nil
	}

	if e.state.IsPaused {
		e.state.IsRunning = true
		e.state.IsPaused = false
		e.startTickLocked()
		e.saveSessionLocked()
		return nil
	}

	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return ErrEmptyTaskName
	}

	now := e.now()
	e.state = SessionState{
		TaskName:       taskName,
		StartTime:      &now,
		ElapsedSeconds: 0,
		IsRunning:      true,
		IsPaused:       false,
	}
	e.activeBlockID = ""

	block := timeblocks.TimeBlock{
		ID:              uuid.NewString(),
		TaskName:        taskName,
		StartTime:       now,
		EndTime:         now,
		DurationMinutes: 0,
		Date:            date.DayOf(now),
		Pending:         true,
	}
	e.Blocks.MergeCreate(block)
	e.createLiveBlock(block)

	e.startTickLocked()
	e.saveSessionLocked()

	return nil
}

// createLiveBlock pushes the pending placeholder to the store and swaps it
// for the server record on success
func (e *Engine) createLiveBlock(placeholder timeblocks.TimeBlock) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		created, err := e.store.CreateTimeBlock(ctx, &placeholder)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err != nil {
			e.logger.Error("Could not create live block, timing continues locally", err)
			e.Blocks.Remove(placeholder.ID)
			return
		}

		e.Blocks.Remove(placeholder.ID)
		e.Blocks.MergeCreate(*created)

		if e.state.IsRunning || e.state.IsPaused {
			e.activeBlockID = created.ID
			e.saveSessionLocked()
			e.reconcileLocked()
		}
	}()
}

// Pause freezes the elapsed time at its current recomputed value and stops
// the tick
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsRunning {
		return
	}

	e.stopTickLocked()
	e.reconcileElapsedLocked()
	e.state.IsRunning = false
	e.state.IsPaused = true
	e.saveSessionLocked()
}

// Stop ends the session from any state. The live block keeps whatever the
// last reconciliation wrote to the cache; one final store update persists
// that before the reference is cleared.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsRunning && !e.state.IsPaused {
		return
	}

	e.stopTickLocked()

	if e.state.IsRunning {
		e.reconcileLocked()
	}

	if e.activeBlockID != "" {
		block, ok := e.Blocks.Find(e.activeBlockID)
		if !ok {
			// A fresh process restores the live block reference without
			// loading the collection; rebuild the final shape from the
			// session state instead.
			block, ok = e.finalBlockFromStateLocked()
		}
		if ok && !block.Pending {
			e.finalizeBlock(block)
		}
	}

	e.state = SessionState{}
	e.activeBlockID = ""
	e.clearSessionLocked()
}

// finalBlockFromStateLocked rebuilds the live block's final shape from the
// session state alone, for processes that restored a session but never
// loaded the collection
func (e *Engine) finalBlockFromStateLocked() (timeblocks.TimeBlock, bool) {
	if e.state.StartTime == nil {
		return timeblocks.TimeBlock{}, false
	}

	start := *e.state.StartTime
	end := start.Add(time.Duration(e.state.ElapsedSeconds) * time.Second)

	return timeblocks.TimeBlock{
		ID:              e.activeBlockID,
		TaskName:        e.state.TaskName,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: int(math.Round(end.Sub(start).Minutes())),
		Date:            date.DayOf(start),
	}, true
}

// finalizeBlock writes the live block's last cached shape to the store
func (e *Engine) finalizeBlock(block timeblocks.TimeBlock) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()

		err := e.store.UpdateTimeBlock(ctx, block.ID, &block)
		if err != nil {
			e.logger.Error("Could not finalize live block in store", err)
		}
	}()
}

// UpdateStartTime moves the running session's start time, keeping the timer
// consistent with an edit of the live block, and optionally renames the task
func (e *Engine) UpdateStartTime(newStart time.Time, newTaskName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsRunning {
		return ErrNotRunning
	}

	e.state.StartTime = &newStart
	if strings.TrimSpace(newTaskName) != "" {
		e.state.TaskName = strings.TrimSpace(newTaskName)
	}
	e.reconcileElapsedLocked()
	e.saveSessionLocked()

	return nil
}

// Reconcile performs one out-of-band reconciliation pass, identical to a
// tick. Hosts call it on resume-from-suspension signals so elapsed time does
// not appear frozen after the client was backgrounded.
func (e *Engine) Reconcile() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconcileLocked()
}

// Close tears the engine down, cancelling any running tick
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickLocked()
}

// reconcileElapsedLocked recomputes elapsed time from absolute timestamps.
// Elapsed time is never accumulated tick by tick, so it self-corrects no
// matter how long the process was suspended.
func (e *Engine) reconcileElapsedLocked() {
	if e.state.StartTime == nil {
		return
	}

	elapsed := int(e.now().Sub(*e.state.StartTime).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	e.state.ElapsedSeconds = elapsed
}

// reconcileLocked recomputes elapsed time and refreshes the live block in
// the cache. No store round trip happens here.
func (e *Engine) reconcileLocked() {
	if !e.state.IsRunning || e.state.StartTime == nil {
		return
	}

	e.reconcileElapsedLocked()

	if e.activeBlockID == "" {
		return
	}

	block, ok := e.Blocks.Find(e.activeBlockID)
	if !ok {
		return
	}

	now := e.now()
	block.EndTime = now
	block.DurationMinutes = int(math.Round(now.Sub(*e.state.StartTime).Minutes()))
	e.Blocks.MergeUpdate(block)
}

func (e *Engine) startTickLocked() {
	e.stopTickLocked()

	stop := make(chan struct{})
	e.tickStop = stop

	ticker := time.NewTicker(e.tickInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.Reconcile()
			}
		}
	}()
}

func (e *Engine) stopTickLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

func (e *Engine) saveSessionLocked() {
	record := localstate.SessionRecord{
		TaskName:       e.state.TaskName,
		StartTime:      e.state.StartTime,
		ElapsedSeconds: e.state.ElapsedSeconds,
		IsRunning:      e.state.IsRunning,
		IsPaused:       e.state.IsPaused,
		ActiveBlockID:  e.activeBlockID,
	}

	err := e.sessions.SaveSession(&record)
	if err != nil {
		e.logger.Error("Could not persist session state", err)
	}
}

func (e *Engine) clearSessionLocked() {
	err := e.sessions.ClearSession()
	if err != nil {
		e.logger.Error("Could not clear session state", err)
	}
}
