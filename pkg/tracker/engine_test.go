package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/localstate"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
)

// fakeClock is a controllable time source
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeSessionStore keeps the session record in memory
type fakeSessionStore struct {
	mu     sync.Mutex
	record *localstate.SessionRecord
}

func (s *fakeSessionStore) SaveSession(record *localstate.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	s.record = &stored
	return nil
}

func (s *fakeSessionStore) LoadSession() (*localstate.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, nil
	}
	record := *s.record
	return &record, nil
}

func (s *fakeSessionStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}

func (s *fakeSessionStore) Record() *localstate.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil
	}
	record := *s.record
	return &record
}

var testStart = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *MockStore, *fakeSessionStore, *fakeClock) {
	t.Helper()

	store := &MockStore{}
	sessions := &fakeSessionStore{}
	clock := newFakeClock(testStart)

	engine := NewEngine(store, sessions, logger.Logger{},
		WithClock(clock.Now),
		WithTickInterval(5*time.Millisecond))
	t.Cleanup(engine.Close)

	return engine, store, sessions, clock
}

func waitFor(t *testing.T, message string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", message)
}

func TestEngine_StartCreatesLiveBlock(t *testing.T) {
	engine, store, sessions, _ := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// The placeholder shows up synchronously
	snapshot := engine.Blocks.Snapshot()
	if len(snapshot) != 1 || !snapshot[0].Pending {
		t.Fatalf("expected one pending placeholder, got %v", snapshot)
	}

	waitFor(t, "live block reference", func() bool {
		return engine.ActiveBlockID() != ""
	})

	blockID := engine.ActiveBlockID()
	stored, ok := store.BlockByID(blockID)
	if !ok {
		t.Fatal("expected the live block in the store")
	}
	if stored.TaskName != "Write report" || stored.DurationMinutes != 0 {
		t.Errorf("unexpected live block: %+v", stored)
	}

	block, ok := engine.Blocks.Find(blockID)
	if !ok || block.Pending {
		t.Errorf("expected the placeholder swapped for the store record, got %+v", block)
	}

	record := sessions.Record()
	if record == nil || !record.IsRunning || record.ActiveBlockID != blockID {
		t.Errorf("expected persisted running session, got %+v", record)
	}
}

func TestEngine_StartRequiresTaskName(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	err := engine.Start("   ")
	if !errors.Is(err, ErrEmptyTaskName) {
		t.Fatalf("expected ErrEmptyTaskName, got %v", err)
	}

	state := engine.State()
	if state.IsRunning || state.IsPaused {
		t.Errorf("expected idle state, got %+v", state)
	}
	if len(engine.Blocks.Snapshot()) != 0 || store.CreateCalls != 0 {
		t.Error("expected no block creation")
	}
}

func TestEngine_ElapsedIsRecomputedNotAccumulated(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "live block reference", func() bool {
		return engine.ActiveBlockID() != ""
	})

	clock.Advance(time.Second)
	engine.Reconcile()

	state := engine.State()
	if state.ElapsedSeconds != 1 {
		t.Errorf("expected 1 elapsed second, got %d", state.ElapsedSeconds)
	}

	block, _ := engine.Blocks.Find(engine.ActiveBlockID())
	if !block.EndTime.Equal(testStart.Add(time.Second)) {
		t.Errorf("expected live block end at start+1s, got %v", block.EndTime)
	}
	if block.DurationMinutes != 0 {
		t.Errorf("expected 0 minutes after 1s, got %d", block.DurationMinutes)
	}

	// A long suspension self-corrects on the next reconciliation, no matter
	// how many ticks were missed
	clock.Advance(59 * time.Second)
	engine.Reconcile()

	state = engine.State()
	if state.ElapsedSeconds != 60 {
		t.Errorf("expected 60 elapsed seconds, got %d", state.ElapsedSeconds)
	}

	block, _ = engine.Blocks.Find(engine.ActiveBlockID())
	if block.DurationMinutes != 1 {
		t.Errorf("expected 1 minute after 60s, got %d", block.DurationMinutes)
	}
}

func TestEngine_TickDoesNotWriteToStore(t *testing.T) {
	engine, store, _, clock := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "live block reference", func() bool {
		return engine.ActiveBlockID() != ""
	})

	before := store.Updates()
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		engine.Reconcile()
	}

	if store.Updates() != before {
		t.Errorf("expected cache-only tick updates, store saw %d extra writes", store.Updates()-before)
	}
}

func TestEngine_PauseFreezesAndResumeKeepsStartTime(t *testing.T) {
	engine, _, sessions, clock := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.Advance(10 * time.Second)
	engine.Pause()

	state := engine.State()
	if !state.IsPaused || state.IsRunning {
		t.Fatalf("expected paused state, got %+v", state)
	}
	if state.ElapsedSeconds != 10 {
		t.Errorf("expected frozen elapsed of 10, got %d", state.ElapsedSeconds)
	}

	// Time passing while paused does not move the frozen value
	clock.Advance(50 * time.Second)
	engine.Reconcile()
	if got := engine.State().ElapsedSeconds; got != 10 {
		t.Errorf("expected elapsed to stay frozen at 10, got %d", got)
	}

	// Resume ignores the argument and keeps task name and start time
	if err := engine.Start("some other name"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	state = engine.State()
	if !state.IsRunning || state.IsPaused {
		t.Fatalf("expected running state, got %+v", state)
	}
	if state.TaskName != "Write report" {
		t.Errorf("expected original task name, got %q", state.TaskName)
	}
	if state.StartTime == nil || !state.StartTime.Equal(testStart) {
		t.Errorf("expected original start time, got %v", state.StartTime)
	}

	// Paused time is not excluded from elapsed math after a resume
	engine.Reconcile()
	if got := engine.State().ElapsedSeconds; got != 60 {
		t.Errorf("expected 60 elapsed seconds after resume, got %d", got)
	}

	record := sessions.Record()
	if record == nil || !record.IsRunning {
		t.Errorf("expected persisted running session, got %+v", record)
	}
}

func TestEngine_StopClearsSessionAndKeepsBlock(t *testing.T) {
	engine, store, sessions, clock := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "live block reference", func() bool {
		return engine.ActiveBlockID() != ""
	})
	blockID := engine.ActiveBlockID()

	clock.Advance(90 * time.Second)
	engine.Reconcile()
	engine.Stop()

	state := engine.State()
	want := SessionState{}
	if state != want {
		t.Errorf("expected zeroed state, got %+v", state)
	}
	if engine.ActiveBlockID() != "" {
		t.Error("expected cleared live block reference")
	}
	if sessions.Record() != nil {
		t.Error("expected cleared persisted session")
	}

	// The block survives in the cache under the same identity
	block, ok := engine.Blocks.Find(blockID)
	if !ok {
		t.Fatal("expected the finished block to remain in the cache")
	}
	if !block.EndTime.Equal(testStart.Add(90 * time.Second)) {
		t.Errorf("expected end at start+90s, got %v", block.EndTime)
	}

	// Stop pushes the final shape to the store
	waitFor(t, "final store write", func() bool {
		stored, ok := store.BlockByID(blockID)
		return ok && stored.EndTime.Equal(testStart.Add(90*time.Second)) && stored.DurationMinutes == 2
	})
}

func TestEngine_StopFromFreshProcessFinalizesBlock(t *testing.T) {
	store := &MockStore{}
	sessions := &fakeSessionStore{}
	clock := newFakeClock(testStart)

	first := NewEngine(store, sessions, logger.Logger{},
		WithClock(clock.Now),
		WithTickInterval(5*time.Millisecond))
	if err := first.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "live block reference", func() bool {
		return first.ActiveBlockID() != ""
	})
	blockID := first.ActiveBlockID()
	first.Close()

	clock.Advance(90 * time.Minute)

	// A new process restores the session but never loads the collection
	second := NewEngine(store, sessions, logger.Logger{}, WithClock(clock.Now))
	t.Cleanup(second.Close)

	if got := second.State().ElapsedSeconds; got != 90*60 {
		t.Fatalf("expected restored elapsed of 5400, got %d", got)
	}
	if len(second.Blocks.Snapshot()) != 0 {
		t.Fatal("expected an empty collection in the fresh process")
	}

	second.Stop()

	// The final store write must happen even with an empty collection
	waitFor(t, "final store write", func() bool {
		stored, ok := store.BlockByID(blockID)
		return ok && stored.DurationMinutes == 90 &&
			stored.EndTime.Equal(testStart.Add(90*time.Minute))
	})
	if sessions.Record() != nil {
		t.Error("expected cleared persisted session")
	}
}

func TestEngine_CreateFailureKeepsTiming(t *testing.T) {
	engine, store, _, clock := newTestEngine(t)
	store.FailCreates = true

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, "placeholder removal", func() bool {
		return len(engine.Blocks.Snapshot()) == 0
	})

	if engine.ActiveBlockID() != "" {
		t.Error("expected no live block reference after a failed create")
	}

	clock.Advance(30 * time.Second)
	engine.Reconcile()

	state := engine.State()
	if !state.IsRunning || state.ElapsedSeconds != 30 {
		t.Errorf("expected timing to continue locally, got %+v", state)
	}
}

func TestEngine_UpdateStartTime(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)

	if err := engine.Start("Write report"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.Advance(100 * time.Second)
	newStart := testStart.Add(40 * time.Second)

	if err := engine.UpdateStartTime(newStart, "Write the report"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	state := engine.State()
	if state.ElapsedSeconds != 60 {
		t.Errorf("expected 60 elapsed seconds, got %d", state.ElapsedSeconds)
	}
	if state.TaskName != "Write the report" {
		t.Errorf("expected renamed task, got %q", state.TaskName)
	}
	if state.StartTime == nil || !state.StartTime.Equal(newStart) {
		t.Errorf("expected moved start time, got %v", state.StartTime)
	}

	// A start time in the future clamps elapsed to zero
	if err := engine.UpdateStartTime(clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := engine.State().ElapsedSeconds; got != 0 {
		t.Errorf("expected clamped elapsed of 0, got %d", got)
	}

	engine.Stop()
	if err := engine.UpdateStartTime(newStart, ""); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning when idle, got %v", err)
	}
}

func TestEngine_RestoreRunningSession(t *testing.T) {
	store := &MockStore{}
	sessions := &fakeSessionStore{}
	clock := newFakeClock(testStart)

	persistedStart := testStart.Add(-90 * time.Second)
	_ = sessions.SaveSession(&localstate.SessionRecord{
		TaskName:       "Write report",
		StartTime:      &persistedStart,
		ElapsedSeconds: 3,
		IsRunning:      true,
		ActiveBlockID:  "block-1",
	})

	engine := NewEngine(store, sessions, logger.Logger{},
		WithClock(clock.Now),
		WithTickInterval(5*time.Millisecond))
	t.Cleanup(engine.Close)

	state := engine.State()
	if !state.IsRunning {
		t.Fatalf("expected restored running session, got %+v", state)
	}
	if state.ElapsedSeconds != 90 {
		t.Errorf("expected elapsed recomputed to 90, got %d", state.ElapsedSeconds)
	}
	if engine.ActiveBlockID() != "block-1" {
		t.Errorf("expected restored live block reference, got %q", engine.ActiveBlockID())
	}

	// The tick is running again after the restore
	clock.Advance(10 * time.Second)
	waitFor(t, "tick to advance elapsed", func() bool {
		return engine.State().ElapsedSeconds == 100
	})
}

func TestEngine_RestorePausedSessionVerbatim(t *testing.T) {
	store := &MockStore{}
	sessions := &fakeSessionStore{}
	clock := newFakeClock(testStart)

	persistedStart := testStart.Add(-time.Hour)
	_ = sessions.SaveSession(&localstate.SessionRecord{
		TaskName:       "Write report",
		StartTime:      &persistedStart,
		ElapsedSeconds: 42,
		IsPaused:       true,
	})

	engine := NewEngine(store, sessions, logger.Logger{}, WithClock(clock.Now))
	t.Cleanup(engine.Close)

	state := engine.State()
	if !state.IsPaused || state.IsRunning {
		t.Fatalf("expected restored paused session, got %+v", state)
	}
	if state.ElapsedSeconds != 42 {
		t.Errorf("expected frozen elapsed of 42, got %d", state.ElapsedSeconds)
	}
}

func TestEngine_RestoreDiscardsStaleRecord(t *testing.T) {
	store := &MockStore{}
	sessions := &fakeSessionStore{}

	start := testStart
	_ = sessions.SaveSession(&localstate.SessionRecord{
		TaskName:  "Finished long ago",
		StartTime: &start,
	})

	engine := NewEngine(store, sessions, logger.Logger{}, WithClock(newFakeClock(testStart).Now))
	t.Cleanup(engine.Close)

	state := engine.State()
	if state.IsRunning || state.IsPaused || state.TaskName != "" {
		t.Errorf("expected idle state, got %+v", state)
	}
	if sessions.Record() != nil {
		t.Error("expected the stale record to be discarded")
	}
}

func TestEngine_RestoreDiscardsMalformedRecord(t *testing.T) {
	store := &MockStore{}
	sessions := &fakeSessionStore{}

	// Running without a start time cannot be reconciled
	_ = sessions.SaveSession(&localstate.SessionRecord{
		TaskName:  "Broken",
		IsRunning: true,
	})

	engine := NewEngine(store, sessions, logger.Logger{}, WithClock(newFakeClock(testStart).Now))
	t.Cleanup(engine.Close)

	if state := engine.State(); state.IsRunning || state.IsPaused {
		t.Errorf("expected idle state, got %+v", state)
	}
	if sessions.Record() != nil {
		t.Error("expected the malformed record to be discarded")
	}
}

func TestEngine_ToggleTodoStampsCompletion(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	if err := engine.AddTodo("Buy milk"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	waitFor(t, "todo in store", func() bool {
		items, _ := store.ListTodoItems(nil)
		return len(items) == 1
	})

	itemID := engine.Todos.Snapshot()[0].ID
	engine.ToggleTodo(itemID)

	item, ok := engine.Todos.Find(itemID)
	if !ok || !item.IsCompleted || item.CompletedAt == nil {
		t.Fatalf("expected completed item with stamp, got %+v", item)
	}
	waitFor(t, "completion pushed to store", func() bool {
		items, _ := store.ListTodoItems(nil)
		return len(items) == 1 && items[0].IsCompleted && items[0].CompletedAt != nil
	})

	engine.ToggleTodo(itemID)
	item, _ = engine.Todos.Find(itemID)
	if item.IsCompleted || item.CompletedAt != nil {
		t.Errorf("expected reopened item without stamp, got %+v", item)
	}
}

func TestBlockFromDrag(t *testing.T) {
	dragStart := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	var tests = []struct {
		name        string
		dragEnd     time.Time
		wantEnd     time.Time
		wantMinutes int
	}{
		// Release inside the 09:45 slot extends to 10:00
		{"mid slot", time.Date(2024, 3, 5, 9, 47, 0, 0, time.UTC), time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), 60},
		{"on boundary", time.Date(2024, 3, 5, 9, 45, 0, 0, time.UTC), time.Date(2024, 3, 5, 9, 45, 0, 0, time.UTC), 45},
	}

	for _, tt := range tests {
		block := BlockFromDrag("Deep work", dragStart, tt.dragEnd)

		if !block.StartTime.Equal(dragStart) {
			t.Errorf("%s: expected start %v, got %v", tt.name, dragStart, block.StartTime)
		}
		if !block.EndTime.Equal(tt.wantEnd) {
			t.Errorf("%s: expected end %v, got %v", tt.name, tt.wantEnd, block.EndTime)
		}
		if block.DurationMinutes != tt.wantMinutes {
			t.Errorf("%s: expected %d minutes, got %d", tt.name, tt.wantMinutes, block.DurationMinutes)
		}
		if !block.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: expected midnight normalized date, got %v", tt.name, block.Date)
		}
	}
}
