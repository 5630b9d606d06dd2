package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/communication"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

func newTestBackend(t *testing.T) (*Client, *timeblocks.MockTimeBlockRepository, *todos.MockTodoRepository) {
	t.Helper()

	log := logger.Logger{}
	responseManager := &communication.ResponseManager{Logger: log}

	listCache, err := timeblocks.NewListCacheMemory()
	if err != nil {
		t.Fatalf("could not build list cache: %v", err)
	}

	blockRepo := &timeblocks.MockTimeBlockRepository{}
	blockHandler := timeblocks.Handler{
		TimeBlockRepository: blockRepo,
		ListCache:           listCache,
		Logger:              log,
		ResponseManager:     responseManager,
	}

	todoRepo := &todos.MockTodoRepository{}
	todoHandler := todos.Handler{
		TodoRepository:  todoRepo,
		Logger:          log,
		ResponseManager: responseManager,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/timeblocks", blockHandler.TimeBlockList).Methods(http.MethodGet)
	r.HandleFunc("/api/timeblocks", blockHandler.TimeBlockAdd).Methods(http.MethodPost)
	r.HandleFunc("/api/timeblocks/{blockID}", blockHandler.TimeBlockUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/timeblocks/{blockID}", blockHandler.TimeBlockDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/todoitems", todoHandler.TodoList).Methods(http.MethodGet)
	r.HandleFunc("/api/todoitems", todoHandler.TodoAdd).Methods(http.MethodPost)
	r.HandleFunc("/api/todoitems/{itemID}", todoHandler.TodoUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/todoitems/{itemID}", todoHandler.TodoDelete).Methods(http.MethodDelete)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return New(server.URL, log), blockRepo, todoRepo
}

func TestClient_TimeBlockRoundTrip(t *testing.T) {
	c, _, _ := newTestBackend(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	created, err := c.CreateTimeBlock(ctx, &timeblocks.TimeBlock{
		TaskName:        "Write report",
		StartTime:       start,
		EndTime:         start.Add(45 * time.Minute),
		DurationMinutes: 45,
		Date:            start,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a server assigned id")
	}

	created.TaskName = "Write report, edited"
	if err := c.UpdateTimeBlock(ctx, created.ID, created); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	blocks, err := c.ListTimeBlocks(ctx, &start, &start)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].TaskName != "Write report, edited" {
		t.Fatalf("expected the edited block back, got %v", blocks)
	}

	if err := c.DeleteTimeBlock(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestClient_NotFound(t *testing.T) {
	c, _, _ := newTestBackend(t)
	ctx := context.Background()

	err := c.DeleteTimeBlock(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err = c.UpdateTodoItem(ctx, "missing", &todos.TodoItem{Title: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", logger.Logger{})

	_, err := c.ListTimeBlocks(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("transport failure must not look like a missing record")
	}
}

func TestClient_TodoRoundTrip(t *testing.T) {
	c, _, _ := newTestBackend(t)
	ctx := context.Background()

	created, err := c.CreateTodoItem(ctx, &todos.TodoItem{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created.IsCompleted = true
	if err := c.UpdateTodoItem(ctx, created.ID, created); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	items, err := c.ListTodoItems(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || !items[0].IsCompleted || items[0].CompletedAt == nil {
		t.Fatalf("expected a completed item with a stamp, got %+v", items)
	}
}
