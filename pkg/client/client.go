package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"github.com/tasktracker-app/tasktracker/pkg/timeblocks"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// ErrNotFound is returned when the store no longer has the requested id
var ErrNotFound = errors.New("record not found in store")

// Client is the remote access layer: it translates store operations on time
// blocks and todo items into HTTP calls against the backend
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logger.Interface
}

// New builds a Client for the given backend base URL
func New(baseURL string, log logger.Interface) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     log,
	}
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		binary, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "could not marshal request body")
		}
		reader = bytes.NewReader(binary)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.HTTPClient.Do(request)
	if err != nil {
		return errors.Wrapf(err, "store unreachable for %s %s", method, path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return errors.Errorf("store responded with status %d for %s %s", response.StatusCode, method, path)
	}

	if result != nil {
		err = json.NewDecoder(response.Body).Decode(result)
		if err != nil {
			return errors.Wrap(err, "could not decode store response")
		}
	}

	return nil
}

// CreateTimeBlock persists a new time block and returns the stored record
// with its server assigned id and timestamps
func (c *Client) CreateTimeBlock(ctx context.Context, block *timeblocks.TimeBlock) (*timeblocks.TimeBlock, error) {
	created := timeblocks.TimeBlock{}

	payload := *block
	payload.ID = ""
	payload.Pending = false

	err := c.do(ctx, http.MethodPost, "/api/timeblocks", &payload, &created)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ListTimeBlocks fetches time blocks, optionally bounded by inclusive
// date-only filters
func (c *Client) ListTimeBlocks(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]timeblocks.TimeBlock, error) {
	query := url.Values{}
	if startDate != nil {
		query.Set("startDate", startDate.Format("2006-01-02"))
	}
	if endDate != nil {
		query.Set("endDate", endDate.Format("2006-01-02"))
	}

	path := "/api/timeblocks"
	if len(query) > 0 {
		path = fmt.Sprintf("%s?%s", path, query.Encode())
	}

	blocks := []timeblocks.TimeBlock{}
	err := c.do(ctx, http.MethodGet, path, nil, &blocks)
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

// UpdateTimeBlock overwrites a stored time block
func (c *Client) UpdateTimeBlock(ctx context.Context, blockID string, block *timeblocks.TimeBlock) error {
	return c.do(ctx, http.MethodPut, "/api/timeblocks/"+blockID, block, nil)
}

// DeleteTimeBlock removes a stored time block
func (c *Client) DeleteTimeBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/api/timeblocks/"+blockID, nil, nil)
}

// CreateTodoItem persists a new todo item and returns the stored record
func (c *Client) CreateTodoItem(ctx context.Context, item *todos.TodoItem) (*todos.TodoItem, error) {
	created := todos.TodoItem{}

	payload := *item
	payload.ID = ""

	err := c.do(ctx, http.MethodPost, "/api/todoitems", &payload, &created)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ListTodoItems fetches all todo items, newest first
func (c *Client) ListTodoItems(ctx context.Context) ([]todos.TodoItem, error) {
	items := []todos.TodoItem{}
	err := c.do(ctx, http.MethodGet, "/api/todoitems", nil, &items)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateTodoItem overwrites a stored todo item
func (c *Client) UpdateTodoItem(ctx context.Context, itemID string, item *todos.TodoItem) error {
	return c.do(ctx, http.MethodPut, "/api/todoitems/"+itemID, item, nil)
}

// DeleteTodoItem removes a stored todo item
func (c *Client) DeleteTodoItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/todoitems/"+itemID, nil, nil)
}
