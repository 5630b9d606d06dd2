package todos

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/tasktracker-app/tasktracker/pkg/communication"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
)

// Handler handles all todo item related API calls
type Handler struct {
	TodoRepository  TodoRepositoryInterface
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
}

// TodoAdd is the route for adding a todo item
func (handler *Handler) TodoAdd(writer http.ResponseWriter, request *http.Request) {
	item := TodoItem{}

	err := json.NewDecoder(request.Body).Decode(&item)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	v := validator.New()
	err = v.Struct(item)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	item.StampCompletion(time.Now().UTC())

	err = handler.TodoRepository.Add(request.Context(), &item)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Persisting todo item in database did not work", err)
		return
	}

	handler.ResponseManager.RespondWithStatus(writer, &item, http.StatusCreated)
}

// TodoList is the route for fetching all todo items
func (handler *Handler) TodoList(writer http.ResponseWriter, request *http.Request) {
	items, err := handler.TodoRepository.FindAll(request.Context())
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying todo items", err)
		return
	}

	handler.ResponseManager.Respond(writer, items)
}

// TodoGet is the route for fetching a single todo item
func (handler *Handler) TodoGet(writer http.ResponseWriter, request *http.Request) {
	itemID := mux.Vars(request)["itemID"]

	item, err := handler.TodoRepository.FindByID(request.Context(), itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find todo item", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying todo item", err)
		return
	}

	handler.ResponseManager.Respond(writer, &item)
}

// TodoUpdate is the route for updating a todo item. Toggling completion
// stamps or clears CompletedAt.
func (handler *Handler) TodoUpdate(writer http.ResponseWriter, request *http.Request) {
	itemID := mux.Vars(request)["itemID"]

	item, err := handler.TodoRepository.FindByID(request.Context(), itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find todo item", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying todo item", err)
		return
	}

	wasCompleted := item.IsCompleted

	err = json.NewDecoder(request.Body).Decode(&item)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}
	item.ID = itemID

	v := validator.New()
	err = v.Struct(item)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	if !wasCompleted && item.IsCompleted {
		item.CompletedAt = nil
	}
	item.StampCompletion(time.Now().UTC())

	err = handler.TodoRepository.Update(request.Context(), &item)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find todo item", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Persisting todo item in database did not work", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

// TodoDelete is the route for deleting a todo item
func (handler *Handler) TodoDelete(writer http.ResponseWriter, request *http.Request) {
	itemID := mux.Vars(request)["itemID"]

	err := handler.TodoRepository.Delete(request.Context(), itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find todo item", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Deleting todo item did not work", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}
