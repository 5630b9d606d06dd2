package timeblocks

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

// Handler handles all time block related API calls
type Handler struct {
	TimeBlockRepository TimeBlockRepositoryInterface
	ListCache           ListCacheInterface
	Logger              logger.Interface
	ResponseManager     *communication.ResponseManager
}

// TimeBlockAdd is the route for adding a time block
func (handler *Handler) TimeBlockAdd(writer http.ResponseWriter, request *http.Request) {
	block := TimeBlock{}

	err := json.NewDecoder(request.Body).Decode(&block)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	v := validator.New()
	err = v.Struct(block)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	if block.EndTime.Before(block.StartTime) {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"End time must not be before start time", nil)
		return
	}

	err = handler.TimeBlockRepository.Add(request.Context(), &block)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Persisting time block in database did not work", err)
		return
	}

	handler.invalidateListCache(request)

	handler.ResponseManager.RespondWithStatus(writer, &block, http.StatusCreated)
}

// TimeBlockList is the route for fetching time blocks, optionally filtered by date range
func (handler *Handler) TimeBlockList(writer http.ResponseWriter, request *http.Request) {
	startDate, err := parseDateParam(request.URL.Query().Get("startDate"))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad start date", err)
		return
	}

	endDate, err := parseDateParam(request.URL.Query().Get("endDate"))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad end date", err)
		return
	}

	cacheKey := ListCacheKey(startDate, endDate)
	if cached, err := handler.ListCache.Get(request.Context(), cacheKey); err == nil {
		handler.ResponseManager.Respond(writer, cached)
		return
	}

	blocks, err := handler.TimeBlockRepository.FindAll(request.Context(), startDate, endDate)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying time blocks", err)
		return
	}

	err = handler.ListCache.Add(request.Context(), cacheKey, blocks)
	if err != nil {
		handler.Logger.Error("Problem caching time block list", err)
	}

	handler.ResponseManager.Respond(writer, blocks)
}

// TimeBlockGet is the route for fetching a single time block
func (handler *Handler) TimeBlockGet(writer http.ResponseWriter, request *http.Request) {
	blockID := mux.Vars(request)["blockID"]

	block, err := handler.TimeBlockRepository.FindByID(request.Context(), blockID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find time block", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying time block", err)
		return
	}

	handler.ResponseManager.Respond(writer, &block)
}

// TimeBlockUpdate is the route for updating a time block
func (handler *Handler) TimeBlockUpdate(writer http.ResponseWriter, request *http.Request) {
	blockID := mux.Vars(request)["blockID"]

	block, err := handler.TimeBlockRepository.FindByID(request.Context(), blockID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find time block", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while querying time block", err)
		return
	}

	err = json.NewDecoder(request.Body).Decode(&block)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}
	block.ID = blockID

	v := validator.New()
	err = v.Struct(block)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	if block.EndTime.Before(block.StartTime) {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"End time must not be before start time", nil)
		return
	}

	err = handler.TimeBlockRepository.Update(request.Context(), &block)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find time block", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Persisting time block in database did not work", err)
		return
	}

	handler.invalidateListCache(request)

	handler.ResponseManager.RespondWithNoContent(writer)
}

// TimeBlockDelete is the route for deleting a time block
func (handler *Handler) TimeBlockDelete(writer http.ResponseWriter, request *http.Request) {
	blockID := mux.Vars(request)["blockID"]

	err := handler.TimeBlockRepository.Delete(request.Context(), blockID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Couldn't find time block", err)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Deleting time block did not work", err)
		return
	}

	handler.invalidateListCache(request)

	handler.ResponseManager.RespondWithNoContent(writer)
}

func (handler *Handler) invalidateListCache(request *http.Request) {
	err := handler.ListCache.Invalidate(request.Context())
	if err != nil {
		handler.Logger.Error("Problem invalidating time block list cache", err)
	}
}

// parseDateParam parses an optional date query parameter, accepting a plain
// date or a full RFC3339 timestamp
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err == nil {
		return &parsed, nil
	}

	parsed, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse date %s", value)
	}

	return &parsed, nil
}
