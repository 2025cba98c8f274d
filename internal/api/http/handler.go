package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veranemoloko/imgpoll/internal/task"
	"github.com/veranemoloko/imgpoll/internal/view"
)

// FetchRequest is the request body for starting a fetch.
type FetchRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// FetchServiceI defines the interface for the fetch coordination logic.
type FetchServiceI interface {
	Spawn(url string) (uuid.UUID, error)
	Cancel()
	Poll() view.State
}

// FetchHandler handles HTTP requests driving the fetch coordinator.
type FetchHandler struct {
	fetchService FetchServiceI
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewFetchHandler creates a new FetchHandler with the provided service and logger.
func NewFetchHandler(fetchService FetchServiceI, logger *slog.Logger) *FetchHandler {
	return &FetchHandler{
		fetchService: fetchService,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Spawn handles POST /fetch: it starts a background fetch of the requested
// URL. While a fetch is already running it answers 409; the client cancels
// and polls /status until the canceled result lands, then retries.
func (h *FetchHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.fetchService.Spawn(req.URL)
	if err != nil {
		if errors.Is(err, task.ErrBusy) {
			writeError(w, http.StatusConflict, "a fetch is already in progress")
			return
		}
		h.logger.Error("failed to spawn fetch", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("fetch accepted", "attempt_id", id, "url", req.URL)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"attempt_id": id,
	})
}

// Status handles GET /status: it performs one coordinator poll and returns
// the folded view state. Polling over HTTP is what keeps progress and the
// terminal result flowing, so clients are expected to call this repeatedly.
func (h *FetchHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := h.fetchService.Poll()
	writeJSON(w, http.StatusOK, state)
}

// Cancel handles POST /cancel: it raises the cancel flag of the live fetch,
// if any. Canceling while idle is a no-op and still answers 200.
func (h *FetchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.fetchService.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancel requested"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
