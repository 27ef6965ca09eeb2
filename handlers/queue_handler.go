package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/matchmaking-system/middleware"
	"github.com/Dosada05/matchmaking-system/services"
)

type QueueHandler struct {
	queueService services.QueueService
}

func NewQueueHandler(queueService services.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

type queueRequest struct {
	GameMode string `json:"game_mode"`
}

// Join ставит игрока в очередь и сразу возвращает актуальное состояние
// тикета после синхронного запуска матчмейкера: статус может быть уже
// matched.
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.PlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input queueRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GameMode == "" {
		badRequestResponse(w, r, errors.New("game_mode is required"))
		return
	}

	ticket, err := h.queueService.Join(r.Context(), playerID, input.GameMode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, ticket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QueueHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.PlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input queueRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GameMode == "" {
		badRequestResponse(w, r, errors.New("game_mode is required"))
		return
	}

	cancelled, err := h.queueService.Cancel(r.Context(), playerID, input.GameMode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":   "left queue",
		"cancelled": cancelled,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.PlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	gameMode := r.URL.Query().Get("game_mode")
	if gameMode == "" {
		badRequestResponse(w, r, errors.New("game_mode is required"))
		return
	}

	ticket, err := h.queueService.Status(r.Context(), playerID, gameMode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, ticket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
