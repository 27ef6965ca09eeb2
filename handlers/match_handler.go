package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/matchmaking-system/middleware"
	"github.com/Dosada05/matchmaking-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// History отдаёт последние матчи; с параметром player_id — только матчи
// этого игрока.
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	var playerID *int
	if raw := r.URL.Query().Get("player_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("player_id must be a positive integer"))
			return
		}
		playerID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("limit must be an integer"))
			return
		}
		limit = parsed
	}

	matches, err := h.matchService.History(r.Context(), playerID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"matches": matches,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Last отдаёт последний матч аутентифицированного игрока с разбивкой по
// командам — то, что фронт показывает как лобби.
func (h *MatchHandler) Last(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.PlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	match, err := h.matchService.LastForPlayer(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
