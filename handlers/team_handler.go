package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/services"
	"github.com/Dosada05/calcetto/squads"
)

type TeamHandler struct {
	errorResponder
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{errorResponder: newErrorResponder(logger), teamService: ts}
}

type assignTeamsInput struct {
	Red  []int `json:"red" validate:"required,min=1,dive,gt=0"`
	Blue []int `json:"blue" validate:"required,min=1,dive,gt=0"`
}

// GenerateTeams godoc
// @Summary Сгенерировать сбалансированные команды
// @Tags teams
// @Description Делит присутствующих игроков на красных и синих. Закрепленные вручную игроки остаются в своих командах.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body squads.ManualAssignment false "Ручные закрепления"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Недостаточно игроков или некорректные закрепления"
// @Failure 409 {object} map[string]string "Недопустимое состояние матча"
// @Security BearerAuth
// @Router /matches/{matchID}/teams/generate [post]
func (h *TeamHandler) GenerateTeams(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var manual squads.ManualAssignment
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &manual); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}

	generated, err := h.teamService.GenerateTeams(r.Context(), matchID, manual)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"match":   generated.Match,
		"balance": generated.Result,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// AssignTeams godoc
// @Summary Задать команды вручную
// @Tags teams
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body assignTeamsInput true "Составы"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/teams [put]
func (h *TeamHandler) AssignTeams(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input assignTeamsInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	match, err := h.teamService.AssignTeams(r.Context(), matchID, input.Red, input.Blue)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ResetTeams godoc
// @Summary Сбросить команды
// @Tags teams
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/teams [delete]
func (h *TeamHandler) ResetTeams(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.teamService.ResetTeams(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// PublishTeams godoc
// @Summary Опубликовать команды
// @Tags teams
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Команды еще не сформированы"
// @Security BearerAuth
// @Router /matches/{matchID}/teams/publish [post]
func (h *TeamHandler) PublishTeams(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.teamService.PublishTeams(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) GetTeamsOverview(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	overview, err := h.teamService.Overview(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": overview}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) SuggestSwaps(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	swaps, err := h.teamService.SuggestSwaps(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"swaps": swaps}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
