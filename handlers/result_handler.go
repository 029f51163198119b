package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/services"
)

type ResultHandler struct {
	errorResponder
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{errorResponder: newErrorResponder(logger), resultService: rs}
}

func (h *ResultHandler) readResult(w http.ResponseWriter, r *http.Request) (int, *services.ResultInput, bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return 0, nil, false
	}

	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return 0, nil, false
	}
	if !h.validateInput(w, r, input) {
		return 0, nil, false
	}
	return matchID, &input, true
}

func (h *ResultHandler) respond(w http.ResponseWriter, r *http.Request, status int, payload jsonResponse, err error) {
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, status, payload, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// SubmitResult godoc
// @Summary Внести результат
// @Tags results
// @Description Сохраняет счет, бомбардиров, карточки и MVP опубликованного матча. Матч не закрывается.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.ResultInput true "Результат"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Голы бомбардиров больше голов команды, игрок не из команды и т.п."
// @Failure 409 {object} map[string]string "Матч не опубликован или закрыт"
// @Security BearerAuth
// @Router /matches/{matchID}/result [put]
func (h *ResultHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readResult(w, r)
	if !ok {
		return
	}
	match, err := h.resultService.SubmitResult(r.Context(), matchID, *input)
	h.respond(w, r, http.StatusOK, jsonResponse{"match": match}, err)
}

// CloseMatch godoc
// @Summary Закрыть матч
// @Tags results
// @Description Переводит матч в closed и начисляет статистику игрокам. Повторное закрытие после reopen статистику не дублирует.
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Нет результата или MVP"
// @Failure 500 {object} map[string]string "Частичная запись: перечитайте данные"
// @Security BearerAuth
// @Router /matches/{matchID}/close [post]
func (h *ResultHandler) CloseMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	match, err := h.resultService.CloseMatch(r.Context(), matchID)
	h.respond(w, r, http.StatusOK, jsonResponse{"match": match}, err)
}

// FinalizeMatch godoc
// @Summary Внести результат и закрыть матч
// @Tags results
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.ResultInput true "Результат"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/finalize [post]
func (h *ResultHandler) FinalizeMatch(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readResult(w, r)
	if !ok {
		return
	}
	match, err := h.resultService.FinalizeMatch(r.Context(), matchID, *input)
	h.respond(w, r, http.StatusOK, jsonResponse{"match": match}, err)
}

// ReopenMatch godoc
// @Summary Переоткрыть закрытый матч
// @Tags results
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч не закрыт"
// @Security BearerAuth
// @Router /matches/{matchID}/reopen [post]
func (h *ResultHandler) ReopenMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	match, err := h.resultService.ReopenMatch(r.Context(), matchID)
	h.respond(w, r, http.StatusOK, jsonResponse{"match": match}, err)
}
