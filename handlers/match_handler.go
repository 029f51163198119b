package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/services"
)

// DefaultRecentDays - окно для "последнего закрытого матча" на главной.
const DefaultRecentDays = 7

type MatchHandler struct {
	errorResponder
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{errorResponder: newErrorResponder(logger), matchService: ms}
}

// CreateMatch godoc
// @Summary Создать матч
// @Tags matches
// @Description Создает матч в состоянии created. Пустые поля заполняются значениями по умолчанию: ближайший вторник, 20:00, OGGIONA, 8v8.
// @Accept json
// @Produce json
// @Param body body services.CreateMatchInput false "Логистика матча"
// @Success 201 {object} map[string]interface{} "Матч создан"
// @Failure 400 {object} map[string]string "Некорректные данные"
// @Failure 422 {object} map[string]interface{} "Ошибка валидации"
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}
	if !h.validateInput(w, r, input) {
		return
	}

	match, err := h.matchService.Create(r.Context(), input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match, "identifier": match.Identifier()}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ListMatches godoc
// @Summary Список матчей
// @Tags matches
// @Produce json
// @Param order query string false "asc или desc (по умолчанию desc)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ascending := false
	switch r.URL.Query().Get("order") {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		h.badRequestResponse(w, r, errors.New("order must be 'asc' or 'desc'"))
		return
	}

	matches, err := h.matchService.List(r.Context(), ascending)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// GetMatchByID godoc
// @Summary Получить матч по ID
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatchByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match, "identifier": match.Identifier()}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// GetActiveMatch godoc
// @Summary Текущий матч
// @Tags matches
// @Description Ближайший по дате незакрытый матч.
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Незакрытых матчей нет"
// @Security BearerAuth
// @Router /matches/active [get]
func (h *MatchHandler) GetActiveMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.matchService.Active(r.Context())
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// GetRecentClosedMatch godoc
// @Summary Последний закрытый матч
// @Tags matches
// @Produce json
// @Param days query int false "Сколько дней назад искать (по умолчанию 7)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "За этот период закрытых матчей нет"
// @Security BearerAuth
// @Router /matches/recent [get]
func (h *MatchHandler) GetRecentClosedMatch(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", DefaultRecentDays)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if days <= 0 {
		h.badRequestResponse(w, r, errors.New("days must be positive"))
		return
	}

	match, err := h.matchService.RecentClosed(r.Context(), days)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateMatch godoc
// @Summary Изменить логистику матча
// @Tags matches
// @Description Дата, время, место и формат. Недоступно для закрытого матча.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.UpdateMatchInput true "Новые значения"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч закрыт"
// @Security BearerAuth
// @Router /matches/{matchID} [patch]
func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	match, err := h.matchService.UpdateLogistics(r.Context(), matchID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary Удалить матч
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 204 "Матч удален"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Delete(r.Context(), matchID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
