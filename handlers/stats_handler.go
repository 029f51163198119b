package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/services"
)

type StatsHandler struct {
	errorResponder
	statsService services.StatsService
}

func NewStatsHandler(ss services.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{errorResponder: newErrorResponder(logger), statsService: ss}
}

// GetPlayerYearlyStats godoc
// @Summary Годовая статистика игрока
// @Tags stats
// @Description Пересчитывается по закрытым матчам года при каждом запросе.
// @Produce json
// @Param playerID path int true "Player ID"
// @Param year query int false "Год (по умолчанию текущий)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Security BearerAuth
// @Router /players/{playerID}/stats [get]
func (h *StatsHandler) GetPlayerYearlyStats(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.YearlyStats(r.Context(), playerID, year)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// GetLeaderboard godoc
// @Summary Классифика за год
// @Tags stats
// @Produce json
// @Param category query string false "ald_index, mvp, presences, goals, cards, wins (по умолчанию mvp)"
// @Param year query int false "Год (по умолчанию текущий)"
// @Param limit query int false "Сколько позиций (по умолчанию 10)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неизвестная категория"
// @Security BearerAuth
// @Router /stats/leaderboard [get]
func (h *StatsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 0)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultLeaderboardLimit)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	category := models.LeaderboardCategory(r.URL.Query().Get("category"))

	entries, err := h.statsService.Leaderboard(r.Context(), category, year, limit)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) GetMatchesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.statsService.MatchesSummary(r.Context())
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
