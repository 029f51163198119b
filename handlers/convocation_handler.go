package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/middleware"
	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/services"
)

type ConvocationHandler struct {
	errorResponder
	convocationService services.ConvocationService
}

func NewConvocationHandler(cs services.ConvocationService, logger *slog.Logger) *ConvocationHandler {
	return &ConvocationHandler{errorResponder: newErrorResponder(logger), convocationService: cs}
}

type inviteInput struct {
	PlayerID int `json:"player_id" validate:"required,gt=0"`
}

type respondInput struct {
	// PlayerID необязателен: по умолчанию отвечает текущий пользователь.
	PlayerID int             `json:"player_id" validate:"omitempty,gt=0"`
	Response models.Response `json:"response" validate:"required"`
}

func (h *ConvocationHandler) writeMatch(w http.ResponseWriter, r *http.Request, match *models.Match, err error) {
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{
		"match":       match,
		"convocation": services.ComputeConvocationStats(match),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// InvitePlayer godoc
// @Summary Пригласить игрока на матч
// @Tags convocations
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body inviteInput true "Игрок"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч или игрок не найден"
// @Security BearerAuth
// @Router /matches/{matchID}/invitations [post]
func (h *ConvocationHandler) InvitePlayer(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input inviteInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	match, err := h.convocationService.Invite(r.Context(), matchID, input.PlayerID)
	h.writeMatch(w, r, match, err)
}

// UninvitePlayer godoc
// @Summary Убрать игрока из приглашенных
// @Tags convocations
// @Produce json
// @Param matchID path int true "Match ID"
// @Param playerID path int true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/invitations/{playerID} [delete]
func (h *ConvocationHandler) UninvitePlayer(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.convocationService.Uninvite(r.Context(), matchID, playerID)
	h.writeMatch(w, r, match, err)
}

// InviteRoster godoc
// @Summary Пригласить весь состав
// @Tags convocations
// @Description Приглашает всех незаблокированных титуляров, а после открытия второй фазы и резервистов.
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/invitations/roster [post]
func (h *ConvocationHandler) InviteRoster(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.convocationService.InviteRoster(r.Context(), matchID)
	h.writeMatch(w, r, match, err)
}

// OpenToReserves godoc
// @Summary Открыть вторую фазу созыва (резервисты)
// @Tags convocations
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч закрыт"
// @Security BearerAuth
// @Router /matches/{matchID}/reserves [post]
func (h *ConvocationHandler) OpenToReserves(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.convocationService.OpenToReserves(r.Context(), matchID)
	h.writeMatch(w, r, match, err)
}

// Respond godoc
// @Summary Ответить на созыв
// @Tags convocations
// @Description present, maybe, absent или pending. Ответить за другого игрока может только тот, кто управляет матчами.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body respondInput true "Ответ"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неизвестный ответ"
// @Failure 403 {object} map[string]string "Нет прав отвечать за другого игрока"
// @Security BearerAuth
// @Router /matches/{matchID}/responses [post]
func (h *ConvocationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input respondInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	playerID := currentUserID
	if input.PlayerID != 0 && input.PlayerID != currentUserID {
		role, err := middleware.GetUserRoleFromContext(r.Context())
		if err != nil || !role.Can(models.PermManageMatches) {
			h.forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
			return
		}
		playerID = input.PlayerID
	}

	match, err := h.convocationService.Respond(r.Context(), matchID, playerID, input.Response)
	h.writeMatch(w, r, match, err)
}

// GetConvocationStats godoc
// @Summary Сводка ответов на созыв
// @Tags convocations
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/convocation [get]
func (h *ConvocationHandler) GetConvocationStats(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	stats, err := h.convocationService.Stats(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"convocation": stats}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
