package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/calcetto/middleware"
	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/services"
)

type PlayerHandler struct {
	errorResponder
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{errorResponder: newErrorResponder(logger), playerService: ps}
}

// profileInput - поля, которые игрок может менять в своей анкете сам.
type profileInput struct {
	Nickname  string  `json:"nickname" validate:"max=50"`
	Phone     string  `json:"phone" validate:"max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

type blockInput struct {
	Blocked bool `json:"blocked"`
}

type accountRoleInput struct {
	Role models.AccountRole `json:"role" validate:"required"`
}

// canManage: true, если пользователь может менять чужие анкеты; иначе только свою.
func canManage(r *http.Request, playerID int) (bool, error) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return false, err
	}
	if role.Can(models.PermManagePlayers) {
		return true, nil
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return false, err
	}
	if currentUserID != playerID || !role.Can(models.PermEditOwnProfile) {
		return false, services.ErrForbiddenOperation
	}
	return false, nil
}

// ListPlayers godoc
// @Summary Список игроков
// @Tags players
// @Produce json
// @Param tier query string false "starter или reserve"
// @Param role query string false "Амплуа (основное или запасное)"
// @Param search query string false "Поиск по имени, фамилии, никнейму"
// @Param active query bool false "Только незаблокированные"
// @Param sort query string false "name, surname, rating, presences, goals, mvp"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players [get]
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.PlayerFilter{
		Tier:   models.PlayerTier(q.Get("tier")),
		Role:   models.PlayingRole(q.Get("role")),
		Search: q.Get("search"),
		SortBy: services.PlayerSort(q.Get("sort")),
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			h.badRequestResponse(w, r, fmt.Errorf("invalid active query parameter: %q", v))
			return
		}
		filter.OnlyActive = active
	}

	players, err := h.playerService.List(r.Context(), filter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// GetPlayerByID godoc
// @Summary Получить игрока по ID
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Security BearerAuth
// @Router /players/{playerID} [get]
func (h *PlayerHandler) GetPlayerByID(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	h.writePlayer(w, r, playerID)
}

func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	h.writePlayer(w, r, currentUserID)
}

func (h *PlayerHandler) writePlayer(w http.ResponseWriter, r *http.Request, playerID int) {
	player, err := h.playerService.GetByID(r.Context(), playerID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{
		"player":   player,
		"rating":   player.Rating(),
		"username": player.Username(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// CreatePlayer godoc
// @Summary Добавить игрока
// @Tags players
// @Description Не заданные характеристики получают значение 3, уровень reserve, амплуа midfielder.
// @Accept json
// @Produce json
// @Param body body services.PlayerInput true "Анкета"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Игрок с таким именем и фамилией уже есть"
// @Failure 422 {object} map[string]interface{} "Ошибка валидации"
// @Security BearerAuth
// @Router /players [post]
func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var input services.PlayerInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	player, err := h.playerService.Create(r.Context(), input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdatePlayer godoc
// @Summary Изменить анкету игрока
// @Tags players
// @Description Администратор меняет всю анкету. Оператор может менять только контакты в своей анкете.
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param body body services.PlayerInput true "Анкета"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Чужая анкета"
// @Security BearerAuth
// @Router /players/{playerID} [put]
func (h *PlayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	manager, err := canManage(r, playerID)
	if err != nil {
		if errors.Is(err, services.ErrForbiddenOperation) {
			h.forbiddenResponse(w, r, err.Error())
			return
		}
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.PlayerInput
	if manager {
		if err := readJSON(w, r, &input); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
		if !h.validateInput(w, r, input) {
			return
		}
	} else {
		var profile profileInput
		if err := readJSON(w, r, &profile); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
		if !h.validateInput(w, r, profile) {
			return
		}
		current, err := h.playerService.GetByID(r.Context(), playerID)
		if err != nil {
			h.mapServiceErrorToHTTP(w, r, err)
			return
		}
		input = playerInputWithProfile(current, profile)
	}

	player, err := h.playerService.Update(r.Context(), playerID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// playerInputWithProfile сохраняет все поля анкеты, кроме контактов из profile.
func playerInputWithProfile(p *models.Player, profile profileInput) services.PlayerInput {
	return services.PlayerInput{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Nickname:      profile.Nickname,
		Phone:         profile.Phone,
		Email:         profile.Email,
		BirthDate:     profile.BirthDate,
		Overall:       p.Overall,
		Vision:        p.Vision,
		Pace:          p.Pace,
		Possession:    p.Possession,
		Fitness:       p.Fitness,
		Tier:          p.Tier,
		PrimaryRole:   p.PrimaryRole,
		SecondaryRole: p.SecondaryRole,
	}
}

func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), playerID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetBlocked godoc
// @Summary Заблокировать или разблокировать игрока
// @Tags players
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param body body blockInput true "blocked"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players/{playerID}/blocked [put]
func (h *PlayerHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input blockInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err == nil && currentUserID == playerID && input.Blocked {
		h.forbiddenResponse(w, r, "cannot block your own account")
		return
	}

	player, err := h.playerService.SetBlocked(r.Context(), playerID, input.Blocked)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// SetAccountRole godoc
// @Summary Назначить роль учетной записи
// @Tags players
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param body body accountRoleInput true "operator, supervisor или admin"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неизвестная роль"
// @Security BearerAuth
// @Router /players/{playerID}/role [put]
func (h *PlayerHandler) SetAccountRole(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input accountRoleInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	player, err := h.playerService.SetAccountRole(r.Context(), playerID, input.Role)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UploadPlayerPhoto godoc
// @Summary Загрузить фото игрока
// @Tags players
// @Accept multipart/form-data
// @Produce json
// @Param playerID path int true "Player ID"
// @Param photo formData file true "Изображение до 1 МБ"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Не изображение"
// @Failure 413 {object} map[string]string "Файл слишком большой"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /players/{playerID}/photo [post]
func (h *PlayerHandler) UploadPlayerPhoto(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if _, err := canManage(r, playerID); err != nil {
		if errors.Is(err, services.ErrForbiddenOperation) {
			h.forbiddenResponse(w, r, err.Error())
			return
		}
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to get photo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		h.badRequestResponse(w, r, errors.New("content-type header is required for photo"))
		return
	}

	player, err := h.playerService.UploadPhoto(r.Context(), playerID, file, header.Size, contentType)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
