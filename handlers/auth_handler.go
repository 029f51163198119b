package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/calcetto/metrics"
	"github.com/Dosada05/calcetto/middleware"
	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/services"
	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL - срок жизни токена после логина.
const TokenTTL = 24 * time.Hour

type AuthHandler struct {
	errorResponder
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		errorResponder: newErrorResponder(logger),
		authService:    authService,
		jwtSecret:      []byte(jwtSecret),
	}
}

type changePINInput struct {
	CurrentPIN string `json:"current_pin" validate:"required,len=4,numeric"`
	NewPIN     string `json:"new_pin" validate:"required,len=4,numeric"`
}

// Register godoc
// @Summary Регистрация игрока
// @Tags auth
// @Description Создает учетную запись оператора. Логин: имя.фамилия или прозвище.
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Анкета и PIN"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Игрок уже существует"
// @Failure 422 {object} map[string]interface{} "Ошибка валидации"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	player, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"player":   player,
		"username": player.Username(),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary Вход по логину и PIN
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.Credentials true "username и 4-значный PIN"
// @Success 200 {object} map[string]interface{} "token и player"
// @Failure 401 {object} map[string]string "Неверный логин или PIN"
// @Failure 403 {object} map[string]string "Учетная запись заблокирована"
// @Failure 429 {object} map[string]string "Слишком много попыток"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	player, err := h.authService.Login(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		case errors.Is(err, services.ErrAccountBlocked):
			metrics.LoginAttempts.WithLabelValues("blocked").Inc()
		}
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	now := time.Now()
	claims := jwt.MapClaims{
		middleware.ClaimUserID: player.ID,
		middleware.ClaimRole:   player.AccountRole,
		middleware.ClaimName:   player.DisplayName(),
		"exp":                  now.Add(TokenTTL).Unix(),
		"iat":                  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		h.serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	response := jsonResponse{
		"token":  tokenString,
		"player": player,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ChangePIN godoc
// @Summary Сменить PIN
// @Tags auth
// @Accept json
// @Param body body changePINInput true "Текущий и новый PIN"
// @Success 204 "PIN изменен"
// @Failure 401 {object} map[string]string "Неверный текущий PIN"
// @Security BearerAuth
// @Router /me/pin [put]
func (h *AuthHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input changePINInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if !h.validateInput(w, r, input) {
		return
	}

	if err := h.authService.ChangePIN(r.Context(), currentUserID, input.CurrentPIN, input.NewPIN); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
