package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Dosada05/calcetto/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type jsonResponse map[string]interface{}

var validate = newValidator()

// errorResponder пишет ответы с ошибками; серверные ошибки уходят в логгер.
// Встраивается во все обработчики.
type errorResponder struct {
	logger *slog.Logger
}

func newErrorResponder(logger *slog.Logger) errorResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return errorResponder{logger: logger}
}

// newValidator возвращает валидатор, который называет поля по json-тегам.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// validateInput проверяет теги validate и сам пишет 422 при ошибке.
func (e errorResponder) validateInput(w http.ResponseWriter, r *http.Request, input interface{}) bool {
	err := validate.Struct(input)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.serverErrorResponse(w, r, err)
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	e.failedValidationResponse(w, r, fields)
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters long"
	case "numeric":
		return "must contain only digits"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in format YYYY-MM-DD"
	}
	return "is invalid (" + fe.Tag() + ")"
}

func (e errorResponder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		e.logger.Error("failed to write error response",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (e errorResponder) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	e.logger.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	e.errorResponse(w, r, http.StatusInternalServerError, message)
}

// storeErrorResponse - хранилище недоступно; сообщение передается клиенту как есть.
func (e errorResponder) storeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	e.logger.Error("store error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	e.errorResponse(w, r, http.StatusInternalServerError, err.Error())
}

func (e errorResponder) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	e.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (e errorResponder) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	e.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (e errorResponder) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	e.errorResponse(w, r, http.StatusNotFound, message)
}

func (e errorResponder) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	e.errorResponse(w, r, http.StatusConflict, message)
}

func (e errorResponder) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	e.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (e errorResponder) forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	e.errorResponse(w, r, http.StatusForbidden, message)
}

func (e errorResponder) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, message string) {
	e.errorResponse(w, r, http.StatusServiceUnavailable, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func (e errorResponder) mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var partial *services.PartialWriteError
	var storeErr *services.StoreError

	switch {
	case errors.Is(err, services.ErrNotFound):
		e.notFoundResponse(w, r)

	// Нарушение жизненного цикла матча
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrMatchClosed),
		errors.Is(err, services.ErrUsernameConflict):
		e.conflictResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidResponse),
		errors.Is(err, services.ErrInvalidFormat),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidTime),
		errors.Is(err, services.ErrInvalidGoals),
		errors.Is(err, services.ErrInvalidAttributes),
		errors.Is(err, services.ErrInvalidTier),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidAccount),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidPIN),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrEmptyTeam),
		errors.Is(err, services.ErrMissingResult),
		errors.Is(err, services.ErrMissingMVP),
		errors.Is(err, services.ErrScorerOverflow),
		errors.Is(err, services.ErrMVPNotInTeam),
		errors.Is(err, services.ErrPlayerNotInTeam),
		errors.Is(err, services.ErrPlayerInBothTeams),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrInvalidFileType),
		errors.Is(err, services.ErrInvalidBackup):
		e.badRequestResponse(w, r, err)
	case errors.Is(err, services.ErrFileTooLarge):
		e.errorResponse(w, r, http.StatusRequestEntityTooLarge, err.Error())

	// Ошибки авторизации/доступа
	case errors.Is(err, services.ErrInvalidCredentials):
		e.unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrAccountBlocked),
		errors.Is(err, services.ErrForbiddenOperation):
		e.forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrUploadsDisabled):
		e.serviceUnavailableResponse(w, r, err.Error())

	// Хранилище: сообщение отдаем клиенту, чтобы он знал, что данные надо перечитать
	case errors.As(err, &partial), errors.As(err, &storeErr):
		e.storeErrorResponse(w, r, err)

	default:
		e.serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		// Попробуем общий "id", если специфичный параметр не найден
		idStr = chi.URLParam(r, "id")
		if idStr == "" {
			return 0, fmt.Errorf("missing %s or id in URL path", paramName)
		}
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}

	return id, nil
}

// queryInt читает необязательный целочисленный параметр запроса.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s query parameter: %q", name, v)
	}
	return n, nil
}
