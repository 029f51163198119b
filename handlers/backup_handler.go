package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/services"
)

// maxBackupSize ограничивает загружаемый файл бэкапа.
const maxBackupSize = 32 << 20

type BackupHandler struct {
	errorResponder
	backupService services.BackupService
}

func NewBackupHandler(bs services.BackupService, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{errorResponder: newErrorResponder(logger), backupService: bs}
}

// ExportBackup godoc
// @Summary Экспорт всех данных
// @Tags backup
// @Description Если настроено хранилище, файл загружается туда и в ответе есть key и location. Снимок всегда возвращается в ответе.
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backup [get]
func (h *BackupHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backupService.Export(r.Context())
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// RestoreBackup godoc
// @Summary Восстановление из бэкапа
// @Tags backup
// @Description Заменяет всех игроков и все матчи. Принимает multipart-поле backup или JSON в теле запроса.
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param backup formData file false "Файл бэкапа"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Некорректный документ"
// @Failure 500 {object} map[string]string "Частичная запись: перечитайте данные"
// @Security BearerAuth
// @Router /backup/restore [post]
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var body io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := r.ParseMultipartForm(maxBackupSize)
		if err != nil {
			h.badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
			return
		}
		file, _, err := r.FormFile("backup")
		if err != nil {
			h.badRequestResponse(w, r, fmt.Errorf("failed to get backup file from form: %w", err))
			return
		}
		defer file.Close()
		body = file
	} else {
		body = http.MaxBytesReader(w, r.Body, maxBackupSize)
	}

	var backup models.Backup
	if err := json.NewDecoder(body).Decode(&backup); err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("%w: %v", services.ErrInvalidBackup, err))
		return
	}

	if err := h.backupService.Restore(r.Context(), &backup); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"players": len(backup.Data.Players),
		"matches": len(backup.Data.Matches),
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"restored": response}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
