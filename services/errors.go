package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/squads"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound       = errors.New("requested resource not found")
	ErrMatchNotFound  = fmt.Errorf("%w: match", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("%w: player", ErrNotFound)

	// Ошибки валидации
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidResponse   = errors.New("invalid convocation response")
	ErrInvalidFormat     = errors.New("invalid match format")
	ErrInvalidDate       = errors.New("invalid match date")
	ErrInvalidTime       = errors.New("invalid match time, expected HH:MM")
	ErrInvalidGoals      = errors.New("goals must be non-negative")
	ErrInvalidAttributes = errors.New("player attributes must be between 1 and 5")
	ErrInvalidTier       = errors.New("invalid player tier")
	ErrInvalidRole       = errors.New("invalid playing role")
	ErrInvalidAccount    = errors.New("invalid account role")
	ErrInvalidCategory   = errors.New("invalid leaderboard category")
	ErrInvalidPIN        = errors.New("PIN must be exactly 4 digits")
	ErrNameRequired      = errors.New("first name and last name are required")

	// Ошибки жизненного цикла матча
	ErrInvalidTransition = errors.New("invalid match state transition")
	ErrMatchClosed       = errors.New("match is closed, reopen it first")
	ErrEmptyTeam         = errors.New("each team needs at least one player")
	ErrMissingResult     = errors.New("match result is missing")
	ErrMissingMVP        = errors.New("both MVPs are required to close the match")
	ErrScorerOverflow    = errors.New("scorer goals exceed team goals")
	ErrMVPNotInTeam      = errors.New("MVP must belong to their team")
	ErrPlayerNotInTeam   = errors.New("player does not belong to either team")
	ErrPlayerInBothTeams = squads.ErrPlayerInBothTeams
	ErrNotEnoughPlayers  = errors.New("not enough present players to build teams")

	// Аккаунты
	ErrInvalidCredentials = errors.New("invalid username or PIN")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrUsernameConflict   = errors.New("a player with this first and last name already exists")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Файлы и бэкапы
	ErrUploadsDisabled = errors.New("file storage is not configured")
	ErrInvalidFileType = errors.New("only image files are allowed")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrInvalidBackup   = errors.New("invalid backup document")
)

// ScorerOverflowError - сумма голов бомбардиров команды больше голов команды.
type ScorerOverflowError struct {
	Team     models.Side
	Overflow int
}

func (e *ScorerOverflowError) Error() string {
	return fmt.Sprintf("%s: team %s by %d", ErrScorerOverflow, e.Team, e.Overflow)
}

func (e *ScorerOverflowError) Unwrap() error {
	return ErrScorerOverflow
}

// StoreError - непрозрачная ошибка хранилища. Сообщение передается как есть.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PartialWriteError означает, что часть записей сохранена, а часть нет.
// Данные нужно перечитать из хранилища.
type PartialWriteError struct {
	Op        string
	Completed []string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write during %s (completed: %s): %v; reload data to recover",
		e.Op, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
