package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/calcetto/metrics"
	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
)

// MatchNotifier получает каждое сохраненное состояние матча (websocket-хаб).
type MatchNotifier interface {
	MatchUpdated(match *models.Match)
	MatchDeleted(matchID int)
}

type nopNotifier struct{}

func (nopNotifier) MatchUpdated(*models.Match) {}
func (nopNotifier) MatchDeleted(int)           {}

func notifierOrNop(n MatchNotifier) MatchNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

var allowedTransitions = map[models.MatchState][]models.MatchState{
	models.MatchCreated:        {models.MatchComplete, models.MatchTeamsGenerated},
	models.MatchComplete:       {models.MatchTeamsGenerated},
	models.MatchTeamsGenerated: {models.MatchTeamsGenerated, models.MatchComplete, models.MatchPublished},
	models.MatchPublished:      {models.MatchComplete, models.MatchClosed},
	models.MatchClosed:         {models.MatchPublished},
}

func isValidTransition(current, next models.MatchState) bool {
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// stateChange - выполненный переход. В метрики попадает только после сохранения матча.
type stateChange struct {
	from, to models.MatchState
}

func (c stateChange) record() {
	metrics.MatchTransitions.WithLabelValues(string(c.from), string(c.to)).Inc()
}

// transition переводит матч в новое состояние, если переход разрешен таблицей.
func transition(m *models.Match, next models.MatchState) (stateChange, error) {
	if !isValidTransition(m.State, next) {
		return stateChange{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, next)
	}
	change := stateChange{from: m.State, to: next}
	m.State = next
	return change, nil
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисов.
// Неизвестные ошибки хранилища оборачиваются в StoreError без интерпретации.
func handleRepositoryError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrMatchPlayerInvalid):
		return fmt.Errorf("%w: %v", ErrPlayerNotFound, err)
	case errors.Is(err, repositories.ErrPlayerUsernameConflict):
		return ErrUsernameConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// nextTuesday возвращает ближайший вторник после now (не сегодняшний).
func nextTuesday(now time.Time) time.Time {
	days := (int(time.Tuesday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateTime(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
