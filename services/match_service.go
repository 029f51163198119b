package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
)

const (
	DefaultMatchTime     = "20:00"
	DefaultMatchLocation = "OGGIONA"
	DefaultMatchFormat   = models.Format8v8
	DefaultRecentDays    = 3
)

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, ascending bool) ([]*models.Match, error)
	Active(ctx context.Context) (*models.Match, error)
	RecentClosed(ctx context.Context, daysBack int) (*models.Match, error)
	UpdateLogistics(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type CreateMatchInput struct {
	Date     string        `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     string        `json:"time" validate:"omitempty"`
	Location string        `json:"location" validate:"omitempty,max=100"`
	Format   models.Format `json:"format" validate:"omitempty"`
	Invited  []int         `json:"invited" validate:"omitempty,dive,gt=0"`
}

// UpdateMatchInput - изменение логистики матча; nil-поля не меняются.
type UpdateMatchInput struct {
	Date     *string        `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     *string        `json:"time"`
	Location *string        `json:"location" validate:"omitempty,max=100"`
	Format   *models.Format `json:"format"`
}

type matchService struct {
	matchRepo repositories.MatchRepository
	notifier  MatchNotifier
	now       func() time.Time
}

func NewMatchService(matchRepo repositories.MatchRepository, notifier MatchNotifier) MatchService {
	return &matchService{
		matchRepo: matchRepo,
		notifier:  notifierOrNop(notifier),
		now:       time.Now,
	}
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	m := &models.Match{
		Time:     DefaultMatchTime,
		Location: DefaultMatchLocation,
		Format:   DefaultMatchFormat,
		State:    models.MatchCreated,
		Phase:    models.PhaseStarters,
	}

	m.Date = nextTuesday(s.now())
	if input.Date != "" {
		d, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, input.Date)
		}
		m.Date = d
	}
	if input.Time != "" {
		if err := validateTime(input.Time); err != nil {
			return nil, err
		}
		m.Time = input.Time
	}
	if loc := strings.TrimSpace(input.Location); loc != "" {
		m.Location = loc
	}
	if input.Format != "" {
		if !input.Format.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
		}
		m.Format = input.Format
	}

	m.Normalize()
	for _, id := range input.Invited {
		inviteInto(m, id)
	}

	all, err := s.matchRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list matches", err)
	}
	m.Sequence = nextSequence(all, m.Date.Year())

	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, handleRepositoryError("create match", err)
	}
	s.notifier.MatchUpdated(m)
	return m, nil
}

// nextSequence - максимальный номер матча в году плюс один.
func nextSequence(matches []*models.Match, year int) int {
	highest := 0
	for _, m := range matches {
		if m.Date.Year() == year && m.Sequence > highest {
			highest = m.Sequence
		}
	}
	return highest + 1
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError("get match", err)
	}
	return m, nil
}

// List возвращает матчи по дате: по умолчанию новые первыми.
func (s *matchService) List(ctx context.Context, ascending bool) ([]*models.Match, error) {
	matches, err := s.matchRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list matches", err)
	}
	sortMatchesByDate(matches, ascending)
	return matches, nil
}

func sortMatchesByDate(matches []*models.Match, ascending bool) {
	sort.SliceStable(matches, func(i, j int) bool {
		if ascending {
			return matches[i].Date.Before(matches[j].Date)
		}
		return matches[i].Date.After(matches[j].Date)
	})
}

// Active возвращает ближайший по дате незакрытый матч.
func (s *matchService) Active(ctx context.Context) (*models.Match, error) {
	matches, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.State != models.MatchClosed {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

// RecentClosed возвращает последний закрытый матч не старше daysBack дней.
func (s *matchService) RecentClosed(ctx context.Context, daysBack int) (*models.Match, error) {
	if daysBack <= 0 {
		daysBack = DefaultRecentDays
	}
	matches, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	cutoff := civilDate(s.now()).AddDate(0, 0, -daysBack)
	for _, m := range matches {
		if m.State == models.MatchClosed && !m.Date.Before(cutoff) {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (s *matchService) UpdateLogistics(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.State == models.MatchClosed {
		return nil, ErrMatchClosed
	}

	if input.Date != nil {
		d, err := time.Parse("2006-01-02", *input.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, *input.Date)
		}
		m.Date = d
	}
	if input.Time != nil {
		if err := validateTime(*input.Time); err != nil {
			return nil, err
		}
		m.Time = *input.Time
	}
	if input.Location != nil {
		m.Location = strings.TrimSpace(*input.Location)
	}
	if input.Format != nil {
		if !input.Format.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, *input.Format)
		}
		m.Format = *input.Format
	}

	if err := s.matchRepo.Update(ctx, m); err != nil {
		return nil, handleRepositoryError("update match", err)
	}
	s.notifier.MatchUpdated(m)
	return m, nil
}

// Delete удаляет матч в любом состоянии.
func (s *matchService) Delete(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError("delete match", err)
	}
	s.notifier.MatchDeleted(id)
	return nil
}
