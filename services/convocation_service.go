package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
)

type ConvocationService interface {
	Invite(ctx context.Context, matchID, playerID int) (*models.Match, error)
	Uninvite(ctx context.Context, matchID, playerID int) (*models.Match, error)
	Respond(ctx context.Context, matchID, playerID int, response models.Response) (*models.Match, error)
	Stats(ctx context.Context, matchID int) (models.ConvocationStats, error)
	// InviteRoster приглашает всех незаблокированных основных игроков,
	// а после открытия второй фазы еще и запасных.
	InviteRoster(ctx context.Context, matchID int) (*models.Match, error)
	OpenToReserves(ctx context.Context, matchID int) (*models.Match, error)
}

type convocationService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	notifier   MatchNotifier
	now        func() time.Time
}

func NewConvocationService(
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	notifier MatchNotifier,
) ConvocationService {
	return &convocationService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		notifier:   notifierOrNop(notifier),
		now:        time.Now,
	}
}

func (s *convocationService) load(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError("get match", err)
	}
	m.Normalize()
	return m, nil
}

func (s *convocationService) save(ctx context.Context, m *models.Match, changes ...stateChange) (*models.Match, error) {
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return nil, handleRepositoryError("update match", err)
	}
	for _, c := range changes {
		c.record()
	}
	s.notifier.MatchUpdated(m)
	return m, nil
}

// Invite идемпотентен: повторное приглашение не меняет существующий ответ.
func (s *convocationService) Invite(ctx context.Context, matchID, playerID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return nil, handleRepositoryError("get player", err)
	}
	inviteInto(m, playerID)
	return s.save(ctx, m)
}

func inviteInto(m *models.Match, playerID int) {
	if !containsID(m.Invited, playerID) {
		m.Invited = append(m.Invited, playerID)
	}
	if _, ok := m.Responses[playerID]; !ok {
		m.Responses[playerID] = models.ResponsePending
	}
}

func (s *convocationService) Uninvite(ctx context.Context, matchID, playerID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	invited := make([]int, 0, len(m.Invited))
	for _, id := range m.Invited {
		if id != playerID {
			invited = append(invited, id)
		}
	}
	m.Invited = invited
	delete(m.Responses, playerID)
	return s.save(ctx, m)
}

// Respond записывает ответ игрока. Игрок, ответивший без приглашения, добавляется в приглашенные.
// Когда присутствующих становится не меньше вместимости формата, созданный матч
// переходит в Complete; обратного перехода нет.
func (s *convocationService) Respond(ctx context.Context, matchID, playerID int, response models.Response) (*models.Match, error) {
	if !response.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResponse, response)
	}
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if !containsID(m.Invited, playerID) {
		m.Invited = append(m.Invited, playerID)
	}
	m.Responses[playerID] = response

	var changes []stateChange
	if m.State == models.MatchCreated && m.PresentCount() >= m.Format.Capacity() {
		change, err := transition(m, models.MatchComplete)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return s.save(ctx, m, changes...)
}

func (s *convocationService) Stats(ctx context.Context, matchID int) (models.ConvocationStats, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return models.ConvocationStats{}, err
	}
	return ComputeConvocationStats(m), nil
}

// ComputeConvocationStats считает ответы; приглашенные без ответа считаются pending.
func ComputeConvocationStats(m *models.Match) models.ConvocationStats {
	var stats models.ConvocationStats
	seen := make(map[int]bool, len(m.Invited)+len(m.Responses))
	count := func(id int) {
		if seen[id] {
			return
		}
		seen[id] = true
		switch m.ResponseOf(id) {
		case models.ResponsePresent:
			stats.Present++
		case models.ResponseMaybe:
			stats.Maybe++
		case models.ResponseAbsent:
			stats.Absent++
		default:
			stats.Pending++
		}
	}
	for _, id := range m.Invited {
		count(id)
	}
	for id := range m.Responses {
		count(id)
	}
	return stats
}

func (s *convocationService) InviteRoster(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list players", err)
	}
	for _, p := range players {
		if p.Blocked {
			continue
		}
		if p.Tier == models.TierStarter || m.Phase == models.PhaseReserves {
			inviteInto(m, p.ID)
		}
	}
	return s.save(ctx, m)
}

func (s *convocationService) OpenToReserves(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.State == models.MatchClosed {
		return nil, ErrMatchClosed
	}
	if m.Phase != models.PhaseReserves {
		now := s.now()
		m.Phase = models.PhaseReserves
		m.ReservesOpenedAt = &now
	}
	return s.save(ctx, m)
}
