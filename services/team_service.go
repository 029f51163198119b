package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/calcetto/metrics"
	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/Dosada05/calcetto/squads"
	"github.com/samber/lo"
)

type TeamService interface {
	// GenerateTeams строит составы из подтвердивших участие и ручных закреплений.
	GenerateTeams(ctx context.Context, matchID int, manual squads.ManualAssignment) (*GeneratedTeams, error)
	AssignTeams(ctx context.Context, matchID int, red, blue []int) (*models.Match, error)
	ResetTeams(ctx context.Context, matchID int) (*models.Match, error)
	PublishTeams(ctx context.Context, matchID int) (*models.Match, error)
	SuggestSwaps(ctx context.Context, matchID int) ([]squads.SwapSuggestion, error)
	Overview(ctx context.Context, matchID int) (*TeamsOverview, error)
}

type GeneratedTeams struct {
	Match  *models.Match  `json:"match"`
	Result *squads.Result `json:"result"`
}

// TeamsOverview - баланс и средние показатели обоих составов.
type TeamsOverview struct {
	Balance   squads.Balance             `json:"balance"`
	Red       squads.TeamStats           `json:"red"`
	Blue      squads.TeamStats           `json:"blue"`
	RedRoles  map[models.PlayingRole]int `json:"red_roles"`
	BlueRoles map[models.PlayingRole]int `json:"blue_roles"`
}

type teamService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	generator  squads.TeamGenerator
	notifier   MatchNotifier
}

func NewTeamService(
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	generator squads.TeamGenerator,
	notifier MatchNotifier,
) TeamService {
	if generator == nil {
		generator = squads.NewBalancedGenerator(squads.DefaultMaxCandidates)
	}
	return &teamService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		generator:  generator,
		notifier:   notifierOrNop(notifier),
	}
}

func (s *teamService) load(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError("get match", err)
	}
	m.Normalize()
	return m, nil
}

func (s *teamService) save(ctx context.Context, m *models.Match, changes ...stateChange) (*models.Match, error) {
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return nil, handleRepositoryError("update match", err)
	}
	for _, c := range changes {
		c.record()
	}
	s.notifier.MatchUpdated(m)
	return m, nil
}

func (s *teamService) playersByID(ctx context.Context) (map[int]*models.Player, error) {
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, handleRepositoryError("list players", err)
	}
	return lo.KeyBy(players, func(p *models.Player) int { return p.ID }), nil
}

func (s *teamService) GenerateTeams(ctx context.Context, matchID int, manual squads.ManualAssignment) (*GeneratedTeams, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(m.State, models.MatchTeamsGenerated) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, models.MatchTeamsGenerated)
	}
	byID, err := s.playersByID(ctx)
	if err != nil {
		return nil, err
	}

	poolIDs := lo.Uniq(append(append(m.PresentIDs(), manual.Red...), manual.Blue...))
	pool := make([]*models.Player, 0, len(poolIDs))
	for _, id := range poolIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		pool = append(pool, p)
	}
	if len(pool) < 2 {
		return nil, fmt.Errorf("%w: %d present", ErrNotEnoughPlayers, len(pool))
	}

	result, err := s.generator.Generate(ctx, squads.GenerateParams{Pool: pool, Manual: manual})
	if err != nil {
		return nil, mapGeneratorError(err)
	}
	metrics.BalanceIndex.Observe(float64(result.Balance.Index))

	saved, err := s.assign(ctx, m, result.Red, result.Blue)
	if err != nil {
		return nil, err
	}
	return &GeneratedTeams{Match: saved, Result: result}, nil
}

func mapGeneratorError(err error) error {
	switch {
	case errors.Is(err, squads.ErrPlayerInBothTeams):
		return err
	case errors.Is(err, squads.ErrManualNotInPool),
		errors.Is(err, squads.ErrManualOverflow),
		errors.Is(err, squads.ErrDuplicatePlayer):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

// AssignTeams сохраняет составы, заданные администратором.
// Присутствие игроков не проверяется повторно: составы собираются из подтвердивших участие на клиенте.
func (s *teamService) AssignTeams(ctx context.Context, matchID int, red, blue []int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.assign(ctx, m, red, blue)
}

func (s *teamService) assign(ctx context.Context, m *models.Match, red, blue []int) (*models.Match, error) {
	if len(red) == 0 || len(blue) == 0 {
		return nil, ErrEmptyTeam
	}
	if both := lo.Intersect(red, blue); len(both) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrPlayerInBothTeams, both)
	}
	if dup := lo.FindDuplicates(append(append([]int{}, red...), blue...)); len(dup) > 0 {
		return nil, fmt.Errorf("%w: duplicate players %v", ErrValidationFailed, dup)
	}
	change, err := transition(m, models.MatchTeamsGenerated)
	if err != nil {
		return nil, err
	}
	m.Red = append([]int{}, red...)
	m.Blue = append([]int{}, blue...)
	return s.save(ctx, m, change)
}

// ResetTeams очищает составы и возвращает матч в Complete.
func (s *teamService) ResetTeams(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	switch m.State {
	case models.MatchClosed:
		return nil, ErrMatchClosed
	case models.MatchTeamsGenerated, models.MatchPublished:
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, models.MatchComplete)
	}
	change, err := transition(m, models.MatchComplete)
	if err != nil {
		return nil, err
	}
	m.Red = []int{}
	m.Blue = []int{}
	m.ClearResult()
	return s.save(ctx, m, change)
}

func (s *teamService) PublishTeams(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.State != models.MatchTeamsGenerated {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, models.MatchPublished)
	}
	change, err := transition(m, models.MatchPublished)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, m, change)
}

func (s *teamService) squadsOf(ctx context.Context, matchID int) (red, blue []*models.Player, err error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	byID, err := s.playersByID(ctx)
	if err != nil {
		return nil, nil, err
	}
	pick := func(ids []int) []*models.Player {
		return lo.FilterMap(ids, func(id int, _ int) (*models.Player, bool) {
			p, ok := byID[id]
			return p, ok
		})
	}
	return pick(m.Red), pick(m.Blue), nil
}

func (s *teamService) SuggestSwaps(ctx context.Context, matchID int) ([]squads.SwapSuggestion, error) {
	red, blue, err := s.squadsOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return squads.SuggestSwaps(red, blue), nil
}

func (s *teamService) Overview(ctx context.Context, matchID int) (*TeamsOverview, error) {
	red, blue, err := s.squadsOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return &TeamsOverview{
		Balance:   squads.CalculateBalance(red, blue),
		Red:       squads.CalculateTeamStats(red),
		Blue:      squads.CalculateTeamStats(blue),
		RedRoles:  squads.RoleBreakdown(red),
		BlueRoles: squads.RoleBreakdown(blue),
	}, nil
}
