package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
)

type ResultService interface {
	// SubmitResult проверяет и сохраняет результат опубликованного матча.
	// При ошибке матч в хранилище не меняется.
	SubmitResult(ctx context.Context, matchID int, input ResultInput) (*models.Match, error)
	// CloseMatch закрывает матч и начисляет игрокам счетчики.
	// Повторное закрытие после переоткрытия начисляет только разницу с прошлым закрытием.
	CloseMatch(ctx context.Context, matchID int) (*models.Match, error)
	// FinalizeMatch сохраняет результат и закрывает матч одной записью.
	FinalizeMatch(ctx context.Context, matchID int, input ResultInput) (*models.Match, error)
	ReopenMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type ResultInput struct {
	RedGoals  *int            `json:"red_goals" validate:"required,gte=0"`
	BlueGoals *int            `json:"blue_goals" validate:"required,gte=0"`
	Scorers   []models.Scorer `json:"scorers" validate:"dive"`
	Cards     []int           `json:"cards" validate:"dive,gt=0"`
	MVPRed    *int            `json:"mvp_red"`
	MVPBlue   *int            `json:"mvp_blue"`
}

// ClosureDelta - вклад одного закрытого матча в показатели игрока.
type ClosureDelta struct {
	Side        models.Side           `json:"side"`
	AldIndex    int                   `json:"ald_index"`
	MatchPoints int                   `json:"match_points"`
	Counters    models.PlayerCounters `json:"counters"`
}

type resultService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	notifier   MatchNotifier
}

func NewResultService(
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	notifier MatchNotifier,
) ResultService {
	return &resultService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		notifier:   notifierOrNop(notifier),
	}
}

func (s *resultService) load(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError("get match", err)
	}
	m.Normalize()
	return m, nil
}

func (s *resultService) SubmitResult(ctx context.Context, matchID int, input ResultInput) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := requirePublished(m); err != nil {
		return nil, err
	}
	updated := m.Clone()
	if err := applyResult(updated, input); err != nil {
		return nil, err
	}
	if err := s.matchRepo.Update(ctx, updated); err != nil {
		return nil, handleRepositoryError("update match", err)
	}
	s.notifier.MatchUpdated(updated)
	return updated, nil
}

func requirePublished(m *models.Match) error {
	switch m.State {
	case models.MatchPublished:
		return nil
	case models.MatchClosed:
		return ErrMatchClosed
	}
	return fmt.Errorf("%w: result requires a published match, state is %s", ErrInvalidTransition, m.State)
}

// applyResult проверяет результат относительно составов и записывает его в m.
// При ошибке m не изменяется.
func applyResult(m *models.Match, input ResultInput) error {
	if input.RedGoals == nil || input.BlueGoals == nil {
		return ErrMissingResult
	}
	if *input.RedGoals < 0 || *input.BlueGoals < 0 {
		return ErrInvalidGoals
	}
	if input.MVPRed != nil && !containsID(m.Red, *input.MVPRed) {
		return fmt.Errorf("%w: red MVP %d", ErrMVPNotInTeam, *input.MVPRed)
	}
	if input.MVPBlue != nil && !containsID(m.Blue, *input.MVPBlue) {
		return fmt.Errorf("%w: blue MVP %d", ErrMVPNotInTeam, *input.MVPBlue)
	}

	scored := map[models.Side]int{}
	for _, sc := range input.Scorers {
		if sc.Goals < 0 {
			return fmt.Errorf("%w: scorer %d", ErrInvalidGoals, sc.PlayerID)
		}
		side, ok := m.SideOf(sc.PlayerID)
		if !ok {
			return fmt.Errorf("%w: scorer %d", ErrPlayerNotInTeam, sc.PlayerID)
		}
		scored[side] += sc.Credited()
	}
	for _, id := range input.Cards {
		if _, ok := m.SideOf(id); !ok {
			return fmt.Errorf("%w: card %d", ErrPlayerNotInTeam, id)
		}
	}
	if err := checkScorerOverflow(scored, *input.RedGoals, *input.BlueGoals); err != nil {
		return err
	}

	m.RedGoals = models.IntPtr(*input.RedGoals)
	m.BlueGoals = models.IntPtr(*input.BlueGoals)
	m.Scorers = append([]models.Scorer{}, input.Scorers...)
	m.Cards = append([]int{}, input.Cards...)
	m.MVPRed = copyIntPtr(input.MVPRed)
	m.MVPBlue = copyIntPtr(input.MVPBlue)
	return nil
}

func checkScorerOverflow(scored map[models.Side]int, redGoals, blueGoals int) error {
	if over := scored[models.SideRed] - redGoals; over > 0 {
		return &ScorerOverflowError{Team: models.SideRed, Overflow: over}
	}
	if over := scored[models.SideBlue] - blueGoals; over > 0 {
		return &ScorerOverflowError{Team: models.SideBlue, Overflow: over}
	}
	return nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return models.IntPtr(*p)
}

// validateClosable проверяет условия закрытия: результат, оба MVP и голы бомбардиров.
func validateClosable(m *models.Match) error {
	if !m.HasResult() {
		return ErrMissingResult
	}
	if m.MVPRed == nil || m.MVPBlue == nil {
		return ErrMissingMVP
	}
	scored := map[models.Side]int{}
	for _, sc := range m.Scorers {
		if side, ok := m.SideOf(sc.PlayerID); ok {
			scored[side] += sc.Credited()
		}
	}
	return checkScorerOverflow(scored, *m.RedGoals, *m.BlueGoals)
}

func (s *resultService) CloseMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := requirePublished(m); err != nil {
		return nil, err
	}
	return s.close(ctx, m)
}

func (s *resultService) FinalizeMatch(ctx context.Context, matchID int, input ResultInput) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := requirePublished(m); err != nil {
		return nil, err
	}
	updated := m.Clone()
	if err := applyResult(updated, input); err != nil {
		return nil, err
	}
	return s.close(ctx, updated)
}

// close сохраняет Closed и приводит счетчики игроков к составам и результату матча.
// Начисляется разница с AppliedCounters, поэтому повторное закрытие после
// переоткрытия исправляет счетчики, а не удваивает их.
// Если счетчики записаны, а матч нет, возвращается PartialWriteError.
func (s *resultService) close(ctx context.Context, m *models.Match) (*models.Match, error) {
	if err := validateClosable(m); err != nil {
		return nil, err
	}
	closed := m.Clone()
	change, err := transition(closed, models.MatchClosed)
	if err != nil {
		return nil, err
	}

	deltas, err := ComputeClosureDeltas(closed)
	if err != nil {
		return nil, err
	}
	current := make(map[int]models.PlayerCounters, len(deltas))
	for id, d := range deltas {
		current[id] = d.Counters
	}
	applied := closed.AppliedCounters
	if closed.StatsApplied && applied == nil {
		// закрыт до учета приращений по игрокам: считаем начисленным текущий вклад
		applied = current
	}
	diff := CounterDiff(current, applied)

	countersWritten := false
	if len(diff) > 0 {
		if err := s.playerRepo.AddCounters(ctx, diff); err != nil {
			return nil, handleRepositoryError("update player counters", err)
		}
		countersWritten = true
	}
	closed.StatsApplied = true
	closed.AppliedCounters = current

	if err := s.matchRepo.Update(ctx, closed); err != nil {
		err = handleRepositoryError("update match", err)
		if countersWritten {
			return nil, &PartialWriteError{Op: "close match", Completed: []string{"player counters"}, Err: err}
		}
		return nil, err
	}
	change.record()
	s.notifier.MatchUpdated(closed)
	return closed, nil
}

// CounterDiff возвращает ненулевые приращения, переводящие счетчики из applied в current.
func CounterDiff(current, applied map[int]models.PlayerCounters) map[int]models.PlayerCounters {
	diff := make(map[int]models.PlayerCounters)
	for id, c := range current {
		if d := c.Sub(applied[id]); !d.IsZero() {
			diff[id] = d
		}
	}
	for id, a := range applied {
		if _, ok := current[id]; ok {
			continue
		}
		if d := (models.PlayerCounters{}).Sub(a); !d.IsZero() {
			diff[id] = d
		}
	}
	return diff
}

// ReopenMatch возвращает закрытый матч в Published, сохраняя результат и логистику.
func (s *resultService) ReopenMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.State != models.MatchClosed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, models.MatchPublished)
	}
	change, err := transition(m, models.MatchPublished)
	if err != nil {
		return nil, err
	}
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return nil, handleRepositoryError("update match", err)
	}
	change.record()
	s.notifier.MatchUpdated(m)
	return m, nil
}

// ComputeClosureDeltas считает вклад матча для каждого игрока обоих составов:
// AldIndex = 1 за присутствие + 3 за победу или 1 за ничью; MatchPoints = 3/1/0;
// бонус MVP = 3, если его команда победила, иначе 1.
func ComputeClosureDeltas(m *models.Match) (map[int]ClosureDelta, error) {
	outcome, ok := m.Outcome()
	if !ok {
		return nil, ErrMissingResult
	}

	goals := make(map[int]int, len(m.Scorers))
	for _, sc := range m.Scorers {
		goals[sc.PlayerID] += sc.Credited()
	}
	cards := make(map[int]int, len(m.Cards))
	for _, id := range m.Cards {
		cards[id]++
	}

	deltas := make(map[int]ClosureDelta, len(m.Red)+len(m.Blue))
	add := func(ids []int, side models.Side, mvp *int) {
		won := string(outcome) == string(side)
		draw := outcome == models.OutcomeDraw
		for _, id := range ids {
			d := ClosureDelta{Side: side}
			d.Counters.Presences = 1
			d.AldIndex = 1
			switch {
			case won:
				d.AldIndex += 3
				d.MatchPoints = 3
				d.Counters.Wins = 1
			case draw:
				d.AldIndex++
				d.MatchPoints = 1
			}
			if mvp != nil && *mvp == id {
				if won {
					d.Counters.MVPPoints = 3
				} else {
					d.Counters.MVPPoints = 1
				}
			}
			d.Counters.Goals = goals[id]
			d.Counters.Cards = cards[id]
			if side == models.SideRed {
				d.Counters.RedAppearances = 1
			} else {
				d.Counters.BlueAppearances = 1
			}
			deltas[id] = d
		}
	}
	add(m.Red, models.SideRed, m.MVPRed)
	add(m.Blue, models.SideBlue, m.MVPBlue)
	return deltas, nil
}
