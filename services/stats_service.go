package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const DefaultLeaderboardLimit = 10

type StatsService interface {
	// YearlyStats считает показатели игрока по закрытым матчам года; year <= 0 - текущий год.
	YearlyStats(ctx context.Context, playerID, year int) (models.YearlyStats, error)
	Leaderboard(ctx context.Context, category models.LeaderboardCategory, year, limit int) ([]models.LeaderboardEntry, error)
	MatchesSummary(ctx context.Context) (models.MatchesSummary, error)
}

type statsService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	now        func() time.Time
}

func NewStatsService(matchRepo repositories.MatchRepository, playerRepo repositories.PlayerRepository) StatsService {
	return &statsService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		now:        time.Now,
	}
}

func (s *statsService) year(year int) int {
	if year <= 0 {
		return s.now().Year()
	}
	return year
}

// loadAll читает игроков и матчи параллельно.
func (s *statsService) loadAll(ctx context.Context) ([]*models.Player, []*models.Match, error) {
	var (
		players []*models.Player
		matches []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.GetAll(gctx)
		return handleRepositoryError("list players", err)
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.GetAll(gctx)
		return handleRepositoryError("list matches", err)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return players, matches, nil
}

func (s *statsService) YearlyStats(ctx context.Context, playerID, year int) (models.YearlyStats, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return models.YearlyStats{}, handleRepositoryError("get player", err)
	}
	matches, err := s.matchRepo.GetAll(ctx)
	if err != nil {
		return models.YearlyStats{}, handleRepositoryError("list matches", err)
	}
	return ComputeYearlyStats(playerID, matches, s.year(year)), nil
}

// ComputeYearlyStats - чистая функция: показатели игрока по закрытым матчам указанного года.
// Без закрытых матчей или без присутствий все значения нулевые.
func ComputeYearlyStats(playerID int, matches []*models.Match, year int) models.YearlyStats {
	stats := models.YearlyStats{PlayerID: playerID, Year: year}

	for _, m := range matches {
		if m.State != models.MatchClosed || m.Date.Year() != year {
			continue
		}
		stats.TotalClosed++

		side, ok := m.SideOf(playerID)
		if !ok {
			continue
		}
		outcome, ok := m.Outcome()
		if !ok {
			continue
		}
		stats.Presences++

		won := string(outcome) == string(side)
		switch {
		case won:
			stats.Wins++
			stats.AldIndex += 4
		case outcome == models.OutcomeDraw:
			stats.Draws++
			stats.AldIndex += 2
		default:
			stats.Losses++
			stats.AldIndex++
		}

		for _, sc := range m.Scorers {
			if sc.PlayerID == playerID {
				stats.Goals += sc.Credited()
			}
		}
		for _, id := range m.Cards {
			if id == playerID {
				stats.Cards++
			}
		}
		if mvpOf(m, side) == playerID {
			if won {
				stats.MVPPoints += 3
			} else {
				stats.MVPPoints++
			}
		}
	}

	stats.MatchPoints = stats.Wins*3 + stats.Draws
	stats.Percentuale = percent(stats.Presences, stats.TotalClosed)
	stats.WinRate = percent(stats.Wins, stats.Presences)
	stats.MediaGol = perPresence(stats.Goals, stats.Presences)
	stats.MVPRate = perPresence(stats.MVPPoints, stats.Presences)
	stats.BadGuyRate = perPresence(stats.Cards, stats.Presences)
	return stats
}

func mvpOf(m *models.Match, side models.Side) int {
	p := m.MVPBlue
	if side == models.SideRed {
		p = m.MVPRed
	}
	if p == nil {
		return 0
	}
	return *p
}

func percent(value, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(value) / float64(count) * 100))
}

// perPresence - среднее на одно присутствие, два знака после запятой.
func perPresence(value, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(value)/float64(count)*100) / 100
}

func categoryValue(st models.YearlyStats, category models.LeaderboardCategory) int {
	switch category {
	case models.CategoryAldIndex:
		return st.AldIndex
	case models.CategoryMVP:
		return st.MVPPoints
	case models.CategoryPresences:
		return st.Presences
	case models.CategoryGoals:
		return st.Goals
	case models.CategoryCards:
		return st.Cards
	case models.CategoryWins:
		return st.Wins
	}
	return 0
}

// Leaderboard строит рейтинг по годовым показателям. При равенстве порядок - по id игрока.
func (s *statsService) Leaderboard(ctx context.Context, category models.LeaderboardCategory, year, limit int) ([]models.LeaderboardEntry, error) {
	if category == "" {
		category = models.CategoryMVP
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	players, matches, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	y := s.year(year)

	entries := lo.Map(players, func(p *models.Player, _ int) models.LeaderboardEntry {
		st := ComputeYearlyStats(p.ID, matches, y)
		return models.LeaderboardEntry{Player: p, Value: categoryValue(st, category), Stats: st}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Player.ID < entries[j].Player.ID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *statsService) MatchesSummary(ctx context.Context) (models.MatchesSummary, error) {
	matches, err := s.matchRepo.GetAll(ctx)
	if err != nil {
		return models.MatchesSummary{}, handleRepositoryError("list matches", err)
	}
	return ComputeMatchesSummary(matches), nil
}

// ComputeMatchesSummary сводит закрытые матчи: победы сторон, ничьи и голы. Результаты - новые первыми.
func ComputeMatchesSummary(matches []*models.Match) models.MatchesSummary {
	closed := lo.Filter(matches, func(m *models.Match, _ int) bool {
		return m.State == models.MatchClosed && m.HasResult()
	})
	sortMatchesByDate(closed, false)

	summary := models.MatchesSummary{Results: make([]models.MatchResultSummary, 0, len(closed))}
	for _, m := range closed {
		outcome, _ := m.Outcome()
		switch outcome {
		case models.OutcomeRed:
			summary.RedWins++
		case models.OutcomeBlue:
			summary.BlueWins++
		default:
			summary.Draws++
		}
		summary.TotalGoals += *m.RedGoals + *m.BlueGoals
		summary.Results = append(summary.Results, models.MatchResultSummary{
			MatchID:   m.ID,
			Date:      m.Date.Format("2006-01-02"),
			RedGoals:  *m.RedGoals,
			BlueGoals: *m.BlueGoals,
			Outcome:   outcome,
		})
	}
	summary.TotalMatches = len(closed)
	if summary.TotalMatches > 0 {
		summary.AvgGoalsPerMatch = math.Round(float64(summary.TotalGoals)/float64(summary.TotalMatches)*10) / 10
	}
	return summary
}
