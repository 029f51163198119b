package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedMatch(id int, date string, red, blue []int, redGoals, blueGoals int) *models.Match {
	d, _ := time.Parse("2006-01-02", date)
	m := &models.Match{
		ID:        id,
		Date:      d,
		State:     models.MatchClosed,
		Red:       red,
		Blue:      blue,
		RedGoals:  models.IntPtr(redGoals),
		BlueGoals: models.IntPtr(blueGoals),
		MVPRed:    models.IntPtr(red[0]),
		MVPBlue:   models.IntPtr(blue[0]),
	}
	m.Normalize()
	return m
}

func TestComputeYearlyStatsZeroSafe(t *testing.T) {
	assert.Equal(t, models.YearlyStats{PlayerID: 1, Year: 2025}, ComputeYearlyStats(1, nil, 2025))

	// закрытые матчи есть, но игрок не играл
	matches := []*models.Match{closedMatch(1, "2025-02-04", []int{2}, []int{3}, 1, 0)}
	st := ComputeYearlyStats(1, matches, 2025)
	assert.Equal(t, 1, st.TotalClosed)
	assert.Zero(t, st.Presences)
	assert.Zero(t, st.Percentuale)
	assert.Zero(t, st.MediaGol)
	assert.Zero(t, st.WinRate)
}

func TestComputeYearlyStats(t *testing.T) {
	win := closedMatch(1, "2025-01-07", []int{1, 2}, []int{3, 4}, 3, 1)
	win.Scorers = []models.Scorer{{PlayerID: 1, Goals: 2}, {PlayerID: 1}}
	win.Cards = []int{1}

	draw := closedMatch(2, "2025-01-14", []int{3, 4}, []int{1, 2}, 2, 2)
	draw.MVPBlue = models.IntPtr(1)

	loss := closedMatch(3, "2025-01-21", []int{2, 3}, []int{4, 1}, 1, 0)
	absent := closedMatch(4, "2025-01-28", []int{2}, []int{3}, 0, 0)
	lastYear := closedMatch(5, "2024-12-31", []int{1}, []int{2}, 5, 0)
	open := closedMatch(6, "2025-02-04", []int{1}, []int{2}, 5, 0)
	open.State = models.MatchPublished

	st := ComputeYearlyStats(1, []*models.Match{win, draw, loss, absent, lastYear, open}, 2025)

	assert.Equal(t, 4, st.TotalClosed)
	assert.Equal(t, 3, st.Presences)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, 1, st.Losses)
	assert.Equal(t, 4+2+1, st.AldIndex)
	assert.Equal(t, 4, st.MatchPoints)
	assert.Equal(t, 75, st.Percentuale)
	assert.Equal(t, 3, st.Goals)
	assert.Equal(t, 1.0, st.MediaGol)
	assert.Equal(t, 4, st.MVPPoints) // 3 за победу + 1 за ничью
	assert.Equal(t, 1.33, st.MVPRate)
	assert.Equal(t, 1, st.Cards)
	assert.Equal(t, 0.33, st.BadGuyRate)
	assert.Equal(t, 33, st.WinRate)
	assert.LessOrEqual(t, st.Presences, st.TotalClosed)
}

func TestComputeMatchesSummary(t *testing.T) {
	matches := []*models.Match{
		closedMatch(1, "2025-01-07", []int{1}, []int{2}, 3, 1),
		closedMatch(2, "2025-01-21", []int{1}, []int{2}, 2, 2),
		closedMatch(3, "2025-01-14", []int{1}, []int{2}, 0, 1),
		{ID: 4, State: models.MatchCreated},
	}
	s := ComputeMatchesSummary(matches)

	assert.Equal(t, 3, s.TotalMatches)
	assert.Equal(t, 1, s.RedWins)
	assert.Equal(t, 1, s.BlueWins)
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 9, s.TotalGoals)
	assert.Equal(t, 3.0, s.AvgGoalsPerMatch)
	require.Len(t, s.Results, 3)
	assert.Equal(t, 2, s.Results[0].MatchID)
	assert.Equal(t, 1, s.Results[2].MatchID)
	assert.Equal(t, models.OutcomeDraw, s.Results[0].Outcome)

	empty := ComputeMatchesSummary(nil)
	assert.Zero(t, empty.TotalMatches)
	assert.Zero(t, empty.AvgGoalsPerMatch)
	assert.NotNil(t, empty.Results)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.statsSvc.(*statsService).now = fixedClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	ids := env.seedPlayers(t, 12)

	m := env.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(3, 0)
	in.Scorers = []models.Scorer{{PlayerID: ids[2], Goals: 3}}
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[2]), models.IntPtr(ids[5])
	_, err := env.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	board, err := env.statsSvc.Leaderboard(ctx, models.CategoryGoals, 0, 0)
	require.NoError(t, err)
	require.Len(t, board, DefaultLeaderboardLimit)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, ids[2], board[0].Player.ID)
	assert.Equal(t, 3, board[0].Value)
	assert.Equal(t, 10, board[9].Rank)

	mvp, err := env.statsSvc.Leaderboard(ctx, models.CategoryMVP, 2025, 2)
	require.NoError(t, err)
	require.Len(t, mvp, 2)
	assert.Equal(t, ids[2], mvp[0].Player.ID)
	assert.Equal(t, 3, mvp[0].Value)
	assert.Equal(t, ids[5], mvp[1].Player.ID)
	assert.Equal(t, 1, mvp[1].Value)

	old, err := env.statsSvc.Leaderboard(ctx, models.CategoryGoals, 2024, 3)
	require.NoError(t, err)
	assert.Zero(t, old[0].Value)

	_, err = env.statsSvc.Leaderboard(ctx, "assist", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestYearlyStatsService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(1, 2)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[0]), models.IntPtr(ids[5])
	_, err := env.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	st, err := env.statsSvc.YearlyStats(ctx, ids[5], 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Presences)
	assert.Equal(t, 100, st.Percentuale)
	assert.Equal(t, 4, st.AldIndex)
	assert.Equal(t, 100, st.WinRate)

	_, err = env.statsSvc.YearlyStats(ctx, 999, 2025)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	summary, err := env.statsSvc.MatchesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.BlueWins)
}
