package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTuesday(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC), "2025-06-03"},   // понедельник
		{time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), "2025-06-10"},   // вторник - следующая неделя
		{time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC), "2025-06-10"},   // суббота
		{time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC), "2026-01-06"}, // переход года
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextTuesday(tt.now).Format("2006-01-02"))
	}
}

func TestCreateMatchDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.matchSvc.(*matchService).now = fixedClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	m, err := env.matchSvc.Create(context.Background(), CreateMatchInput{})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-03", m.Date.Format("2006-01-02"))
	assert.Equal(t, DefaultMatchTime, m.Time)
	assert.Equal(t, DefaultMatchLocation, m.Location)
	assert.Equal(t, models.Format8v8, m.Format)
	assert.Equal(t, models.MatchCreated, m.State)
	assert.Equal(t, models.PhaseStarters, m.Phase)
	assert.Equal(t, 1, m.Sequence)
	assert.Equal(t, "2025-01", m.Identifier())
	assert.Equal(t, []int{m.ID}, env.notifier.updated)
}

func TestCreateMatchSequencePerYear(t *testing.T) {
	env := newTestEnv(t)
	a := env.createMatch(t, "2025-03-04", "")
	b := env.createMatch(t, "2025-03-11", "")
	c := env.createMatch(t, "2026-01-06", "")

	assert.Equal(t, 1, a.Sequence)
	assert.Equal(t, 2, b.Sequence)
	assert.Equal(t, 1, c.Sequence)

	require.NoError(t, env.matchSvc.Delete(context.Background(), a.ID))
	d := env.createMatch(t, "2025-03-18", "")
	assert.Equal(t, 3, d.Sequence, "sequence is max+1, gaps are not reused")
}

func TestCreateMatchValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.matchSvc.Create(ctx, CreateMatchInput{Date: "06/03/2025"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = env.matchSvc.Create(ctx, CreateMatchInput{Time: "25:99"})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = env.matchSvc.Create(ctx, CreateMatchInput{Format: "11v11"})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = env.matchSvc.Create(ctx, CreateMatchInput{Invited: []int{404}})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestCreateMatchWithInvited(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seedPlayers(t, 2)

	m, err := env.matchSvc.Create(context.Background(), CreateMatchInput{Date: "2025-05-06", Invited: ids})
	require.NoError(t, err)
	assert.Equal(t, ids, m.Invited)
	assert.Equal(t, models.ResponsePending, m.ResponseOf(ids[0]))
}

func TestActiveAndRecentClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.matchSvc.(*matchService)
	svc.now = fixedClock(time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC))

	_, err := env.matchSvc.Active(ctx)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	ids := env.seedPlayers(t, 10)
	closed := env.publishedMatch(t, "2025-06-10", ids)
	in := resultInput(2, 1)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[0]), models.IntPtr(ids[5])
	_, err = env.resultSvc.FinalizeMatch(ctx, closed.ID, in)
	require.NoError(t, err)

	later := env.createMatch(t, "2025-06-24", "")
	sooner := env.createMatch(t, "2025-06-17", "")

	active, err := env.matchSvc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, sooner.ID, active.ID)
	assert.NotEqual(t, later.ID, active.ID)

	recent, err := env.matchSvc.RecentClosed(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, closed.ID, recent.ID)

	svc.now = fixedClock(time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC))
	_, err = env.matchSvc.RecentClosed(ctx, 3)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestListOrder(t *testing.T) {
	env := newTestEnv(t)
	env.createMatch(t, "2025-02-04", "")
	env.createMatch(t, "2025-01-07", "")
	env.createMatch(t, "2025-03-04", "")

	desc, err := env.matchSvc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, time.March, desc[0].Date.Month())
	assert.Equal(t, time.January, desc[2].Date.Month())

	asc, err := env.matchSvc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, time.January, asc[0].Date.Month())
}

func TestUpdateLogistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMatch(t, "2025-05-06", "")

	date, tm, loc, format := "2025-05-13", "21:30", "  Palestra  ", models.Format6v6
	updated, err := env.matchSvc.UpdateLogistics(ctx, m.ID, UpdateMatchInput{Date: &date, Time: &tm, Location: &loc, Format: &format})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-13", updated.Date.Format("2006-01-02"))
	assert.Equal(t, "21:30", updated.Time)
	assert.Equal(t, "Palestra", updated.Location)
	assert.Equal(t, models.Format6v6, updated.Format)
	assert.Equal(t, m.Sequence, updated.Sequence)

	bad := "7pm"
	_, err = env.matchSvc.UpdateLogistics(ctx, m.ID, UpdateMatchInput{Time: &bad})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = env.matchSvc.UpdateLogistics(ctx, 999, UpdateMatchInput{})
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLogisticsRejectsClosedMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(0, 0)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[1]), models.IntPtr(ids[6])
	_, err := env.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	loc := "Altrove"
	_, err = env.matchSvc.UpdateLogistics(ctx, m.ID, UpdateMatchInput{Location: &loc})
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestDeleteMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMatch(t, "2025-05-06", "")

	require.NoError(t, env.matchSvc.Delete(ctx, m.ID))
	assert.Equal(t, []int{m.ID}, env.notifier.deleted)
	assert.ErrorIs(t, env.matchSvc.Delete(ctx, m.ID), ErrMatchNotFound)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	env := newTestEnv(t)
	m := env.createMatch(t, "2025-05-06", "")
	env.matches.failUpdate = true

	loc := "X"
	_, err := env.matchSvc.UpdateLogistics(context.Background(), m.ID, UpdateMatchInput{Location: &loc})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "update match", storeErr.Op)
	assert.ErrorIs(t, err, errBackendDown)
}
