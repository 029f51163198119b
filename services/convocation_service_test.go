package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondCompletesMatchAtCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.createMatch(t, "2025-05-06", models.Format5v5)

	for i, id := range ids {
		got, err := env.convocationSvc.Respond(ctx, m.ID, id, models.ResponsePresent)
		require.NoError(t, err)
		if i < len(ids)-1 {
			assert.Equal(t, models.MatchCreated, got.State, "after %d responses", i+1)
		} else {
			assert.Equal(t, models.MatchComplete, got.State)
		}
	}

	// Complete не откатывается, даже если кто-то передумал
	got, err := env.convocationSvc.Respond(ctx, m.ID, ids[0], models.ResponseAbsent)
	require.NoError(t, err)
	assert.Equal(t, models.MatchComplete, got.State)

	stats, err := env.convocationSvc.Stats(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConvocationStats{Present: 9, Absent: 1}, stats)
}

func TestRespondRejectsInvalidResponse(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seedPlayers(t, 1)
	m := env.createMatch(t, "2025-05-06", "")

	_, err := env.convocationSvc.Respond(context.Background(), m.ID, ids[0], models.Response("forse"))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	got, err := env.matchSvc.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Responses)
	assert.Empty(t, got.Invited)
}

func TestRespondNeverShrinksInvitedSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 3)
	m := env.createMatch(t, "2025-05-06", "")

	_, err := env.convocationSvc.Invite(ctx, m.ID, ids[0])
	require.NoError(t, err)
	_, err = env.convocationSvc.Invite(ctx, m.ID, ids[1])
	require.NoError(t, err)

	for _, r := range []models.Response{models.ResponsePresent, models.ResponseAbsent, models.ResponseMaybe, models.ResponsePending} {
		got, err := env.convocationSvc.Respond(ctx, m.ID, ids[0], r)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[:2], got.Invited)
	}

	// ответ без приглашения добавляет игрока в приглашенные
	got, err := env.convocationSvc.Respond(ctx, m.ID, ids[2], models.ResponseMaybe)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, got.Invited)
}

func TestRespondUnknownMatchOrPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMatch(t, "2025-05-06", "")

	_, err := env.convocationSvc.Respond(ctx, 999, 1, models.ResponsePresent)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = env.convocationSvc.Respond(ctx, m.ID, 999, models.ResponsePresent)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestInviteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 1)
	m := env.createMatch(t, "2025-05-06", "")

	_, err := env.convocationSvc.Respond(ctx, m.ID, ids[0], models.ResponsePresent)
	require.NoError(t, err)
	got, err := env.convocationSvc.Invite(ctx, m.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []int{ids[0]}, got.Invited)
	assert.Equal(t, models.ResponsePresent, got.ResponseOf(ids[0]))

	_, err = env.convocationSvc.Invite(ctx, m.ID, 404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestUninvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 2)
	m := env.createMatch(t, "2025-05-06", "")
	_, err := env.convocationSvc.Respond(ctx, m.ID, ids[0], models.ResponsePresent)
	require.NoError(t, err)
	_, err = env.convocationSvc.Invite(ctx, m.ID, ids[1])
	require.NoError(t, err)

	got, err := env.convocationSvc.Uninvite(ctx, m.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []int{ids[1]}, got.Invited)
	assert.Equal(t, models.ResponsePending, got.ResponseOf(ids[0]))
}

func TestComputeConvocationStats(t *testing.T) {
	m := &models.Match{
		Invited: []int{1, 2, 3, 4, 5},
		Responses: map[int]models.Response{
			1: models.ResponsePresent,
			2: models.ResponseMaybe,
			3: models.ResponseAbsent,
			6: models.ResponsePresent,
		},
	}
	assert.Equal(t, models.ConvocationStats{Present: 2, Maybe: 1, Absent: 1, Pending: 2}, ComputeConvocationStats(m))
	assert.Equal(t, models.ConvocationStats{}, ComputeConvocationStats(&models.Match{}))
}

func TestInviteRosterAndReserves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	starter := &models.Player{FirstName: "Titolare", LastName: "Uno", Tier: models.TierStarter}
	reserve := &models.Player{FirstName: "Riserva", LastName: "Due", Tier: models.TierReserve}
	blocked := &models.Player{FirstName: "Bloccato", LastName: "Tre", Tier: models.TierStarter, Blocked: true}
	for _, p := range []*models.Player{starter, reserve, blocked} {
		p.ApplyDefaults()
		require.NoError(t, env.players.Create(ctx, p))
	}
	m := env.createMatch(t, "2025-05-06", "")

	got, err := env.convocationSvc.InviteRoster(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{starter.ID}, got.Invited)

	opened := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)
	env.convocationSvc.(*convocationService).now = fixedClock(opened)
	got, err = env.convocationSvc.OpenToReserves(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseReserves, got.Phase)
	require.NotNil(t, got.ReservesOpenedAt)
	assert.True(t, opened.Equal(*got.ReservesOpenedAt))

	got, err = env.convocationSvc.InviteRoster(ctx, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{starter.ID, reserve.ID}, got.Invited)
}

func TestOpenToReservesRejectsClosedMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(1, 1)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[0]), models.IntPtr(ids[9])
	_, err := env.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	_, err = env.convocationSvc.OpenToReserves(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMatchClosed)
}
