package services

import (
	"context"
	"testing"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/squads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondAll(t *testing.T, env *testEnv, matchID int, ids []int) {
	t.Helper()
	for _, id := range ids {
		_, err := env.convocationSvc.Respond(context.Background(), matchID, id, models.ResponsePresent)
		require.NoError(t, err)
	}
}

func TestGenerateTeamsFromPresentPlayers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 11)
	m := env.createMatch(t, "2025-05-06", models.Format5v5)
	respondAll(t, env, m.ID, ids[:10])
	_, err := env.convocationSvc.Respond(ctx, m.ID, ids[10], models.ResponseAbsent)
	require.NoError(t, err)

	generated, err := env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{Red: []int{ids[0]}})
	require.NoError(t, err)

	saved := generated.Match
	assert.Equal(t, models.MatchTeamsGenerated, saved.State)
	assert.Len(t, saved.Red, 5)
	assert.Len(t, saved.Blue, 5)
	assert.Contains(t, saved.Red, ids[0])
	assert.NotContains(t, append(saved.Red, saved.Blue...), ids[10])
	assert.Equal(t, 100, generated.Result.Balance.Index)

	// повторная генерация разрешена
	_, err = env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{})
	require.NoError(t, err)
}

func TestGenerateTeamsErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 4)
	m := env.createMatch(t, "2025-05-06", models.Format5v5)

	_, err := env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	respondAll(t, env, m.ID, ids)
	_, err = env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{Red: []int{ids[0]}, Blue: []int{ids[0]}})
	assert.ErrorIs(t, err, ErrPlayerInBothTeams)

	_, err = env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{Red: []int{404}})
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = env.teamSvc.GenerateTeams(ctx, 999, squads.ManualAssignment{})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = env.teamSvc.AssignTeams(ctx, m.ID, ids[:2], ids[2:])
	require.NoError(t, err)
	_, err = env.teamSvc.PublishTeams(ctx, m.ID)
	require.NoError(t, err)
	_, err = env.teamSvc.GenerateTeams(ctx, m.ID, squads.ManualAssignment{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignTeamsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 4)
	m := env.createMatch(t, "2025-05-06", "")

	_, err := env.teamSvc.AssignTeams(ctx, m.ID, nil, ids[:2])
	assert.ErrorIs(t, err, ErrEmptyTeam)

	_, err = env.teamSvc.AssignTeams(ctx, m.ID, ids[:2], ids[1:])
	assert.ErrorIs(t, err, ErrPlayerInBothTeams)

	_, err = env.teamSvc.AssignTeams(ctx, m.ID, []int{ids[0], ids[0]}, ids[2:])
	assert.ErrorIs(t, err, ErrValidationFailed)

	got, err := env.matchSvc.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCreated, got.State)
	assert.Empty(t, got.Red)

	saved, err := env.teamSvc.AssignTeams(ctx, m.ID, ids[:2], ids[2:])
	require.NoError(t, err)
	assert.Equal(t, models.MatchTeamsGenerated, saved.State)
	assert.Equal(t, ids[:2], saved.Red)
}

func TestResetAndPublishTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.createMatch(t, "2025-05-06", models.Format5v5)

	_, err := env.teamSvc.PublishTeams(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.teamSvc.ResetTeams(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.teamSvc.AssignTeams(ctx, m.ID, ids[:5], ids[5:])
	require.NoError(t, err)
	published, err := env.teamSvc.PublishTeams(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPublished, published.State)

	_, err = env.resultSvc.SubmitResult(ctx, m.ID, resultInput(3, 2))
	require.NoError(t, err)

	reset, err := env.teamSvc.ResetTeams(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchComplete, reset.State)
	assert.Empty(t, reset.Red)
	assert.Empty(t, reset.Blue)
	assert.False(t, reset.HasResult(), "pre-published match holds no result")
}

func TestPublishFromClosedIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	m := env.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(1, 0)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[0]), models.IntPtr(ids[5])
	_, err := env.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	_, err = env.teamSvc.PublishTeams(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.teamSvc.ResetTeams(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMatchClosed)
	_, err = env.teamSvc.AssignTeams(ctx, m.ID, ids[:5], ids[5:])
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOverviewAndSwaps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mk := func(name string, v int) int {
		p := &models.Player{FirstName: name, LastName: "X", Overall: v, Vision: v, Pace: v, Possession: v, Fitness: v}
		p.ApplyDefaults()
		require.NoError(t, env.players.Create(ctx, p))
		return p.ID
	}
	strong1, strong2 := mk("A", 5), mk("B", 5)
	weak1, weak2 := mk("C", 1), mk("D", 1)
	m := env.createMatch(t, "2025-05-06", "")
	_, err := env.teamSvc.AssignTeams(ctx, m.ID, []int{strong1, strong2}, []int{weak1, weak2})
	require.NoError(t, err)

	overview, err := env.teamSvc.Overview(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, overview.Balance.RedValue)
	assert.Equal(t, 10, overview.Balance.BlueValue)
	assert.Equal(t, 2, overview.RedRoles[models.RoleMidfielder])

	swaps, err := env.teamSvc.SuggestSwaps(ctx, m.ID)
	require.NoError(t, err)
	require.NotEmpty(t, swaps)
	assert.Equal(t, 100, swaps[0].NewBalance.Index)
}
