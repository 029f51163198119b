package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportInline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedPlayers(t, 10)
	env.publishedMatch(t, "2025-05-06", ids)

	svc := NewBackupService(env.players, env.matches, nil)
	svc.(*backupService).now = fixedClock(time.Date(2025, 5, 7, 10, 0, 0, 0, time.UTC))

	res, err := svc.Export(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Backup)
	assert.Empty(t, res.Key)
	assert.Equal(t, BackupVersion, res.Backup.Metadata.Version)
	assert.Equal(t, BackupSource, res.Backup.Metadata.Source)
	assert.Len(t, res.Backup.Data.Players, 10)
	assert.Len(t, res.Backup.Data.Matches, 1)

	raw, err := json.Marshal(res.Backup)
	require.NoError(t, err)
	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc["metadata"], "version")
	assert.Contains(t, doc["data"], "players")
	assert.Contains(t, doc["data"], "matches")
}

func TestExportUploadsWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlayers(t, 2)
	uploader := newMemoryUploader()
	svc := NewBackupService(env.players, env.matches, uploader)

	res, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Key)
	assert.Contains(t, res.Location, "https://cdn.example.com/backups/")
	require.Contains(t, uploader.objects, res.Key)

	var stored models.Backup
	require.NoError(t, json.Unmarshal(uploader.objects[res.Key], &stored))
	assert.Len(t, stored.Data.Players, 2)
}

func TestRestoreRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	ctx := context.Background()
	ids := src.seedPlayers(t, 10)
	m := src.publishedMatch(t, "2025-05-06", ids)
	in := resultInput(2, 1)
	in.MVPRed, in.MVPBlue = models.IntPtr(ids[0]), models.IntPtr(ids[5])
	_, err := src.resultSvc.FinalizeMatch(ctx, m.ID, in)
	require.NoError(t, err)

	exported, err := NewBackupService(src.players, src.matches, nil).Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(exported.Backup)
	require.NoError(t, err)

	var doc models.Backup
	require.NoError(t, json.Unmarshal(raw, &doc))

	dst := newTestEnv(t)
	dst.seedPlayers(t, 3)
	require.NoError(t, NewBackupService(dst.players, dst.matches, nil).Restore(ctx, &doc))

	players, err := dst.players.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 10)

	restored, err := dst.matchSvc.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchClosed, restored.State)
	assert.True(t, restored.StatsApplied)
	assert.Equal(t, ids[:5], restored.Red)

	mvp, err := dst.players.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, mvp.MVPPoints)
}

func TestRestoreKeepsPINs(t *testing.T) {
	ctx := context.Background()
	src := newTestEnv(t)
	_, err := NewAuthService(src.players).Register(ctx, registerInput("Anna", "Neri", "", "2468"))
	require.NoError(t, err)

	exported, err := NewBackupService(src.players, src.matches, nil).Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(exported.Backup)
	require.NoError(t, err)
	var doc models.Backup
	require.NoError(t, json.Unmarshal(raw, &doc))

	dst := newTestEnv(t)
	require.NoError(t, NewBackupService(dst.players, dst.matches, nil).Restore(ctx, &doc))
	_, err = NewAuthService(dst.players).Login(ctx, models.Credentials{Username: "anna.neri", PIN: "2468"})
	assert.NoError(t, err)
}

func TestRestoreValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBackupService(env.players, env.matches, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Restore(ctx, nil), ErrInvalidBackup)
	assert.ErrorIs(t, svc.Restore(ctx, &models.Backup{}), ErrInvalidBackup)

	tests := []struct {
		name  string
		match *models.Match
	}{
		{"unknown state", &models.Match{ID: 1, State: "finished", Format: models.Format5v5}},
		{"unknown format", &models.Match{ID: 1, State: models.MatchCreated, Format: "11v11"}},
		{"unknown response", &models.Match{ID: 1, State: models.MatchCreated, Format: models.Format5v5,
			Responses: map[int]models.Response{1: "forse"}}},
		{"player in both teams", &models.Match{ID: 1, State: models.MatchTeamsGenerated, Format: models.Format5v5,
			Red: []int{1, 2}, Blue: []int{2, 3}}},
		{"result before publish", &models.Match{ID: 1, State: models.MatchComplete, Format: models.Format5v5,
			RedGoals: models.IntPtr(1), BlueGoals: models.IntPtr(0)}},
		{"closed without result", &models.Match{ID: 1, State: models.MatchClosed, Format: models.Format5v5,
			Red: []int{1}, Blue: []int{2}}},
		{"closed without mvp", &models.Match{ID: 1, State: models.MatchClosed, Format: models.Format5v5,
			Red: []int{1}, Blue: []int{2}, RedGoals: models.IntPtr(1), BlueGoals: models.IntPtr(0)}},
		{"closed with scorer overflow", &models.Match{ID: 1, State: models.MatchClosed, Format: models.Format5v5,
			Red: []int{1}, Blue: []int{2}, RedGoals: models.IntPtr(0), BlueGoals: models.IntPtr(0),
			Scorers: []models.Scorer{{PlayerID: 1, Goals: 2}},
			MVPRed:  models.IntPtr(1), MVPBlue: models.IntPtr(2)}},
		{"negative goals", &models.Match{ID: 1, State: models.MatchPublished, Format: models.Format5v5,
			Red: []int{1}, Blue: []int{2}, RedGoals: models.IntPtr(-1), BlueGoals: models.IntPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := &models.Backup{Metadata: models.BackupMetadata{Version: BackupVersion}}
			bad.Data.Matches = []*models.Match{tt.match}
			assert.ErrorIs(t, svc.Restore(ctx, bad), ErrInvalidBackup)

			matches, err := env.matches.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}

	ok := &models.Backup{Metadata: models.BackupMetadata{Version: BackupVersion}}
	ok.Data.Players = []*models.BackupPlayer{
		models.NewBackupPlayer(&models.Player{ID: 1, FirstName: "Uno", LastName: "Test"}),
		models.NewBackupPlayer(&models.Player{ID: 2, FirstName: "Due", LastName: "Test"}),
	}
	ok.Data.Matches = []*models.Match{{ID: 1, State: models.MatchClosed, Format: models.Format5v5,
		Red: []int{1}, Blue: []int{2}, RedGoals: models.IntPtr(1), BlueGoals: models.IntPtr(0),
		MVPRed: models.IntPtr(1), MVPBlue: models.IntPtr(2)}}
	assert.NoError(t, svc.Restore(ctx, ok))
}

func TestRestorePartialWrite(t *testing.T) {
	env := newTestEnv(t)
	env.matches.failReplace = true
	svc := NewBackupService(env.players, env.matches, nil)

	doc := &models.Backup{Metadata: models.BackupMetadata{Version: BackupVersion}}
	doc.Data.Players = []*models.BackupPlayer{models.NewBackupPlayer(&models.Player{ID: 7, FirstName: "Solo", LastName: "Uno"})}

	err := svc.Restore(context.Background(), doc)
	var partial *PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"players"}, partial.Completed)

	p, err := env.players.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Solo", p.FirstName)
}
