package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/Dosada05/calcetto/storage"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updated []int
	deleted []int
}

func (n *recordingNotifier) MatchUpdated(m *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, m.ID)
}

func (n *recordingNotifier) MatchDeleted(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

// failingMatchRepo оборачивает репозиторий и ломает Update/ReplaceAll по флагу.
type failingMatchRepo struct {
	repositories.MatchRepository
	failUpdate  bool
	failReplace bool
}

var errBackendDown = errors.New("backend unavailable")

func (r *failingMatchRepo) Update(ctx context.Context, m *models.Match) error {
	if r.failUpdate {
		return errBackendDown
	}
	return r.MatchRepository.Update(ctx, m)
}

func (r *failingMatchRepo) ReplaceAll(ctx context.Context, matches []*models.Match) error {
	if r.failReplace {
		return errBackendDown
	}
	return r.MatchRepository.ReplaceAll(ctx, matches)
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}}
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return storage.PublicURL("https://cdn.example.com", key)
}

type testEnv struct {
	store    *repositories.MemoryStore
	players  repositories.PlayerRepository
	matches  *failingMatchRepo
	notifier *recordingNotifier

	matchSvc       MatchService
	convocationSvc ConvocationService
	teamSvc        TeamService
	resultSvc      ResultService
	statsSvc       StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	env := &testEnv{
		store:    store,
		players:  store.Players(),
		matches:  &failingMatchRepo{MatchRepository: store.Matches()},
		notifier: &recordingNotifier{},
	}
	env.matchSvc = NewMatchService(env.matches, env.notifier)
	env.convocationSvc = NewConvocationService(env.matches, env.players, env.notifier)
	env.teamSvc = NewTeamService(env.matches, env.players, nil, env.notifier)
	env.resultSvc = NewResultService(env.matches, env.players, env.notifier)
	env.statsSvc = NewStatsService(env.matches, env.players)
	return env
}

// seedPlayers создает n игроков с одинаковыми атрибутами (рейтинг 15).
func (e *testEnv) seedPlayers(t *testing.T, n int) []int {
	t.Helper()
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		p := &models.Player{FirstName: fmt.Sprintf("Player%d", i+1), LastName: "Test", Tier: models.TierStarter}
		p.ApplyDefaults()
		require.NoError(t, e.players.Create(context.Background(), p))
		ids = append(ids, p.ID)
	}
	return ids
}

func (e *testEnv) createMatch(t *testing.T, date string, format models.Format) *models.Match {
	t.Helper()
	m, err := e.matchSvc.Create(context.Background(), CreateMatchInput{Date: date, Format: format})
	require.NoError(t, err)
	return m
}

// publishedMatch возвращает опубликованный 5v5 матч: красные - первые пять игроков, синие - следующие пять.
func (e *testEnv) publishedMatch(t *testing.T, date string, ids []int) *models.Match {
	t.Helper()
	ctx := context.Background()
	m := e.createMatch(t, date, models.Format5v5)
	_, err := e.teamSvc.AssignTeams(ctx, m.ID, ids[:5], ids[5:10])
	require.NoError(t, err)
	m, err = e.teamSvc.PublishTeams(ctx, m.ID)
	require.NoError(t, err)
	return m
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func resultInput(red, blue int) ResultInput {
	return ResultInput{RedGoals: models.IntPtr(red), BlueGoals: models.IntPtr(blue)}
}
